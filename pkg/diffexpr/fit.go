package diffexpr

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
)

// maxCond is the largest condition number of XᵀX accepted as full rank.
const maxCond = 1e12

// LinearFit holds the per-gene least squares fits.
type LinearFit struct {
	// Coef is p x genes.
	Coef *mat.Dense
	// Effect is the contrast estimate (High - Low) per gene.
	Effect  []float64
	AveExpr []float64
	Sigma2  []float64
	// DF is the residual degrees of freedom, shared by all genes.
	DF float64
	// StdevUnscaled is sqrt(cᵀ(XᵀX)⁻¹c), shared by all genes.
	StdevUnscaled float64
}

// Fit regresses every gene (row of expr) on the design.
func Fit(expr *core.Matrix, d *Design, workers int) (*LinearFit, error) {
	n, p := d.X.Dims()
	if expr.R == 0 {
		return nil, core.Errorf(core.StageDiffExpr, "", core.ErrInsufficientFeatures, "no genes to fit")
	}
	if expr.C != n {
		return nil, core.Errorf(core.StageDiffExpr, "", core.ErrDegenerateDesign, "design has %d rows, expression has %d samples", n, expr.C)
	}
	df := float64(n - p)
	if df <= 0 {
		return nil, core.Errorf(core.StageDiffExpr, "", core.ErrDegenerateDesign, "no residual degrees of freedom (%d samples, %d coefficients)", n, p)
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, d.X.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxCond {
		return nil, core.Errorf(core.StageDiffExpr, "", core.ErrDegenerateDesign, "design matrix is rank deficient")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, core.Errorf(core.StageDiffExpr, "", core.ErrDegenerateDesign, "invert XᵀX: %v", err)
	}
	c := d.Contrast()
	stdevUnscaled := math.Sqrt(mat.Inner(c, &inv, c))

	y := expr.Dense()
	var xty, beta mat.Dense
	xty.Mul(d.X.T(), y.T())
	if err := chol.SolveTo(&beta, &xty); err != nil {
		return nil, core.Errorf(core.StageDiffExpr, "", core.ErrDegenerateDesign, "solve normal equations: %v", err)
	}

	fit := &LinearFit{
		Coef:          &beta,
		Effect:        make([]float64, expr.R),
		AveExpr:       make([]float64, expr.R),
		Sigma2:        make([]float64, expr.R),
		DF:            df,
		StdevUnscaled: stdevUnscaled,
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (expr.R + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < expr.R; start += chunk {
		start := start
		end := min(start+chunk, expr.R)
		g.Go(func() error {
			coef := make([]float64, p)
			for gene := start; gene < end; gene++ {
				row := expr.Row(gene)
				for k := 0; k < p; k++ {
					coef[k] = beta.At(k, gene)
				}
				rss, sum := 0.0, 0.0
				for j, v := range row {
					fitted := 0.0
					for k := 0; k < p; k++ {
						fitted += d.X.At(j, k) * coef[k]
					}
					r := v - fitted
					rss += r * r
					sum += v
				}
				effect := 0.0
				for k := 0; k < p; k++ {
					effect += c.AtVec(k) * coef[k]
				}
				fit.Effect[gene] = effect
				fit.AveExpr[gene] = sum / float64(n)
				fit.Sigma2[gene] = rss / df
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fit, nil
}

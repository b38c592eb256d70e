package diffexpr

import (
	"math"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

// Row is the result for one gene.
type Row struct {
	Gene    string
	Symbol  string
	LogFC   float64 // High - Low
	AveExpr float64
	T       float64 // moderated t
	P       float64
	AdjP    float64
	B       float64 // log-odds of differential expression
}

// Table holds one Row per tested gene in input order, plus the fitted
// hyper-parameters.
type Table struct {
	Rows     []Row
	Prior    Prior
	DF       float64 // residual df per gene
	DFTotal  float64 // df of the moderated t
	VarPrior float64 // prior variance of non-zero effects
	Adjust   string
	Counts   []int // samples per group, Low then High
}

// Options configures ModeratedT.
type Options struct {
	// Adjust is the multiple testing correction, BH by default.
	Adjust string
	// Proportion is the assumed fraction of differentially expressed genes
	// used by the B-statistic.
	Proportion float64
	// Workers bounds the parallel per-gene fits; zero means GOMAXPROCS.
	Workers int
}

// DefaultOptions mirrors the usual limma settings.
func DefaultOptions() Options {
	return Options{Adjust: AdjustBH, Proportion: 0.01}
}

// coefSDLimits bound the prior standard deviation of non-zero effects.
var coefSDLimits = [2]float64{0.1, 4}

// ModeratedT is the empirical Bayes moderated t-test between risk groups.
type ModeratedT struct {
	Options Options
}

// Test fits every gene of ds on its risk labels and returns the table of
// moderated statistics.
func (m ModeratedT) Test(ds *data.Dataset) (*Table, error) {
	opts := m.Options
	if opts.Proportion <= 0 || opts.Proportion >= 1 {
		opts.Proportion = DefaultOptions().Proportion
	}
	labels, err := ds.Labels()
	if err != nil {
		return nil, err
	}
	design, err := NewDesign(labels)
	if err != nil {
		return nil, err
	}
	fit, err := Fit(ds.Expr, design, opts.Workers)
	if err != nil {
		return nil, err
	}

	prior := FitPrior(fit.Sigma2, fit.DF)
	dfPooled := fit.DF * float64(len(fit.Sigma2))
	dfTotal := math.Min(fit.DF+prior.DF0, dfPooled)

	tab := &Table{
		Rows:    make([]Row, ds.NumGenes()),
		Prior:   prior,
		DF:      fit.DF,
		DFTotal: dfTotal,
		Adjust:  opts.Adjust,
		Counts:  design.Counts,
	}
	if tab.Adjust == "" {
		tab.Adjust = AdjustBH
	}
	pvals := make([]float64, ds.NumGenes())
	tstats := make([]float64, ds.NumGenes())
	for i, gene := range ds.Genes {
		s2post := prior.Posterior(fit.Sigma2[i], fit.DF)
		t := fit.Effect[i] / (fit.StdevUnscaled * math.Sqrt(s2post))
		tstats[i] = t
		pvals[i] = twoSidedP(t, dfTotal)
		tab.Rows[i] = Row{
			Gene:    gene,
			Symbol:  ds.Symbol(gene),
			LogFC:   fit.Effect[i],
			AveExpr: fit.AveExpr[i],
			T:       t,
			P:       pvals[i],
		}
	}

	adj, err := AdjustP(pvals, tab.Adjust)
	if err != nil {
		return nil, err
	}

	v1 := fit.StdevUnscaled * fit.StdevUnscaled
	lim := [2]float64{
		coefSDLimits[0] * coefSDLimits[0] / prior.S02,
		coefSDLimits[1] * coefSDLimits[1] / prior.S02,
	}
	tab.VarPrior = priorCoefVariance(tstats, v1, dfTotal, opts.Proportion, lim)
	if math.IsNaN(tab.VarPrior) {
		tab.VarPrior = 1 / prior.S02
	}
	for i := range tab.Rows {
		tab.Rows[i].AdjP = adj[i]
		tab.Rows[i].B = logOdds(tstats[i], v1, tab.VarPrior, dfTotal, opts.Proportion, prior)
	}
	return tab, nil
}

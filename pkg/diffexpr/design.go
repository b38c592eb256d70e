// Package diffexpr finds genes whose expression differs between the Low and
// High risk groups. Each gene gets an ordinary least squares fit on a
// two-column indicator design; residual variances are then moderated towards
// a common prior estimated from all genes (empirical Bayes), which stabilises
// the t-statistics when there are few samples.
package diffexpr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

// Design is a samples x 2 indicator matrix: column 0 marks Low risk samples
// and column 1 marks High risk samples.
type Design struct {
	X       *mat.Dense
	Columns []string
	Counts  []int
}

// NewDesign encodes risk labels. Each group needs at least two samples.
func NewDesign(labels []data.Risk) (*Design, error) {
	x := mat.NewDense(max(len(labels), 1), 2, nil)
	counts := make([]int, 2)
	for i, l := range labels {
		switch l {
		case data.Low, data.High:
			x.Set(i, int(l), 1)
			counts[l]++
		default:
			return nil, core.Errorf(core.StageDiffExpr, l.String(), core.ErrDegenerateDesign, "unknown label at sample %d", i)
		}
	}
	for k, c := range counts {
		if c < 2 {
			return nil, core.Errorf(core.StageDiffExpr, data.Risk(k).String(), core.ErrDegenerateDesign, "group has %d samples, need at least 2", c)
		}
	}
	return &Design{X: x, Columns: []string{data.Low.String(), data.High.String()}, Counts: counts}, nil
}

// Contrast returns the coefficient weights of High - Low.
func (d *Design) Contrast() *mat.VecDense {
	return mat.NewVecDense(2, []float64{-1, 1})
}

package dataprep

import (
	"fmt"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/stats"
)

// Spread measures the variability of one gene across samples.
type Spread func([]float64) float64

// SpreadFunc returns the variability measure registered under name.
func SpreadFunc(name string) (Spread, error) {
	switch name {
	case "iqr", "":
		return stats.IQR, nil
	case "var":
		return stats.Variance, nil
	}
	return nil, fmt.Errorf("unknown variance function %q", name)
}

// VarianceFilter drops genes whose variability is not above the Cutoff
// quantile of the variability of all genes, as genefilter's varFilter does.
type VarianceFilter struct {
	Spread Spread
	Cutoff float64
}

// FilterReport summarises a filter run.
type FilterReport struct {
	Before    int
	After     int
	Threshold float64
}

// Apply returns a new Dataset holding only the retained genes, in their
// original order.
func (f VarianceFilter) Apply(ds *data.Dataset) (*data.Dataset, FilterReport, error) {
	rep := FilterReport{Before: ds.NumGenes()}
	if ds.NumGenes() == 0 {
		return nil, rep, core.Errorf(core.StageFilter, "", core.ErrInsufficientFeatures, "no genes to filter")
	}
	spread := f.Spread
	if spread == nil {
		spread = stats.IQR
	}
	vals := make([]float64, ds.NumGenes())
	for i := range vals {
		vals[i] = spread(ds.Expr.Row(i))
	}
	rep.Threshold = stats.Quantile(vals, f.Cutoff)
	keep := make([]int, 0, len(vals))
	for i, v := range vals {
		if v > rep.Threshold {
			keep = append(keep, i)
		}
	}
	out := ds.SubsetGenes(keep)
	rep.After = out.NumGenes()
	return out, rep, nil
}

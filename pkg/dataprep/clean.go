package dataprep

import (
	"math"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

// CleanReport summarises DropUnlabelled.
type CleanReport struct {
	Before  int
	After   int
	Dropped []string
}

// DropUnlabelled removes every sample whose event label is missing and
// checks that the remaining samples carry a usable time to event.
func DropUnlabelled(ds *data.Dataset) (*data.Dataset, CleanReport, error) {
	rep := CleanReport{Before: ds.NumSamples()}
	keep := make([]int, 0, ds.NumSamples())
	for j, s := range ds.Samples {
		if !s.HasEvent() {
			rep.Dropped = append(rep.Dropped, s.ID)
			continue
		}
		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) || s.Time < 0 {
			return nil, rep, core.Errorf(core.StageClean, s.ID, core.ErrDataIntegrity, "labelled sample has invalid time %v", s.Time)
		}
		keep = append(keep, j)
	}
	if len(keep) == 0 {
		return nil, rep, core.Errorf(core.StageClean, "", core.ErrDataIntegrity, "no labelled samples left")
	}
	out := ds.SubsetSamples(keep)
	rep.After = out.NumSamples()
	return out, rep, nil
}

// Validate checks the post-cleaning invariants: every sample is labelled and
// no expression value is missing.
func Validate(ds *data.Dataset) error {
	if _, err := ds.Labels(); err != nil {
		return err
	}
	for i := 0; i < ds.Expr.R; i++ {
		for j, v := range ds.Expr.Row(i) {
			if math.IsNaN(v) {
				return core.Errorf(core.StageImpute, ds.Genes[i]+"/"+ds.Samples[j].ID, core.ErrDataIntegrity, "missing expression value")
			}
		}
	}
	return nil
}

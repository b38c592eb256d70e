package pipeline

import (
	"github.com/kaniacz/cruk-summer-school-2020/pkg/dataprep"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/diffexpr"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/model"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/signature"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/survival"
)

// Partition names.
const (
	PartitionTraining   = "training"
	PartitionValidation = "validation"
)

// Partition is the assessment of one sample partition.
type Partition struct {
	Name       string
	Results    []model.Result
	Evaluation model.Evaluation
	LogRank    survival.LogRankResult
	// Curves are the Kaplan-Meier curves of the predicted groups, Low first.
	Curves [2]*survival.Curve
}

// Report collects everything a run produced.
type Report struct {
	// Seed of the split; zero when the caller supplied the random source.
	Seed          int64
	Clean         dataprep.CleanReport
	Imputation    dataprep.ImputeReport
	FilterApplied bool
	Filter        dataprep.FilterReport
	Table         *diffexpr.Table
	Signature     signature.List
	// Templates are set when the nearest-template classifier is used.
	Templates           [2]*model.Template
	TemplateCorrelation float64
	Training            Partition
	Validation          Partition
}

// Partitions returns the training and validation partitions in order.
func (r *Report) Partitions() []Partition {
	return []Partition{r.Training, r.Validation}
}

package report

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/pipeline"
)

// Summary is the machine readable digest of a run.
type Summary struct {
	Seed         int64              `yaml:"seed"`
	Samples      SampleSummary      `yaml:"samples"`
	Imputation   ImputationSummary  `yaml:"imputation"`
	Genes        GeneSummary        `yaml:"genes"`
	Prior        PriorSummary       `yaml:"prior"`
	Signature    []string           `yaml:"signature"`
	TemplateCorr float64            `yaml:"template_correlation"`
	Partitions   []PartitionSummary `yaml:"partitions"`
}

type SampleSummary struct {
	Input   int      `yaml:"input"`
	Dropped []string `yaml:"dropped,omitempty"`
	Cleaned int      `yaml:"cleaned"`
}

type ImputationSummary struct {
	Method       string  `yaml:"method"`
	Missing      int     `yaml:"missing"`
	Fraction     float64 `yaml:"fraction"`
	FallbackRows int     `yaml:"fallback_rows"`
}

type GeneSummary struct {
	Input           int     `yaml:"input"`
	Filtered        bool    `yaml:"filtered"`
	Kept            int     `yaml:"kept"`
	FilterThreshold float64 `yaml:"filter_threshold,omitempty"`
}

type PriorSummary struct {
	DF0      float64 `yaml:"df0"`
	S02      float64 `yaml:"s02"`
	DFTotal  float64 `yaml:"df_total"`
	VarPrior float64 `yaml:"var_prior"`
	Adjust   string  `yaml:"adjust"`
}

type PartitionSummary struct {
	Name             string     `yaml:"name"`
	Samples          int        `yaml:"samples"`
	Accuracy         float64    `yaml:"accuracy"`
	FalseHighRate    float64    `yaml:"false_high_rate"`
	FalseLowRate     float64    `yaml:"false_low_rate"`
	LabelCorrelation float64    `yaml:"label_correlation"`
	F1               float64    `yaml:"f1"`
	Confusion        [2][2]int  `yaml:"confusion"`
	LogRank          RankResult `yaml:"logrank"`
	MedianLow        float64    `yaml:"median_survival_low"`
	MedianHigh       float64    `yaml:"median_survival_high"`
}

type RankResult struct {
	Observed [2]float64 `yaml:"observed"`
	Expected [2]float64 `yaml:"expected"`
	ChiSq    float64    `yaml:"chisq"`
	P        float64    `yaml:"p_value"`
}

// Summarize digests rep.
func Summarize(rep *pipeline.Report) Summary {
	s := Summary{
		Seed: rep.Seed,
		Samples: SampleSummary{
			Input:   rep.Clean.Before,
			Dropped: rep.Clean.Dropped,
			Cleaned: rep.Clean.After,
		},
		Imputation: ImputationSummary{
			Method:       rep.Imputation.Method,
			Missing:      rep.Imputation.Missing,
			Fraction:     rep.Imputation.Fraction,
			FallbackRows: rep.Imputation.FallbackRows,
		},
		Genes: GeneSummary{
			Input:    rep.Filter.Before,
			Filtered: rep.FilterApplied,
			Kept:     rep.Filter.After,
		},
		Signature:    rep.Signature.IDs(),
		TemplateCorr: rep.TemplateCorrelation,
	}
	if rep.FilterApplied {
		s.Genes.FilterThreshold = rep.Filter.Threshold
	}
	if t := rep.Table; t != nil {
		s.Prior = PriorSummary{DF0: t.Prior.DF0, S02: t.Prior.S02, DFTotal: t.DFTotal, VarPrior: t.VarPrior, Adjust: t.Adjust}
	}
	for _, part := range rep.Partitions() {
		ev, lr := part.Evaluation, part.LogRank
		ps := PartitionSummary{
			Name:             part.Name,
			Samples:          ev.N,
			Accuracy:         ev.Accuracy,
			FalseHighRate:    ev.FalseHighRate,
			FalseLowRate:     ev.FalseLowRate,
			LabelCorrelation: ev.LabelCorrelation,
			F1:               ev.F1,
			Confusion: [2][2]int{
				{ev.Confusion.TrueLow, ev.Confusion.FalseHigh},
				{ev.Confusion.FalseLow, ev.Confusion.TrueHigh},
			},
			LogRank: RankResult{Observed: lr.Observed, Expected: lr.Expected, ChiSq: lr.ChiSq, P: lr.P},
		}
		if c := part.Curves[0]; c != nil {
			ps.MedianLow = c.Median()
		}
		if c := part.Curves[1]; c != nil {
			ps.MedianHigh = c.Median()
		}
		s.Partitions = append(s.Partitions, ps)
	}
	return s
}

func writeSummary(path string, rep *pipeline.Report) error {
	raw, err := yaml.Marshal(Summarize(rep))
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

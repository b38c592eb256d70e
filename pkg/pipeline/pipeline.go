// Package pipeline runs the signature analysis end to end: clean, impute,
// split, filter, test, select, classify, evaluate and compare survival.
package pipeline

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/config"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/dataprep"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/diffexpr"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/loader"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/model"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/signature"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/survival"
)

// Filter removes uninformative genes before testing.
type Filter interface {
	Apply(ds *data.Dataset) (*data.Dataset, dataprep.FilterReport, error)
}

// Tester scores every gene of a labelled dataset.
type Tester interface {
	Test(ds *data.Dataset) (*diffexpr.Table, error)
}

// Pipeline holds the configured stages. Each stage can be replaced with an
// Option.
type Pipeline struct {
	cfg        *config.Config
	log        *zap.Logger
	imputer    dataprep.Imputer
	filter     Filter
	tester     Tester
	classifier model.Classifier
	rng        *rand.Rand
	seed       int64
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithImputer replaces the configured imputer.
func WithImputer(imp dataprep.Imputer) Option {
	return func(p *Pipeline) { p.imputer = imp }
}

// WithFilter replaces the variance filter; nil disables filtering.
func WithFilter(f Filter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithTester replaces the differential expression test.
func WithTester(t Tester) Option {
	return func(p *Pipeline) { p.tester = t }
}

// WithClassifier replaces the nearest-template classifier.
func WithClassifier(c model.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithRand supplies the random source of the split. The report seed is then
// zero.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pipeline) { p.rng, p.seed = rng, 0 }
}

// New builds a pipeline from cfg. A nil logger discards output.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	imp, err := dataprep.NewImputer(cfg.Clean.Imputer, cfg.Clean.K, cfg.Clean.RowMax, cfg.Clean.ColMax)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		log:     logger,
		imputer: imp,
		tester: diffexpr.ModeratedT{Options: diffexpr.Options{
			Adjust:     cfg.DiffExpr.Adjust,
			Proportion: cfg.DiffExpr.Proportion,
			Workers:    cfg.DiffExpr.Workers,
		}},
		classifier: model.NewTemplateClassifier(),
	}
	if cfg.Filter.Enabled {
		spread, err := dataprep.SpreadFunc(cfg.Filter.Func)
		if err != nil {
			return nil, err
		}
		p.filter = dataprep.VarianceFilter{Spread: spread, Cutoff: cfg.Filter.Cutoff}
	}
	p.rng, p.seed = loader.NewSource(cfg.Split.Seed)

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run analyses ds. The input is not modified. Any failure aborts the run and
// is returned as the stage's *core.StageError where one applies.
func (p *Pipeline) Run(ds *data.Dataset) (*Report, error) {
	rep := &Report{Seed: p.seed}
	p.log.Info("Starting run",
		zap.Int("genes", ds.NumGenes()),
		zap.Int("samples", ds.NumSamples()),
		zap.Int64("seed", p.seed))

	cleaned, cr, err := dataprep.DropUnlabelled(ds)
	if err != nil {
		return nil, err
	}
	rep.Clean = cr
	p.log.Info("Dropped unlabelled samples",
		zap.Int("before", cr.Before),
		zap.Int("after", cr.After),
		zap.Strings("dropped", cr.Dropped))

	imputed, ir, err := dataprep.ImputeDataset(cleaned, p.imputer, p.cfg.Clean.MaxMissingFraction)
	if err != nil {
		return nil, err
	}
	rep.Imputation = ir
	p.log.Info("Imputed missing values",
		zap.String("method", ir.Method),
		zap.Int("missing", ir.Missing),
		zap.Float64("fraction", ir.Fraction),
		zap.Int("fallback_rows", ir.FallbackRows))

	train, valid, err := p.split(imputed)
	if err != nil {
		return nil, err
	}
	p.log.Info("Split samples",
		zap.Int("training", train.NumSamples()),
		zap.Int("validation", valid.NumSamples()),
		zap.Bool("stratified", p.cfg.Split.Stratified))

	candidates := train
	rep.Filter = dataprep.FilterReport{Before: train.NumGenes(), After: train.NumGenes()}
	if p.filter != nil {
		candidates, rep.Filter, err = p.filter.Apply(train)
		if err != nil {
			return nil, err
		}
		rep.FilterApplied = true
	}
	p.log.Info("Filtered genes",
		zap.Bool("applied", rep.FilterApplied),
		zap.Int("before", rep.Filter.Before),
		zap.Int("after", rep.Filter.After),
		zap.Float64("threshold", rep.Filter.Threshold))

	tab, err := p.tester.Test(candidates)
	if err != nil {
		return nil, err
	}
	rep.Table = tab
	p.log.Info("Tested differential expression",
		zap.Int("genes", len(tab.Rows)),
		zap.Float64("df_prior", tab.Prior.DF0),
		zap.Float64("s2_prior", tab.Prior.S02),
		zap.Float64("df_total", tab.DFTotal),
		zap.String("adjust", tab.Adjust))

	sig, err := signature.Select(tab, p.cfg.Signature.Size)
	if err != nil {
		return nil, err
	}
	rep.Signature = sig
	p.log.Info("Selected signature",
		zap.Int("size", len(sig)),
		zap.Strings("head", head(sig.IDs(), 5)))

	if err := p.classifier.Fit(train, sig.IDs()); err != nil {
		return nil, err
	}
	if tc, ok := p.classifier.(*model.TemplateClassifier); ok {
		rep.Templates = [2]*model.Template{tc.Low, tc.High}
		rep.TemplateCorrelation = tc.TemplateCorrelation()
		p.log.Debug("Built templates",
			zap.Int("low_samples", tc.Low.Samples),
			zap.Int("high_samples", tc.High.Samples),
			zap.Float64("template_correlation", rep.TemplateCorrelation))
	}

	if rep.Training, err = p.assess(PartitionTraining, train); err != nil {
		return nil, err
	}
	if rep.Validation, err = p.assess(PartitionValidation, valid); err != nil {
		return nil, err
	}
	return rep, nil
}

// split partitions the samples of ds into training and validation views.
func (p *Pipeline) split(ds *data.Dataset) (train, valid *data.Dataset, err error) {
	var ti, vi []int
	if p.cfg.Split.Stratified {
		labels, lerr := ds.Labels()
		if lerr != nil {
			return nil, nil, lerr
		}
		classes := make([]int, len(labels))
		for i, l := range labels {
			classes[i] = int(l)
		}
		ti, vi, err = loader.StratifiedSplit(classes, p.cfg.Split.Fraction, p.rng)
	} else {
		ti, vi, err = loader.Split(ds.NumSamples(), p.cfg.Split.Fraction, p.rng)
	}
	if err != nil {
		return nil, nil, err
	}
	return ds.SubsetSamples(ti), ds.SubsetSamples(vi), nil
}

// assess classifies one partition, scores it and compares the survival of
// the predicted groups.
func (p *Pipeline) assess(name string, ds *data.Dataset) (Partition, error) {
	part := Partition{Name: name}
	results, err := p.classifier.Classify(ds)
	if err != nil {
		return part, err
	}
	part.Results = results
	part.Evaluation = model.Evaluate(results)

	times := make([]float64, len(results))
	events := make([]bool, len(results))
	for i, r := range results {
		times[i], events[i] = r.Time, r.Event
	}
	groups := model.Predicted(results)
	if part.LogRank, err = survival.LogRank(times, events, groups); err != nil {
		return part, err
	}
	if part.Curves, err = survival.ByGroup(times, events, groups); err != nil {
		return part, err
	}

	ev := part.Evaluation
	p.log.Info("Assessed partition",
		zap.String("partition", name),
		zap.Int("samples", ev.N),
		zap.Float64("accuracy", ev.Accuracy),
		zap.Float64("false_high_rate", ev.FalseHighRate),
		zap.Float64("false_low_rate", ev.FalseLowRate),
		zap.Float64("label_correlation", ev.LabelCorrelation),
		zap.Float64("chisq", part.LogRank.ChiSq),
		zap.Float64("p_value", part.LogRank.P))
	return part, nil
}

func head(s []string, n int) []string {
	return s[:min(n, len(s))]
}

package model

import (
	"errors"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/stats"
)

// Template is the mean expression of one risk class over the signature genes.
type Template struct {
	Class  data.Risk
	Values []float64
	// Samples is the number of training samples averaged.
	Samples int
}

// TemplateClassifier assigns each sample to the class whose template it
// correlates with best (Pearson). Exact ties go to Low.
type TemplateClassifier struct {
	Genes []string
	Low   *Template
	High  *Template
}

// NewTemplateClassifier returns an untrained classifier.
func NewTemplateClassifier() *TemplateClassifier {
	return &TemplateClassifier{}
}

// Fit averages the expression of every class over genes. A class with a
// single sample gets that sample as its template.
func (c *TemplateClassifier) Fit(ds *data.Dataset, genes []string) error {
	if len(genes) == 0 {
		return core.Errorf(core.StageTemplate, "", core.ErrInsufficientFeatures, "no signature genes")
	}
	idx, err := ds.GeneIndex(genes)
	if err != nil {
		return retag(err, core.StageTemplate)
	}
	labels, err := ds.Labels()
	if err != nil {
		return retag(err, core.StageTemplate)
	}

	templates := [2]*Template{
		{Class: data.Low, Values: make([]float64, len(genes))},
		{Class: data.High, Values: make([]float64, len(genes))},
	}
	for j, l := range labels {
		t := templates[l]
		t.Samples++
		for k, i := range idx {
			t.Values[k] += ds.Expr.At(i, j)
		}
	}
	for _, t := range templates {
		if t.Samples == 0 {
			return core.Errorf(core.StageTemplate, t.Class.String(), core.ErrEmptyClass, "no training samples in class")
		}
		floats.Scale(1/float64(t.Samples), t.Values)
	}

	c.Genes = append([]string(nil), genes...)
	c.Low, c.High = templates[data.Low], templates[data.High]
	return nil
}

// Classify correlates every sample of ds with both templates.
func (c *TemplateClassifier) Classify(ds *data.Dataset) ([]Result, error) {
	if c.Low == nil || c.High == nil {
		return nil, errors.New("template classifier is not fitted")
	}
	idx, err := ds.GeneIndex(c.Genes)
	if err != nil {
		return nil, err
	}
	labels, err := ds.Labels()
	if err != nil {
		return nil, retag(err, core.StageClassify)
	}

	n := ds.NumSamples()
	out := make([]Result, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	perWorker := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := min(start+perWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			x := make([]float64, len(idx))
			for j := s; j < e; j++ {
				for k, i := range idx {
					x[k] = ds.Expr.At(i, j)
				}
				meta := ds.Samples[j]
				r := Result{
					ID:      meta.ID,
					CorLow:  templateCorrelation(x, c.Low.Values),
					CorHigh: templateCorrelation(x, c.High.Values),
					True:    labels[j],
					Time:    meta.Time,
					Event:   meta.Event == 1,
				}
				r.Predicted, errs[j] = decide(x, r.CorLow, r.CorHigh, meta.ID)
				out[j] = r
			}
		}(start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TemplateCorrelation is the correlation between the Low and High templates.
func (c *TemplateClassifier) TemplateCorrelation() float64 {
	if c.Low == nil || c.High == nil {
		return math.NaN()
	}
	return templateCorrelation(c.Low.Values, c.High.Values)
}

// templateCorrelation is Pearson's r, except that identical vectors always
// correlate 1 even when they are constant.
func templateCorrelation(x, t []float64) float64 {
	if len(x) == len(t) && floats.Equal(x, t) {
		return 1
	}
	return stats.Correlation(x, t)
}

// decide picks High only when its correlation is defined and strictly larger.
func decide(x []float64, corLow, corHigh float64, id string) (data.Risk, error) {
	lowOK, highOK := !math.IsNaN(corLow), !math.IsNaN(corHigh)
	if stats.IsConstant(x) && corLow != 1 && corHigh != 1 {
		return data.Low, core.Errorf(core.StageClassify, id, core.ErrDegenerateVector,
			"sample has zero variance across %d signature genes", len(x))
	}
	if !lowOK && !highOK {
		return data.Low, core.Errorf(core.StageClassify, id, core.ErrDegenerateVector,
			"correlation undefined for both templates")
	}
	if highOK && (!lowOK || corHigh > corLow) {
		return data.High, nil
	}
	return data.Low, nil
}

// retag moves a StageError raised by a helper to the calling stage.
func retag(err error, stage string) error {
	var se *core.StageError
	if errors.As(err, &se) {
		cp := *se
		cp.Stage = stage
		return &cp
	}
	return err
}

package model

import "github.com/kaniacz/cruk-summer-school-2020/pkg/data"

// Classifier is trained on labelled samples restricted to a gene list and
// then assigns a risk class to the samples of any dataset holding those genes.
type Classifier interface {
	Fit(ds *data.Dataset, genes []string) error
	Classify(ds *data.Dataset) ([]Result, error)
}

// Result is the classification of one sample.
type Result struct {
	ID        string
	CorLow    float64 // correlation with the Low template
	CorHigh   float64 // correlation with the High template
	True      data.Risk
	Predicted data.Risk
	// Time and Event carry the survival annotation along for the
	// downstream survival analysis.
	Time  float64
	Event bool
}

// Correct reports whether the prediction matches the true label.
func (r Result) Correct() bool { return r.True == r.Predicted }

// Predicted returns the predicted classes of results in order.
func Predicted(results []Result) []data.Risk {
	out := make([]data.Risk, len(results))
	for i, r := range results {
		out[i] = r.Predicted
	}
	return out
}

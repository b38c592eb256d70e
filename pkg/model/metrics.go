package model

import (
	"math"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/stats"
)

// Confusion counts predictions against true labels.
type Confusion struct {
	TrueLow   int // Low predicted Low
	FalseHigh int // Low predicted High
	FalseLow  int // High predicted Low
	TrueHigh  int // High predicted High
}

// Diagnostics are the mean template correlations within each true class.
type Diagnostics struct {
	LowCorLow   float64
	LowCorHigh  float64
	HighCorLow  float64
	HighCorHigh float64
}

// Evaluation summarises a classification table.
type Evaluation struct {
	N        int
	Accuracy float64
	// FalseHighRate is the share of true Low samples predicted High.
	FalseHighRate float64
	// FalseLowRate is the share of true High samples predicted Low.
	FalseLowRate float64
	// LabelCorrelation is Pearson's r between true and predicted labels;
	// NaN when either is constant.
	LabelCorrelation float64
	Precision        float64 // High class
	Recall           float64
	F1               float64
	Confusion        Confusion
	Diagnostics      Diagnostics
}

// Evaluate scores results. It does not modify its input.
func Evaluate(results []Result) Evaluation {
	yTrue := make([]int, len(results))
	yPred := make([]int, len(results))
	var cm Confusion
	var lowCor, highCor [2][]float64 // [true class] -> correlations
	for i, r := range results {
		yTrue[i], yPred[i] = int(r.True), int(r.Predicted)
		switch {
		case r.True == data.Low && r.Predicted == data.Low:
			cm.TrueLow++
		case r.True == data.Low:
			cm.FalseHigh++
		case r.Predicted == data.Low:
			cm.FalseLow++
		default:
			cm.TrueHigh++
		}
		lowCor[r.True] = append(lowCor[r.True], r.CorLow)
		highCor[r.True] = append(highCor[r.True], r.CorHigh)
	}

	ev := Evaluation{
		N:                len(results),
		Accuracy:         AccuracyInt(yTrue, yPred),
		FalseHighRate:    ratio(cm.FalseHigh, cm.TrueLow+cm.FalseHigh),
		FalseLowRate:     ratio(cm.FalseLow, cm.TrueHigh+cm.FalseLow),
		LabelCorrelation: stats.Correlation(toFloat(yTrue), toFloat(yPred)),
		Confusion:        cm,
		Diagnostics: Diagnostics{
			LowCorLow:   meanOrNaN(lowCor[data.Low]),
			LowCorHigh:  meanOrNaN(highCor[data.Low]),
			HighCorLow:  meanOrNaN(lowCor[data.High]),
			HighCorHigh: meanOrNaN(highCor[data.High]),
		},
	}
	ev.Precision, ev.Recall, ev.F1 = PrecisionRecallF1(yTrue, yPred)
	return ev
}

// AccuracyInt is the fraction of matching labels; NaN for no labels.
func AccuracyInt(yTrue []int, yPred []int) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// PrecisionRecallF1 scores label 1 as the positive class.
func PrecisionRecallF1(yTrue []int, yPred []int) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		if yPred[i] == 1 && yTrue[i] == 1 {
			tp++
		}
		if yPred[i] == 1 && yTrue[i] == 0 {
			fp++
		}
		if yPred[i] == 0 && yTrue[i] == 1 {
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

func meanOrNaN(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stats.Mean(x)
}

func toFloat(x []int) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

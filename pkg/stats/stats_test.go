package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantileMatchesType7(t *testing.T) {
	x := []float64{7, 1, 3, 5, 9}
	assert.InDelta(t, 1.0, Quantile(x, 0), 1e-12)
	assert.InDelta(t, 3.0, Quantile(x, 0.25), 1e-12)
	assert.InDelta(t, 5.0, Quantile(x, 0.5), 1e-12)
	assert.InDelta(t, 9.0, Quantile(x, 1), 1e-12)
	// rank 0.1*4 = 0.4 between 1 and 3
	assert.InDelta(t, 1.8, Quantile(x, 0.1), 1e-12)
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestIQR(t *testing.T) {
	assert.InDelta(t, 4.0, IQR([]float64{1, 3, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, IQR([]float64{2, 2, 2}))
}

func TestVarianceUsesSampleDenominator(t *testing.T) {
	assert.InDelta(t, 2.5, Variance([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.Equal(t, 0.0, Variance([]float64{42}))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 3.0, Median([]float64{5, 3, 1}))
	assert.Equal(t, 0.0, Median(nil))
}

func TestCorrelation(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"inverse", []float64{1, 2, 3}, []float64{3, 2, 1}, -1},
		{"orthogonal", []float64{1, 0, -1, 0}, []float64{0, 1, 0, -1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Correlation(tt.x, tt.y), 1e-12)
		})
	}
}

func TestCorrelationUndefined(t *testing.T) {
	assert.True(t, math.IsNaN(Correlation([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Correlation([]float64{1, 2}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Correlation([]float64{1}, []float64{1})))
}

func TestIsConstant(t *testing.T) {
	assert.True(t, IsConstant(nil))
	assert.True(t, IsConstant([]float64{3, 3}))
	assert.False(t, IsConstant([]float64{3, 3.0001}))
}

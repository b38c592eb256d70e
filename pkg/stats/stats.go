package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Variance computes the unbiased sample variance (n-1 denominator).
// Slices shorter than two elements have zero variance.
func Variance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.Variance(x, nil)
}

// Std computes the sample standard deviation of a slice.
func Std(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return floats.Min(x), floats.Max(x)
}

// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1
	if n&1 == 0 {
		return (cp[mid-1] + cp[mid]) * 0.5
	}
	return cp[mid]
}

// Quantile returns the p-th quantile (0 <= p <= 1) using linear interpolation
// between order statistics (Hyndman-Fan type 7, the R default).
func Quantile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	if p <= 0 {
		return cp[0]
	}
	if p >= 1 {
		return cp[n-1]
	}
	rank := p * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[upper]*weight
}

// Percentile returns the p-th percentile value of the slice (0 <= p <= 100).
func Percentile(x []float64, p float64) float64 {
	return Quantile(x, p/100)
}

// IQR returns the interquartile range Q3 - Q1.
func IQR(x []float64) float64 {
	return Quantile(x, 0.75) - Quantile(x, 0.25)
}

// IsConstant reports whether every element equals the first one.
func IsConstant(x []float64) bool {
	for _, v := range x[min(1, len(x)):] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// Correlation computes the Pearson correlation coefficient between two
// slices. It returns NaN when the lengths differ, when fewer than two points
// are given, or when either slice has zero variance.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if IsConstant(x) || IsConstant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r))
}

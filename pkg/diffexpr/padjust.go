package diffexpr

import (
	"fmt"
	"math"
	"sort"
)

// Multiple testing adjustment methods.
const (
	AdjustBH         = "BH"
	AdjustBY         = "BY"
	AdjustBonferroni = "bonferroni"
	AdjustHolm       = "holm"
	AdjustNone       = "none"
)

// AdjustP corrects p-values for multiple testing. BH and BY control the
// false discovery rate; Bonferroni and Holm the family-wise error rate.
func AdjustP(p []float64, method string) ([]float64, error) {
	n := len(p)
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	nf := float64(n)

	switch method {
	case AdjustNone:
		copy(out, p)
	case AdjustBonferroni:
		for i, v := range p {
			out[i] = math.Min(1, v*nf)
		}
	case AdjustHolm:
		sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
		running := 0.0
		for rank, i := range order {
			running = math.Max(running, (nf-float64(rank))*p[i])
			out[i] = math.Min(1, running)
		}
	case AdjustBH, AdjustBY, "":
		scale := 1.0
		if method == AdjustBY {
			scale = harmonic(n)
		}
		sort.SliceStable(order, func(a, b int) bool { return p[order[a]] > p[order[b]] })
		running := math.Inf(1)
		for k, i := range order {
			rank := nf - float64(k)
			running = math.Min(running, scale*nf/rank*p[i])
			out[i] = math.Min(1, running)
		}
	default:
		return nil, fmt.Errorf("unknown p-value adjustment %q", method)
	}
	return out, nil
}

// harmonic returns 1 + 1/2 + ... + 1/n.
func harmonic(n int) float64 {
	h := 0.0
	for k := 1; k <= n; k++ {
		h += 1 / float64(k)
	}
	return h
}

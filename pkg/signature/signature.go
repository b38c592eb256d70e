// Package signature picks the genes that make up the prognostic signature.
package signature

import (
	"fmt"
	"math"
	"sort"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/diffexpr"
)

// DefaultSize is the classic 70-gene signature.
const DefaultSize = 70

// Gene is one signature member with the statistics it was ranked on.
type Gene struct {
	Rank int // 1-based
	diffexpr.Row
}

// List is an ordered signature, most significant gene first.
type List []Gene

// IDs returns the gene identifiers in rank order.
func (l List) IDs() []string {
	out := make([]string, len(l))
	for i, g := range l {
		out[i] = g.Gene
	}
	return out
}

// Select ranks the table by adjusted p-value ascending, breaking ties on the
// larger absolute effect and then on input order, and returns the top n.
func Select(tab *diffexpr.Table, n int) (List, error) {
	if n <= 0 {
		return nil, fmt.Errorf("signature size must be positive, got %d", n)
	}
	if len(tab.Rows) < n {
		return nil, core.Errorf(core.StageSignature, "", core.ErrInsufficientFeatures,
			"requested %d genes, only %d available", n, len(tab.Rows))
	}
	order := make([]int, len(tab.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := tab.Rows[order[a]], tab.Rows[order[b]]
		pa, pb := nanLast(ra.AdjP), nanLast(rb.AdjP)
		if pa != pb {
			return pa < pb
		}
		return math.Abs(ra.LogFC) > math.Abs(rb.LogFC)
	})
	out := make(List, n)
	for k := 0; k < n; k++ {
		out[k] = Gene{Rank: k + 1, Row: tab.Rows[order[k]]}
	}
	return out, nil
}

func nanLast(p float64) float64 {
	if math.IsNaN(p) {
		return math.Inf(1)
	}
	return p
}

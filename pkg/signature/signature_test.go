package signature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/diffexpr"
)

func table() *diffexpr.Table {
	return &diffexpr.Table{Rows: []diffexpr.Row{
		{Gene: "a", AdjP: 0.20, LogFC: 1},
		{Gene: "b", AdjP: 0.01, LogFC: 0.5},
		{Gene: "c", AdjP: 0.01, LogFC: -2},
		{Gene: "d", AdjP: math.NaN(), LogFC: 5},
		{Gene: "e", AdjP: 0.05, LogFC: 1},
		{Gene: "f", AdjP: 0.05, LogFC: -1},
	}}
}

func TestSelectOrdering(t *testing.T) {
	sig, err := Select(table(), 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "e", "f", "a", "d"}, sig.IDs())
	for i, g := range sig {
		assert.Equal(t, i+1, g.Rank)
	}
	for i := 1; i < len(sig)-1; i++ {
		assert.LessOrEqual(t, sig[i-1].AdjP, sig[i].AdjP)
	}
}

func TestSelectTopN(t *testing.T) {
	sig, err := Select(table(), 2)
	require.NoError(t, err)
	assert.Len(t, sig, 2)
	assert.Equal(t, []string{"c", "b"}, sig.IDs())
	assert.Equal(t, -2.0, sig[0].LogFC)
}

func TestSelectTooFewGenes(t *testing.T) {
	_, err := Select(table(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientFeatures)
}

func TestSelectBadSize(t *testing.T) {
	_, err := Select(table(), 0)
	assert.Error(t, err)
}

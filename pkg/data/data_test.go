package data

import (
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
)

func TestParseExpression(t *testing.T) {
	in := "probe,s1,s2,s3\n" +
		"p1,1.5,NA,3\n" +
		"p2, 4,5,\n"
	expr, err := ParseExpression(strings.NewReader(in), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, expr.Genes)
	assert.Equal(t, []string{"s1", "s2", "s3"}, expr.Samples)
	assert.Equal(t, 1.5, expr.Matrix.At(0, 0))
	assert.True(t, math.IsNaN(expr.Matrix.At(0, 1)))
	assert.Equal(t, 4.0, expr.Matrix.At(1, 0))
	assert.True(t, math.IsNaN(expr.Matrix.At(1, 2)))
	assert.Equal(t, 2, expr.Matrix.CountNaN())
}

func TestParseExpressionErrors(t *testing.T) {
	tests := map[string]string{
		"no samples":   "probe\np1\n",
		"ragged row":   "probe,s1,s2\np1,1\n",
		"bad number":   "probe,s1\np1,abc\n",
		"empty header": "",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseExpression(strings.NewReader(in), ',')
			assert.Error(t, err)
		})
	}
}

func TestParseGCT(t *testing.T) {
	in := "#1.2\n2\t2\n" +
		"Name\tDescription\tA\tB\n" +
		"1007_s_at\tDDR1\t7.1\t6.9\n" +
		"1053_at\tNA\t5\t5.5\n"
	expr, err := ParseGCT(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, expr.Samples)
	assert.Equal(t, map[string]string{"1007_s_at": "DDR1"}, expr.Symbols)
	assert.Equal(t, 5.5, expr.Matrix.At(1, 1))

	_, err = ParseGCT(strings.NewReader("Name\tDescription\tA\n"))
	assert.Error(t, err)
}

func TestParseMetadata(t *testing.T) {
	in := "samplename,age,e.dmfs,t.dmfs\n" +
		"s1,40,1,1200\n" +
		"s2,51,0,3650.5\n" +
		"s3,38,NA,\n"
	meta, err := ParseMetadata(strings.NewReader(in), ',', DefaultSchema())
	require.NoError(t, err)
	require.Len(t, meta, 3)
	assert.Equal(t, SampleMeta{ID: "s1", Event: 1, Time: 1200}, meta["s1"])
	assert.Equal(t, 0, meta["s2"].Event)
	assert.False(t, meta["s3"].HasEvent())
	assert.True(t, math.IsNaN(meta["s3"].Time))
	assert.Equal(t, High, meta["s1"].Risk())
}

func TestParseMetadataErrors(t *testing.T) {
	schema := DefaultSchema()
	_, err := ParseMetadata(strings.NewReader("id,e.dmfs,t.dmfs\n"), ',', schema)
	assert.Error(t, err, "missing sample column")

	_, err = ParseMetadata(strings.NewReader("samplename,e.dmfs,t.dmfs\ns1,2,10\n"), ',', schema)
	assert.Error(t, err, "event must be 0/1")

	_, err = ParseMetadata(strings.NewReader("samplename,e.dmfs,t.dmfs\ns1,1,10\ns1,0,20\n"), ',', schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestJoin(t *testing.T) {
	expr, err := ParseExpression(strings.NewReader("probe\ts2\ts1\ts9\np1\t1\t2\t3\n"), '\t')
	require.NoError(t, err)
	meta := map[string]SampleMeta{
		"s1": {ID: "s1", Event: 1, Time: 5},
		"s2": {ID: "s2", Event: 0, Time: 9},
		"s7": {ID: "s7", Event: 0, Time: 1},
	}
	ds, err := Join(expr, meta, map[string]string{"p1": "ESR1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1", "s9"}, ds.SampleIDs())
	assert.False(t, ds.Samples[2].HasEvent())
	assert.Equal(t, "ESR1", ds.Symbol("p1"))
	assert.Equal(t, "p2", ds.Symbol("p2"))

	_, err = ds.Labels()
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestNewRejectsDuplicates(t *testing.T) {
	m := core.NewMatrix(2, 1)
	_, err := New(m, []string{"p", "p"}, []SampleMeta{{ID: "s"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
	assert.Contains(t, err.Error(), "[p]")

	_, err = New(m, []string{"p"}, []SampleMeta{{ID: "s"}}, nil)
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestSubsetsAreIndependent(t *testing.T) {
	m, err := core.FromSlice([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	ds, err := New(m, []string{"a", "b"}, []SampleMeta{{ID: "x"}, {ID: "y"}, {ID: "z"}}, nil)
	require.NoError(t, err)

	sub := ds.SubsetSamples([]int{2, 0})
	assert.Equal(t, []string{"z", "x"}, sub.SampleIDs())
	assert.Equal(t, []float64{6, 4}, sub.Expr.Row(1))
	sub.Expr.Set(0, 0, 100)
	assert.Equal(t, 1.0, ds.Expr.At(0, 0))

	genes := ds.SubsetGenes([]int{1})
	assert.Equal(t, []string{"b"}, genes.Genes)
	assert.Equal(t, 3, genes.NumSamples())

	idx, err := ds.GeneIndex([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, idx)
	_, err = ds.GeneIndex([]string{"c"})
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultSyntheticConfig()
	cfg.Genes, cfg.Samples, cfg.Informative = 12, 9, 4
	ds, err := Synthesize(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	exprPath := filepath.Join(dir, "expr.tsv.gz")
	metaPath := filepath.Join(dir, "pheno.csv")
	annotPath := filepath.Join(dir, "annot.csv")
	schema := DefaultSchema()
	require.NoError(t, WriteExpression(exprPath, ds))
	require.NoError(t, WriteMetadata(metaPath, ds, schema))
	require.NoError(t, WriteAnnotation(annotPath, ds, schema))

	loaded, err := Load(exprPath, metaPath, annotPath, schema)
	require.NoError(t, err)
	assert.Equal(t, ds.Genes, loaded.Genes)
	assert.Equal(t, ds.Symbols, loaded.Symbols)

	nanEqual := cmp.Comparer(func(a, b float64) bool {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	})
	assert.True(t, cmp.Equal(ds.Samples, loaded.Samples, nanEqual), cmp.Diff(ds.Samples, loaded.Samples, nanEqual))
	assert.True(t, cmp.Equal(ds.Expr.Data, loaded.Expr.Data, nanEqual))
}

func TestSynthesize(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	ds, err := Synthesize(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, cfg.Genes, ds.NumGenes())
	assert.Equal(t, cfg.Samples, ds.NumSamples())
	assert.Equal(t, "GENE1", ds.Symbol("P00001_at"))
	assert.Greater(t, ds.MissingFraction(), 0.0)

	_, err = Synthesize(SyntheticConfig{Genes: 3, Samples: 2, Informative: 5}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestTwoClusters(t *testing.T) {
	ds, err := TwoClusters([]float64{0, 1}, []float64{1, 0}, 3, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"L01", "L02", "L03", "H01", "H02", "H03"}, ds.SampleIDs())
	labels, err := ds.Labels()
	require.NoError(t, err)
	assert.Equal(t, []Risk{Low, Low, Low, High, High, High}, labels)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1}, ds.Expr.Row(0))
	assert.Equal(t, []bool{false, false, false, true, true, true}, ds.Events())

	_, err = TwoClusters([]float64{0}, []float64{1, 2}, 3, 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

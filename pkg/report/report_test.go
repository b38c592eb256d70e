package report

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/config"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/pipeline"
)

func runReport(t *testing.T) *pipeline.Report {
	t.Helper()
	a := make([]float64, 10)
	b := make([]float64, 10)
	for i := range a {
		a[i] = float64(i + 1)
		b[i] = float64(10 - i)
	}
	ds, err := data.TwoClusters(a, b, 10, 0.3, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Filter.Enabled = false
	cfg.Signature.Size = 6
	cfg.Split.Seed = 5
	cfg.Split.Stratified = true
	p, err := pipeline.New(cfg, nil)
	require.NoError(t, err)
	rep, err := p.Run(ds)
	require.NoError(t, err)
	return rep
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTablesAndSummary(t *testing.T) {
	rep := runReport(t)
	dir := filepath.Join(t.TempDir(), "out")

	written, err := Write(dir, rep, false)
	require.NoError(t, err)
	assert.Len(t, written, 7)

	sig := readCSV(t, filepath.Join(dir, SignatureFile))
	require.Len(t, sig, 7)
	assert.Equal(t, []string{"rank", "probe", "symbol", "logFC", "AveExpr", "t", "P.Value", "adj.P.Val", "B"}, sig[0])
	assert.Equal(t, "1", sig[1][0])
	assert.Equal(t, rep.Signature[0].Gene, sig[1][1])

	top := readCSV(t, filepath.Join(dir, TopTableFile))
	assert.Len(t, top, 11)

	cls := readCSV(t, filepath.Join(dir, ClassificationFile(pipeline.PartitionValidation)))
	assert.Len(t, cls, 1+len(rep.Validation.Results))
	assert.Equal(t, "sample", cls[0][0])

	km := readCSV(t, filepath.Join(dir, SurvivalFile(pipeline.PartitionTraining)))
	assert.Equal(t, "group", km[0][0])
	assert.Equal(t, "Low", km[1][0])
	assert.Equal(t, "1", km[1][5])

	_, err = os.Stat(filepath.Join(dir, SurvivalPlot(pipeline.PartitionTraining)))
	assert.True(t, os.IsNotExist(err))

	raw, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var sum Summary
	require.NoError(t, yaml.Unmarshal(raw, &sum))
	assert.Equal(t, int64(5), sum.Seed)
	assert.Equal(t, 20, sum.Samples.Cleaned)
	assert.Equal(t, rep.Signature.IDs(), sum.Signature)
	require.Len(t, sum.Partitions, 2)
	assert.Equal(t, pipeline.PartitionTraining, sum.Partitions[0].Name)
	assert.Equal(t, rep.Training.Evaluation.Accuracy, sum.Partitions[0].Accuracy)
	assert.InDelta(t, rep.Training.LogRank.ChiSq, sum.Partitions[0].LogRank.ChiSq, 1e-9)
	assert.Equal(t, "BH", sum.Prior.Adjust)
	assert.False(t, sum.Genes.Filtered)
}

func TestWritePlots(t *testing.T) {
	rep := runReport(t)
	dir := t.TempDir()

	written, err := Write(dir, rep, true)
	require.NoError(t, err)
	assert.Len(t, written, 11)
	for _, part := range []string{pipeline.PartitionTraining, pipeline.PartitionValidation} {
		for _, name := range []string{SurvivalPlot(part), CorrelationPlot(part)} {
			info, err := os.Stat(filepath.Join(dir, name))
			require.NoError(t, err, name)
			assert.Greater(t, info.Size(), int64(0), name)
		}
	}
}

func TestSummarizeConfusion(t *testing.T) {
	rep := runReport(t)
	sum := Summarize(rep)
	cm := rep.Validation.Evaluation.Confusion
	assert.Equal(t, [2][2]int{{cm.TrueLow, cm.FalseHigh}, {cm.FalseLow, cm.TrueHigh}}, sum.Partitions[1].Confusion)
}

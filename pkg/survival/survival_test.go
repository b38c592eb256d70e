package survival

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

func TestLogRankHandComputed(t *testing.T) {
	times := []float64{2, 4, 1, 3}
	events := []bool{true, false, true, true}
	groups := []data.Risk{data.Low, data.Low, data.High, data.High}

	res, err := LogRank(times, events, groups)
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 2}, res.N)
	assert.Equal(t, [2]float64{1, 2}, res.Observed)
	assert.InDelta(t, 5.0/3, res.Expected[data.Low], 1e-12)
	assert.InDelta(t, 4.0/3, res.Expected[data.High], 1e-12)
	assert.InDelta(t, 13.0/18, res.Variance, 1e-12)
	assert.InDelta(t, 8.0/13, res.ChiSq, 1e-12)
	assert.Equal(t, 1, res.DF)
	assert.InDelta(t, 2*distuv.UnitNormal.Survival(math.Sqrt(8.0/13)), res.P, 1e-9)
}

func TestLogRankSeparatedGroups(t *testing.T) {
	var times []float64
	var events []bool
	var groups []data.Risk
	for i := 0; i < 10; i++ {
		times = append(times, float64(1+i), float64(100+i))
		events = append(events, true, false)
		groups = append(groups, data.High, data.Low)
	}
	res, err := LogRank(times, events, groups)
	require.NoError(t, err)
	assert.Greater(t, res.ChiSq, 20.0)
	assert.Less(t, res.P, 0.05)
	assert.Equal(t, 10.0, res.Observed[data.High])
}

func TestLogRankEmptyGroup(t *testing.T) {
	_, err := LogRank([]float64{1, 2}, []bool{true, true}, []data.Risk{data.High, data.High})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDegenerateGroups)
	assert.Contains(t, err.Error(), "[Low]")
}

func TestLogRankNoEvents(t *testing.T) {
	_, err := LogRank([]float64{1, 2, 3}, []bool{false, false, false}, []data.Risk{data.Low, data.High, data.High})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDegenerateGroups)
}

func TestLogRankBadInput(t *testing.T) {
	_, err := LogRank([]float64{1, 2}, []bool{true}, []data.Risk{data.Low, data.High})
	assert.ErrorIs(t, err, core.ErrDataIntegrity)

	_, err = LogRank([]float64{1, math.NaN()}, []bool{true, true}, []data.Risk{data.Low, data.High})
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestKaplanMeier(t *testing.T) {
	c, err := KaplanMeier([]float64{2, 1, 4, 2, 3}, []bool{true, true, false, false, true})
	require.NoError(t, err)
	require.Len(t, c.Points, 5)
	assert.Equal(t, 5, c.N)

	want := []struct {
		time     float64
		surv     float64
		risk     int
		events   int
		censored int
	}{
		{0, 1, 5, 0, 0},
		{1, 0.8, 5, 1, 0},
		{2, 0.6, 4, 1, 1},
		{3, 0.3, 2, 1, 0},
		{4, 0.3, 1, 0, 1},
	}
	for i, w := range want {
		p := c.Points[i]
		assert.Equal(t, w.time, p.Time)
		assert.InDelta(t, w.surv, p.Survival, 1e-12, "t=%v", w.time)
		assert.Equal(t, w.risk, p.AtRisk, "t=%v", w.time)
		assert.Equal(t, w.events, p.Events, "t=%v", w.time)
		assert.Equal(t, w.censored, p.Censored, "t=%v", w.time)
		assert.LessOrEqual(t, p.Upper, 1.0)
		assert.LessOrEqual(t, p.Lower, p.Survival)
	}
	assert.InDelta(t, 0.6*math.Sqrt(1.0/20+1.0/12), c.Points[2].StdErr, 1e-12)
	assert.Equal(t, 1.0, c.Points[1].Upper)

	assert.Equal(t, 3.0, c.Median())
	assert.Equal(t, 1.0, c.At(0.5))
	assert.InDelta(t, 0.6, c.At(2.5), 1e-12)
	assert.InDelta(t, 0.3, c.At(100), 1e-12)
}

func TestKaplanMeierNoDrop(t *testing.T) {
	c, err := KaplanMeier([]float64{5, 6}, []bool{false, false})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(c.Median()))
	assert.Equal(t, 1.0, c.At(10))
}

func TestKaplanMeierAllDead(t *testing.T) {
	c, err := KaplanMeier([]float64{1, 2}, []bool{true, true})
	require.NoError(t, err)
	last := c.Points[len(c.Points)-1]
	assert.Equal(t, 0.0, last.Survival)
	assert.True(t, math.IsNaN(last.Lower))
}

func TestByGroup(t *testing.T) {
	curves, err := ByGroup(
		[]float64{1, 2, 3, 4},
		[]bool{true, false, true, true},
		[]data.Risk{data.Low, data.High, data.Low, data.High},
	)
	require.NoError(t, err)
	assert.Equal(t, "Low", curves[data.Low].Label)
	assert.Equal(t, 2, curves[data.High].N)
	assert.Equal(t, 0.0, curves[data.Low].At(3))

	_, err = ByGroup([]float64{1}, []bool{true}, []data.Risk{data.Low})
	assert.ErrorIs(t, err, core.ErrDegenerateGroups)
}

// Package survival compares time-to-event outcomes of the predicted risk
// groups: a two-group log-rank test and Kaplan-Meier curves.
package survival

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

// LogRankResult is the outcome of a two-group log-rank test. Arrays are
// indexed by data.Risk.
type LogRankResult struct {
	N        [2]int
	Observed [2]float64
	Expected [2]float64
	Variance float64
	ChiSq    float64
	DF       int
	P        float64
}

// LogRank tests whether the Low and High groups have the same survival. The
// statistic is chi-squared with one degree of freedom; P is its upper tail.
func LogRank(times []float64, events []bool, groups []data.Risk) (LogRankResult, error) {
	var res LogRankResult
	if err := checkInput(times, events, groups); err != nil {
		return res, err
	}
	for _, g := range groups {
		res.N[g]++
	}
	for k, n := range res.N {
		if n == 0 {
			return res, core.Errorf(core.StageSurvival, data.Risk(k).String(), core.ErrDegenerateGroups, "group is empty")
		}
	}

	order := byTime(times)
	atRisk := res.N
	for start := 0; start < len(order); {
		t := times[order[start]]
		var died, left [2]int
		end := start
		for ; end < len(order) && times[order[end]] == t; end++ {
			i := order[end]
			left[groups[i]]++
			if events[i] {
				died[groups[i]]++
			}
		}
		d := float64(died[0] + died[1])
		n := float64(atRisk[0] + atRisk[1])
		if d > 0 {
			for g := range res.Expected {
				res.Observed[g] += float64(died[g])
				res.Expected[g] += d * float64(atRisk[g]) / n
			}
			if n > 1 {
				frac := float64(atRisk[data.High]) / n
				res.Variance += d * frac * (1 - frac) * (n - d) / (n - 1)
			}
		}
		atRisk[0] -= left[0]
		atRisk[1] -= left[1]
		start = end
	}

	if res.Observed[0]+res.Observed[1] == 0 {
		return res, core.Errorf(core.StageSurvival, "", core.ErrDegenerateGroups, "no events in either group")
	}
	if res.Variance <= 0 {
		return res, core.Errorf(core.StageSurvival, "", core.ErrDegenerateGroups, "log-rank variance is zero")
	}
	diff := res.Observed[data.High] - res.Expected[data.High]
	res.ChiSq = diff * diff / res.Variance
	res.DF = 1
	res.P = distuv.ChiSquared{K: 1}.Survival(res.ChiSq)
	return res, nil
}

func checkInput(times []float64, events []bool, groups []data.Risk) error {
	if len(times) != len(events) || (groups != nil && len(groups) != len(times)) {
		return core.Errorf(core.StageSurvival, "", core.ErrDataIntegrity,
			"length mismatch: %d times, %d events, %d groups", len(times), len(events), len(groups))
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return core.Errorf(core.StageSurvival, "", core.ErrDataIntegrity, "invalid time %v at position %d", t, i)
		}
	}
	for i, g := range groups {
		if g != data.Low && g != data.High {
			return core.Errorf(core.StageSurvival, g.String(), core.ErrDataIntegrity, "unknown group at position %d", i)
		}
	}
	return nil
}

// byTime returns the indices of times in ascending order.
func byTime(times []float64) []int {
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]] < times[order[b]] })
	return order
}

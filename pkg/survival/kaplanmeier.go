package survival

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

// Point is one step of a Kaplan-Meier curve.
type Point struct {
	Time     float64
	AtRisk   int
	Events   int
	Censored int
	Survival float64
	StdErr   float64 // Greenwood
	Lower    float64
	Upper    float64
}

// Curve is a right-continuous step function starting at (0, 1).
type Curve struct {
	Label  string
	N      int
	Points []Point
}

// confidence is the level of the pointwise bands.
const confidence = 0.95

// KaplanMeier estimates the survival function. Confidence bands use the log
// transform and are clipped at 1.
func KaplanMeier(times []float64, events []bool) (*Curve, error) {
	if err := checkInput(times, events, nil); err != nil {
		return nil, err
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	c := &Curve{N: len(times)}
	c.Points = append(c.Points, Point{AtRisk: len(times), Survival: 1, Lower: 1, Upper: 1})

	order := byTime(times)
	s, greenwood := 1.0, 0.0
	atRisk := len(times)
	for start := 0; start < len(order); {
		t := times[order[start]]
		p := Point{Time: t, AtRisk: atRisk}
		end := start
		for ; end < len(order) && times[order[end]] == t; end++ {
			if events[order[end]] {
				p.Events++
			} else {
				p.Censored++
			}
		}
		if p.Events > 0 {
			n, d := float64(atRisk), float64(p.Events)
			s *= 1 - d/n
			if n > d {
				greenwood += d / (n * (n - d))
			}
		}
		p.Survival = s
		if s > 0 {
			se := math.Sqrt(greenwood)
			p.StdErr = s * se
			p.Lower = math.Exp(math.Log(s) - z*se)
			p.Upper = math.Min(1, math.Exp(math.Log(s)+z*se))
		} else {
			p.StdErr, p.Lower, p.Upper = math.NaN(), math.NaN(), math.NaN()
		}
		c.Points = append(c.Points, p)
		atRisk -= end - start
		start = end
	}
	return c, nil
}

// At evaluates the curve at time t.
func (c *Curve) At(t float64) float64 {
	s := 1.0
	for _, p := range c.Points {
		if p.Time > t {
			break
		}
		s = p.Survival
	}
	return s
}

// Median is the first time the survival drops to 0.5 or below; NaN when it
// never does.
func (c *Curve) Median() float64 {
	for _, p := range c.Points {
		if p.Survival <= 0.5 {
			return p.Time
		}
	}
	return math.NaN()
}

// ByGroup fits one curve per risk group, Low first.
func ByGroup(times []float64, events []bool, groups []data.Risk) ([2]*Curve, error) {
	var curves [2]*Curve
	if err := checkInput(times, events, groups); err != nil {
		return curves, err
	}
	var gt [2][]float64
	var ge [2][]bool
	for i, g := range groups {
		gt[g] = append(gt[g], times[i])
		ge[g] = append(ge[g], events[i])
	}
	for g := range curves {
		if len(gt[g]) == 0 {
			return curves, core.Errorf(core.StageSurvival, data.Risk(g).String(), core.ErrDegenerateGroups, "group is empty")
		}
		c, err := KaplanMeier(gt[g], ge[g])
		if err != nil {
			return curves, err
		}
		c.Label = data.Risk(g).String()
		curves[g] = c
	}
	return curves, nil
}

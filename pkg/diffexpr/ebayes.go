package diffexpr

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/stats"
)

// Prior is the scaled inverse chi-squared prior on the gene variances.
type Prior struct {
	// DF0 is the prior degrees of freedom; +Inf means every gene gets the
	// prior variance.
	DF0 float64
	// S02 is the prior variance.
	S02 float64
}

func trigamma(x float64) float64 { return mathext.Zeta(2, x) }

func tetragamma(x float64) float64 { return -2 * mathext.Zeta(3, x) }

// trigammaInverse solves trigamma(y) = x for y by Newton's method.
func trigammaInverse(x float64) float64 {
	if x > 1e7 {
		return 1 / math.Sqrt(x)
	}
	if x < 1e-6 {
		return 1 / x
	}
	y := 0.5 + 1/x
	for iter := 0; iter < 50; iter++ {
		tri := trigamma(y)
		dif := tri * (1 - tri/x) / tetragamma(y)
		y += dif
		if -dif/y < 1e-8 {
			break
		}
	}
	return y
}

// FitPrior estimates the prior by matching the first two moments of the
// log sample variances, each with df1 degrees of freedom, to a scaled F
// distribution.
func FitPrior(s2 []float64, df1 float64) Prior {
	x := make([]float64, 0, len(s2))
	for _, v := range s2 {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > -1e-15 {
			x = append(x, math.Max(v, 0))
		}
	}
	switch {
	case len(x) == 0 || df1 <= 1e-15:
		return Prior{DF0: 0, S02: math.NaN()}
	case len(x) == 1:
		return Prior{DF0: 0, S02: x[0]}
	}

	// zero variances would send the log moments to -Inf
	m := stats.Median(x)
	if m == 0 {
		m = 1
	}
	e := make([]float64, len(x))
	half := df1 / 2
	shift := mathext.Digamma(half) - math.Log(half)
	for i, v := range x {
		e[i] = math.Log(math.Max(v, 1e-5*m)) - shift
	}
	emean := stats.Mean(e)
	evar := stats.Variance(e) - trigamma(half)
	if evar <= 0 {
		return Prior{DF0: math.Inf(1), S02: math.Exp(emean)}
	}
	df0 := 2 * trigammaInverse(evar)
	s02 := math.Exp(emean + mathext.Digamma(df0/2) - math.Log(df0/2))
	return Prior{DF0: df0, S02: s02}
}

// Posterior shrinks a sample variance with df degrees of freedom towards
// the prior.
func (p Prior) Posterior(s2, df float64) float64 {
	if math.IsInf(p.DF0, 1) {
		return p.S02
	}
	if p.DF0 == 0 {
		return s2
	}
	return (p.DF0*p.S02 + df*s2) / (p.DF0 + df)
}

// studentsT returns the t distribution with nu degrees of freedom.
func studentsT(nu float64) distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
}

// twoSidedP is the two-sided tail probability of t.
func twoSidedP(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	return 2 * studentsT(df).Survival(math.Abs(t))
}

// priorCoefVariance estimates the prior variance of the non-zero contrast
// effects from the most extreme t-statistics, assuming a proportion of the
// genes is differentially expressed. All genes share df and v1 (the squared
// unscaled standard deviation).
func priorCoefVariance(t []float64, v1, df, proportion float64, lim [2]float64) float64 {
	g := len(t)
	ntarget := int(math.Ceil(proportion / 2 * float64(g)))
	if ntarget < 1 {
		return math.NaN()
	}
	p := math.Max(float64(ntarget)/float64(g), proportion)

	abs := make([]float64, g)
	for i, v := range t {
		abs[i] = math.Abs(v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(abs)))

	dist := studentsT(df)
	sum := 0.0
	for r := 1; r <= ntarget; r++ {
		tr := abs[r-1]
		p0 := 2 * dist.Survival(tr)
		ptarget := ((float64(r)-0.5)/float64(g) - (1-p)*p0) / p
		v0 := 0.0
		if ptarget > p0 {
			q := dist.Quantile(1 - ptarget/2)
			v0 = v1 * ((tr/q)*(tr/q) - 1)
		}
		sum += math.Min(math.Max(v0, lim[0]), lim[1])
	}
	return sum / float64(ntarget)
}

// logOdds is the B-statistic: the log posterior odds that a gene is
// differentially expressed.
func logOdds(t, v1, varPrior, dfTotal, proportion float64, prior Prior) float64 {
	r := (v1 + varPrior) / v1
	t2 := t * t
	var kernel float64
	if math.IsInf(prior.DF0, 1) || prior.DF0 > 1e6 {
		kernel = t2 * (1 - 1/r) / 2
	} else {
		kernel = (1 + dfTotal) / 2 * math.Log((t2+dfTotal)/(t2/r+dfTotal))
	}
	return math.Log(proportion/(1-proportion)) - math.Log(r)/2 + kernel
}

package data

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
)

// SyntheticConfig controls Synthesize.
type SyntheticConfig struct {
	Genes       int
	Samples     int
	Informative int     // genes shifted between the risk classes
	Shift       float64 // mean difference of informative genes (log2 scale)
	Noise       float64 // per-value standard deviation
	HighRate    float64 // probability that a sample is High risk
	MissingRate float64 // fraction of expression values set to NaN
	Unlabelled  float64 // fraction of samples with a missing event label
}

// DefaultSyntheticConfig mimics the size of a small microarray cohort.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Genes:       500,
		Samples:     120,
		Informative: 40,
		Shift:       1.5,
		Noise:       0.6,
		HighRate:    0.4,
		MissingRate: 0.01,
		Unlabelled:  0.03,
	}
}

// Synthesize generates a cohort where the first Informative genes separate
// the risk classes: half go up in High risk samples, half go down. High risk
// samples relapse early; Low risk samples are censored late.
func Synthesize(cfg SyntheticConfig, rng *rand.Rand) (*Dataset, error) {
	if cfg.Genes <= 0 || cfg.Samples <= 0 {
		return nil, fmt.Errorf("synthesize: need positive genes and samples, got %d x %d", cfg.Genes, cfg.Samples)
	}
	if cfg.Informative > cfg.Genes {
		return nil, fmt.Errorf("synthesize: %d informative genes exceed %d genes", cfg.Informative, cfg.Genes)
	}

	samples := make([]SampleMeta, cfg.Samples)
	for j := range samples {
		s := SampleMeta{ID: fmt.Sprintf("S%03d", j+1)}
		if rng.Float64() < cfg.HighRate {
			s.Event = 1
			s.Time = 200 + rng.ExpFloat64()*1200
		} else {
			s.Event = 0
			s.Time = 2500 + rng.Float64()*4000
		}
		if rng.Float64() < cfg.Unlabelled {
			s.Event = EventMissing
		}
		samples[j] = s
	}

	genes := make([]string, cfg.Genes)
	symbols := make(map[string]string, cfg.Genes)
	m := core.NewMatrix(cfg.Genes, cfg.Samples)
	for i := range genes {
		genes[i] = fmt.Sprintf("P%05d_at", i+1)
		symbols[genes[i]] = fmt.Sprintf("GENE%d", i+1)
		base := 6 + rng.Float64()*6
		spread := cfg.Noise * (0.5 + rng.Float64())
		shift := 0.0
		if i < cfg.Informative {
			shift = cfg.Shift
			if i%2 == 1 {
				shift = -shift
			}
		}
		for j, s := range samples {
			v := base + rng.NormFloat64()*spread
			if s.Event == 1 {
				v += shift
			}
			if rng.Float64() < cfg.MissingRate {
				v = math.NaN()
			}
			m.Set(i, j, v)
		}
	}
	return New(m, genes, samples, symbols)
}

// TwoClusters builds a fully observed dataset whose columns are drawn around
// two centre vectors: perClass Low samples around a, then perClass High
// samples around b. Low samples get late censored times and High samples
// early events.
func TwoClusters(a, b []float64, perClass int, noise float64, rng *rand.Rand) (*Dataset, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("two clusters: centre lengths differ (%d vs %d)", len(a), len(b))
	}
	g, n := len(a), 2*perClass
	m := core.NewMatrix(g, n)
	genes := make([]string, g)
	for i := range genes {
		genes[i] = fmt.Sprintf("G%02d", i+1)
	}
	samples := make([]SampleMeta, n)
	for j := 0; j < n; j++ {
		centre, s := a, SampleMeta{ID: fmt.Sprintf("L%02d", j+1), Event: 0, Time: float64(100 + j)}
		if j >= perClass {
			centre = b
			s = SampleMeta{ID: fmt.Sprintf("H%02d", j-perClass+1), Event: 1, Time: float64(1 + j - perClass)}
		}
		samples[j] = s
		for i := 0; i < g; i++ {
			m.Set(i, j, centre[i]+rng.NormFloat64()*noise)
		}
	}
	return New(m, genes, samples, nil)
}

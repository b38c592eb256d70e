// Package config provides configuration loading for signature runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
)

// Config represents a complete run configuration
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Clean     CleanConfig     `yaml:"clean"`
	Split     SplitConfig     `yaml:"split"`
	Filter    FilterConfig    `yaml:"filter"`
	DiffExpr  DiffExprConfig  `yaml:"diffexpr"`
	Signature SignatureConfig `yaml:"signature"`
	Output    OutputConfig    `yaml:"output"`
}

// InputConfig locates the input tables
type InputConfig struct {
	// Expression is the probe x sample matrix (csv, tsv, gct; optionally .gz)
	Expression string `yaml:"expression"`
	// Metadata holds per-sample event labels and times
	Metadata string `yaml:"metadata"`
	// Annotation maps probes to gene symbols (optional)
	Annotation string      `yaml:"annotation"`
	Schema     data.Schema `yaml:"schema"`
}

// CleanConfig configures sample cleaning and imputation
type CleanConfig struct {
	// Imputer is knn, mean or median
	Imputer string `yaml:"imputer"`
	// K is the number of neighbour genes used by knn
	K int `yaml:"k"`
	// RowMax is the largest missing fraction of a gene imputed from neighbours
	RowMax float64 `yaml:"row_max"`
	// ColMax is the largest missing fraction tolerated in a sample
	ColMax float64 `yaml:"col_max"`
	// MaxMissingFraction aborts the run when more of the matrix is missing
	MaxMissingFraction float64 `yaml:"max_missing_fraction"`
}

// SplitConfig configures the training/validation split
type SplitConfig struct {
	Fraction float64 `yaml:"fraction"`
	// Seed of the random split; 0 derives one from the clock
	Seed       int64 `yaml:"seed"`
	Stratified bool  `yaml:"stratified"`
}

// FilterConfig configures the non-specific variance filter
type FilterConfig struct {
	Enabled bool `yaml:"enabled"`
	// Func is iqr or var
	Func string `yaml:"func"`
	// Cutoff is the quantile of the spread a gene must exceed
	Cutoff float64 `yaml:"cutoff"`
}

// DiffExprConfig configures the moderated t-test
type DiffExprConfig struct {
	// Adjust is BH, BY, bonferroni, holm or none
	Adjust string `yaml:"adjust"`
	// Proportion of genes assumed differentially expressed
	Proportion float64 `yaml:"proportion"`
	// Workers bounds parallel fitting; 0 uses all CPUs
	Workers int `yaml:"workers"`
}

// SignatureConfig configures signature selection
type SignatureConfig struct {
	Size int `yaml:"size"`
}

// OutputConfig configures the report
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Plots bool   `yaml:"plots"`
}

var (
	imputers = map[string]bool{"knn": true, "mean": true, "median": true}
	spreads  = map[string]bool{"iqr": true, "var": true}
	adjusts  = map[string]bool{"BH": true, "BY": true, "bonferroni": true, "holm": true, "none": true}
)

// DefaultConfig returns a Config with the standard analysis settings
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Schema: data.DefaultSchema(),
		},
		Clean: CleanConfig{
			Imputer:            "knn",
			K:                  10,
			RowMax:             0.5,
			ColMax:             0.8,
			MaxMissingFraction: 0.5,
		},
		Split: SplitConfig{
			Fraction: 0.75,
		},
		Filter: FilterConfig{
			Enabled: true,
			Func:    "iqr",
			Cutoff:  0.5,
		},
		DiffExpr: DiffExprConfig{
			Adjust:     "BH",
			Proportion: 0.01,
		},
		Signature: SignatureConfig{
			Size: 70,
		},
		Output: OutputConfig{
			Dir:   "out",
			Plots: true,
		},
	}
}

// Validate checks that the configuration is usable. Input paths are not
// checked here.
func (c *Config) Validate() error {
	if !imputers[c.Clean.Imputer] {
		return fmt.Errorf("clean.imputer must be knn, mean or median, got %q", c.Clean.Imputer)
	}
	if c.Clean.Imputer == "knn" && c.Clean.K < 1 {
		return fmt.Errorf("clean.k must be at least 1")
	}
	if !unit(c.Clean.RowMax) || !unit(c.Clean.ColMax) || !unit(c.Clean.MaxMissingFraction) {
		return fmt.Errorf("clean.row_max, clean.col_max and clean.max_missing_fraction must be within [0, 1]")
	}
	if c.Split.Fraction <= 0 || c.Split.Fraction >= 1 {
		return fmt.Errorf("split.fraction must be between 0 and 1 exclusive")
	}
	if c.Filter.Enabled {
		if !spreads[c.Filter.Func] {
			return fmt.Errorf("filter.func must be iqr or var, got %q", c.Filter.Func)
		}
		if c.Filter.Cutoff < 0 || c.Filter.Cutoff >= 1 {
			return fmt.Errorf("filter.cutoff must be within [0, 1)")
		}
	}
	if !adjusts[c.DiffExpr.Adjust] {
		return fmt.Errorf("diffexpr.adjust must be one of BH, BY, bonferroni, holm, none; got %q", c.DiffExpr.Adjust)
	}
	if c.DiffExpr.Proportion <= 0 || c.DiffExpr.Proportion >= 1 {
		return fmt.Errorf("diffexpr.proportion must be between 0 and 1 exclusive")
	}
	if c.DiffExpr.Workers < 0 {
		return fmt.Errorf("diffexpr.workers must not be negative")
	}
	if c.Signature.Size < 1 {
		return fmt.Errorf("signature.size must be at least 1")
	}
	if c.Input.Schema.Sample == "" || c.Input.Schema.Event == "" || c.Input.Schema.Time == "" {
		return fmt.Errorf("input.schema sample, event and time columns are required")
	}
	return nil
}

// ValidateInput checks that the input tables are configured
func (c *Config) ValidateInput() error {
	if c.Input.Expression == "" {
		return fmt.Errorf("input.expression is required")
	}
	if c.Input.Metadata == "" {
		return fmt.Errorf("input.metadata is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
// Relative input paths are resolved against the file's directory.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&config.Input.Expression, &config.Input.Metadata, &config.Input.Annotation} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

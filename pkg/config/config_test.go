package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.75, cfg.Split.Fraction)
	assert.Equal(t, 70, cfg.Signature.Size)
	assert.Equal(t, "BH", cfg.DiffExpr.Adjust)
	assert.Equal(t, "knn", cfg.Clean.Imputer)
	assert.Equal(t, "e.dmfs", cfg.Input.Schema.Event)
	assert.True(t, cfg.Filter.Enabled)
	assert.False(t, cfg.Split.Stratified)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"unknown imputer", func(c *Config) { c.Clean.Imputer = "svd" }, true},
		{"knn without neighbours", func(c *Config) { c.Clean.K = 0 }, true},
		{"mean ignores k", func(c *Config) { c.Clean.Imputer = "mean"; c.Clean.K = 0 }, false},
		{"row max above one", func(c *Config) { c.Clean.RowMax = 1.5 }, true},
		{"split fraction one", func(c *Config) { c.Split.Fraction = 1 }, true},
		{"split fraction zero", func(c *Config) { c.Split.Fraction = 0 }, true},
		{"unknown spread", func(c *Config) { c.Filter.Func = "mad" }, true},
		{"disabled filter skips checks", func(c *Config) { c.Filter.Enabled = false; c.Filter.Func = "mad" }, false},
		{"cutoff one", func(c *Config) { c.Filter.Cutoff = 1 }, true},
		{"unknown adjustment", func(c *Config) { c.DiffExpr.Adjust = "fdr" }, true},
		{"proportion zero", func(c *Config) { c.DiffExpr.Proportion = 0 }, true},
		{"negative workers", func(c *Config) { c.DiffExpr.Workers = -1 }, true},
		{"empty signature", func(c *Config) { c.Signature.Size = 0 }, true},
		{"missing event column", func(c *Config) { c.Input.Schema.Event = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateInput(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidateInput())
	cfg.Input.Expression = "x.csv"
	assert.Error(t, cfg.ValidateInput())
	cfg.Input.Metadata = "m.csv"
	assert.NoError(t, cfg.ValidateInput())
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.yaml")

	content := `
input:
  expression: expr.tsv.gz
  metadata: /data/pheno.csv
split:
  seed: 42
  stratified: true
signature:
  size: 25
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "expr.tsv.gz"), cfg.Input.Expression)
	assert.Equal(t, "/data/pheno.csv", cfg.Input.Metadata)
	assert.Equal(t, "", cfg.Input.Annotation)
	assert.Equal(t, int64(42), cfg.Split.Seed)
	assert.True(t, cfg.Split.Stratified)
	assert.Equal(t, 25, cfg.Signature.Size)
	// untouched sections keep their defaults
	assert.Equal(t, 0.75, cfg.Split.Fraction)
	assert.Equal(t, "samplename", cfg.Input.Schema.Sample)
	assert.Equal(t, 10, cfg.Clean.K)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("split: [1, 2"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Input.Expression = "/abs/expr.csv"
	cfg.Signature.Size = 12
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "data/contracts.csv", cfg.Data.ContractsFile)
	assert.Equal(t, 0.5, cfg.Scoring.Threshold)
	assert.Equal(t, features.AllFeatures(), cfg.ScoringFeatures())
}

func TestLoadConfig_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	body := `
data:
  contracts_file: exports/sozlesmeler.csv
  output_dir: results
five_day_memberships:
  - "FIVE DAYS BİREYSEL"
scoring:
  threshold: 0.6
  features:
    - status
    - age_years_range
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "exports/sozlesmeler.csv", cfg.Data.ContractsFile)
	assert.Equal(t, "results", cfg.Data.OutputDir)
	assert.Equal(t, []string{"FIVE DAYS BİREYSEL"}, cfg.FiveDayMemberships)
	assert.Equal(t, 0.6, cfg.Scoring.Threshold)
	assert.Equal(t, []string{"status", "age_years_range"}, cfg.ScoringFeatures())
	// Untouched sections keep their defaults.
	assert.Equal(t, "data/customers.csv", cfg.Data.CustomersFile)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(c *Config) {}, ""},
		{"missing contracts", func(c *Config) { c.Data.ContractsFile = "" }, "contracts_file"},
		{"missing output dir", func(c *Config) { c.Data.OutputDir = "" }, "output_dir"},
		{"threshold too low", func(c *Config) { c.Scoring.Threshold = 0 }, "threshold"},
		{"threshold too high", func(c *Config) { c.Scoring.Threshold = 1 }, "threshold"},
		{"unknown feature", func(c *Config) { c.Scoring.Features = []string{"shoe_size"} }, "shoe_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

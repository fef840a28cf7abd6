package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
	httpiface "github.com/Kaanturkoglu/SIVAP/internal/interfaces/http"
	"github.com/Kaanturkoglu/SIVAP/internal/infrastructure/providers"
)

// DataConfig locates the exported source files.
type DataConfig struct {
	ContractsFile     string `yaml:"contracts_file"`
	CustomersFile     string `yaml:"customers_file"`
	CancellationsFile string `yaml:"cancellations_file"`
	VisitsDir         string `yaml:"visits_dir"`
	CallsDir          string `yaml:"calls_dir"`
	PriceIndexFile    string `yaml:"price_index_file"` // local fallback when the remote fetch is unavailable
	OutputDir         string `yaml:"output_dir"`
}

// ScoringConfig drives the scoring consumer.
type ScoringConfig struct {
	CoefficientsFile string `yaml:"coefficients_file"`
	AlphabetFile     string `yaml:"alphabet_file"`

	// Features selects the model's columns. Empty means every feature the
	// alphabet knows about.
	Features []string `yaml:"features"`

	Intercept float64 `yaml:"intercept"`
	Threshold float64 `yaml:"threshold"`
}

// Config is the full pipeline configuration.
type Config struct {
	Data DataConfig `yaml:"data"`

	// FiveDayMemberships lists membership product names whose usage window
	// is restricted to weekdays.
	FiveDayMemberships []string `yaml:"five_day_memberships"`

	PriceIndex providers.PriceIndexConfig `yaml:"price_index"`
	Scoring    ScoringConfig              `yaml:"scoring"`
	Server     httpiface.ServerConfig     `yaml:"server"`

	// ServeObservability starts the /health + /metrics server for the
	// duration of the run.
	ServeObservability bool `yaml:"serve_observability"`
}

// DefaultConfig returns a runnable configuration with relative data paths.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			ContractsFile:     "data/contracts.csv",
			CustomersFile:     "data/customers.csv",
			CancellationsFile: "data/cancellations.csv",
			VisitsDir:         "data/visits",
			CallsDir:          "data/calls",
			OutputDir:         "out",
		},
		PriceIndex: providers.DefaultPriceIndexConfig(),
		Scoring: ScoringConfig{
			CoefficientsFile: "artifacts/coefficients.csv",
			AlphabetFile:     "out/alphabet.json",
			Threshold:        0.5,
		},
		Server: httpiface.DefaultServerConfig(),
	}
}

// LoadConfig reads the YAML configuration, layering it over defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious misuse.
func (c *Config) Validate() error {
	if c.Data.ContractsFile == "" {
		return fmt.Errorf("data.contracts_file is required")
	}
	if c.Data.OutputDir == "" {
		return fmt.Errorf("data.output_dir is required")
	}
	if c.Scoring.Threshold <= 0 || c.Scoring.Threshold >= 1 {
		return fmt.Errorf("scoring.threshold %.3f outside (0,1)", c.Scoring.Threshold)
	}

	known := make(map[string]bool)
	for _, f := range features.AllFeatures() {
		known[f] = true
	}
	for _, f := range c.Scoring.Features {
		if !known[f] {
			return fmt.Errorf("scoring.features contains unknown feature %q", f)
		}
	}
	return nil
}

// ScoringFeatures returns the configured model columns, defaulting to every
// known feature.
func (c *Config) ScoringFeatures() []string {
	if len(c.Scoring.Features) > 0 {
		return c.Scoring.Features
	}
	return features.AllFeatures()
}

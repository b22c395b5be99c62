package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alignpool/alignpool/runner/internal/compute"
	"github.com/alignpool/alignpool/runner/internal/report"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultScenariosDir = "scenarios"
	DefaultFormat       = FormatText
)

// Report formats accepted by Validate.
const (
	FormatText = report.FormatText
	FormatJSON = report.FormatJSON
	FormatProm = report.FormatProm
)

// Config is the runner configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	// ScenariosDir is the directory scanned for *.yaml scenario definitions.
	ScenariosDir string `yaml:"scenarios_dir"`

	// Format selects the report writer: text | json | prom.
	Format string `yaml:"format"`

	// Thresholds are the band boundaries on |alignment|.
	Thresholds compute.Thresholds `yaml:"thresholds"`

	// Pool holds the default gamma and eps for scenarios that do not set
	// their own.
	Pool compute.PoolOptions `yaml:"pool"`
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		ScenariosDir: DefaultScenariosDir,
		Format:       DefaultFormat,
		Thresholds:   compute.DefaultThresholds(),
		Pool:         compute.DefaultPoolOptions(),
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and structural constraints.
func (c *Config) Validate() error {
	if c.ScenariosDir == "" {
		return fmt.Errorf("scenarios_dir is required")
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatProm:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := c.Pool.Validate(); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	return nil
}

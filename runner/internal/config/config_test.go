package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alignpool/alignpool/runner/internal/compute"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
scenarios_dir: ./data/scenarios
format: json
thresholds:
  calm_max: 0.15
  noticeable_max: 0.35
pool:
  gamma: 2
  eps: 1e-9
`
	cfg := loadFromString(t, yaml)

	if cfg.ScenariosDir != "./data/scenarios" {
		t.Errorf("scenarios_dir: got %q", cfg.ScenariosDir)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("format: got %q", cfg.Format)
	}
	if cfg.Thresholds.CalmMax != 0.15 || cfg.Thresholds.NoticeableMax != 0.35 {
		t.Errorf("thresholds: got %+v", cfg.Thresholds)
	}
	if cfg.Pool.Gamma != 2 {
		t.Errorf("pool.gamma: got %v", cfg.Pool.Gamma)
	}
	if cfg.Pool.Eps != 1e-9 {
		t.Errorf("pool.eps: got %v", cfg.Pool.Eps)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, "format: prom\n")

	if cfg.ScenariosDir != DefaultScenariosDir {
		t.Errorf("default scenarios_dir: got %q, want %q", cfg.ScenariosDir, DefaultScenariosDir)
	}
	if cfg.Thresholds != compute.DefaultThresholds() {
		t.Errorf("default thresholds: got %+v", cfg.Thresholds)
	}
	if cfg.Pool != compute.DefaultPoolOptions() {
		t.Errorf("default pool: got %+v", cfg.Pool)
	}
}

func TestLoad_PartialSectionKeepsDefaults(t *testing.T) {
	cfg := loadFromString(t, "thresholds:\n  noticeable_max: 0.5\npool:\n  gamma: 0\n")

	if cfg.Thresholds.CalmMax != compute.DefaultCalmMax {
		t.Errorf("calm_max: got %v, want default %v", cfg.Thresholds.CalmMax, compute.DefaultCalmMax)
	}
	if cfg.Thresholds.NoticeableMax != 0.5 {
		t.Errorf("noticeable_max: got %v", cfg.Thresholds.NoticeableMax)
	}
	// gamma 0 is a legitimate setting (unweighted pooling) and must survive.
	if cfg.Pool.Gamma != 0 {
		t.Errorf("pool.gamma: got %v, want 0", cfg.Pool.Gamma)
	}
	if cfg.Pool.Eps != compute.DefaultEps {
		t.Errorf("pool.eps: got %v, want default", cfg.Pool.Eps)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown format", "format: xml\n"},
		{"empty scenarios dir", "scenarios_dir: \"\"\n"},
		{"inverted thresholds", "thresholds:\n  calm_max: 0.5\n  noticeable_max: 0.4\n"},
		{"negative gamma", "pool:\n  gamma: -1\n"},
		{"bad yaml", "thresholds: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestWatch_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alignpool.yaml")
	if err := os.WriteFile(path, []byte("format: text\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 16)
	go func() {
		_ = Watch(ctx, path, func(c *Config) { got <- c })
	}()

	// Rewrites keep coming until the reload lands; the watcher's max wait
	// guarantees a callback even though each write restarts the debounce.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := os.WriteFile(path, []byte("format: json\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		select {
		case c := <-got:
			if c.Format != FormatJSON {
				t.Errorf("reloaded format = %q, want json", c.Format)
			}
			return
		case <-deadline:
			t.Fatal("onChange not called within 5s")
		case <-tick.C:
		}
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("../../../config.example.yaml")
	if err != nil {
		t.Fatalf("Load(config.example.yaml) error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("example config = %+v, want the defaults %+v", cfg, Default())
	}
}

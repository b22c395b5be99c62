package scenario

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alignpool/alignpool/pkg/types"
	"github.com/alignpool/alignpool/runner/internal/compute"
)

// repoScenarios is the scenario set shipped with the repository.
const repoScenarios = "../../../scenarios"

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// writeDefs writes name→content files into a fresh temp dir.
func writeDefs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// --- Parse / New ---

func TestParse_Weighted(t *testing.T) {
	def, err := Parse([]byte(`
name: two sensors
kind: weighted
gamma: 2
pairs:
  - {m: 12.4, a: 0.80}
  - {m: 12.9, a: -0.10}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if def.Name != "two sensors" || def.Kind != KindWeighted {
		t.Errorf("Parse() = %+v", def)
	}
	if def.Gamma == nil || *def.Gamma != 2 {
		t.Errorf("gamma = %v, want 2", def.Gamma)
	}
	if def.Eps != nil {
		t.Errorf("eps = %v, want unset", *def.Eps)
	}
	want := []types.Pair{{Magnitude: 12.4, Alignment: 0.80}, {Magnitude: 12.9, Alignment: -0.10}}
	if len(def.Pairs) != len(want) {
		t.Fatalf("pairs = %v, want %v", def.Pairs, want)
	}
	for i := range want {
		if def.Pairs[i] != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, def.Pairs[i], want[i])
		}
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("pair:\n  - {m: 1, a: 0.1}\n")); err == nil {
		t.Fatal("Parse() with unknown key: expected error, got nil")
	}
}

func TestParse_Empty(t *testing.T) {
	def, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if len(def.Pairs) != 0 {
		t.Errorf("Parse(nil) pairs = %v", def.Pairs)
	}
}

func TestNew_Errors(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name string
		def  Definition
	}{
		{"unknown kind", Definition{Kind: "median"}},
		{"unknown magnitude mode", Definition{Magnitude: "max"}},
		{"negative gamma", Definition{Gamma: &neg}},
		{"weights on weighted", Definition{Kind: KindWeighted, Weights: []types.Pair{{Magnitude: 1}}}},
		{"pairs on product", Definition{Kind: KindProduct, Pairs: []types.Pair{{Magnitude: 1}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New("x", tc.def, compute.DefaultPoolOptions()); err == nil {
				t.Fatal("New() expected error, got nil")
			}
		})
	}
}

func TestWeighted_Run(t *testing.T) {
	s, err := New("w", Definition{Pairs: []types.Pair{
		{Magnitude: 12.4, Alignment: 0.80},
		{Magnitude: 12.9, Alignment: 0.10},
	}}, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Alignment == nil || !almostEqual(*res.Alignment, 0.5296, 1e-3) {
		t.Errorf("alignment = %v, want ≈ 0.5296", res.Alignment)
	}
	if res.Magnitude == nil || *res.Magnitude != 12.65 {
		t.Errorf("magnitude = %v, want 12.65", res.Magnitude)
	}
}

func TestWeighted_GammaOverride(t *testing.T) {
	zero := 0.0
	def := Definition{Gamma: &zero, Magnitude: MagnitudeNone, Pairs: []types.Pair{
		{Magnitude: 1, Alignment: 0.8},
		{Magnitude: 1000, Alignment: 0.1},
	}}
	s, err := New("g", def, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := compute.Inverse((compute.Forward(0.8) + compute.Forward(0.1)) / 2)
	if !almostEqual(*res.Alignment, want, 1e-12) {
		t.Errorf("alignment = %v, want unweighted %v", *res.Alignment, want)
	}
	if res.Magnitude != nil {
		t.Errorf("magnitude = %v, want none", *res.Magnitude)
	}
}

func TestWeighted_EmptyHasNoAlignment(t *testing.T) {
	s, err := New("empty", Definition{}, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Alignment != nil || res.Magnitude != nil {
		t.Errorf("Run() = %+v, want no outputs", res)
	}
}

func TestWeighted_NonFiniteFails(t *testing.T) {
	s, _ := New("nan", Definition{Pairs: []types.Pair{{Magnitude: 1, Alignment: math.NaN()}}}, compute.DefaultPoolOptions())
	if _, err := s.Run(context.Background()); !errors.Is(err, compute.ErrInvalidInput) {
		t.Errorf("Run() error = %v, want ErrInvalidInput", err)
	}
}

func TestWeighted_HugeMagnitudes(t *testing.T) {
	dir := writeDefs(t, map[string]string{
		"huge.yaml": `
gamma: 2
pairs:
  - {m: 1e200, a: 0.5}
  - {m: 1.0, a: 0.1}
`,
		"sum_overflow.yaml": `
magnitude: sum
pairs:
  - {m: 1.7e308, a: 0.2}
  - {m: 1.7e308, a: 0.5}
`,
	})
	scenarios, err := Discover(dir, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	res, err := scenarios[0].Run(context.Background())
	if err != nil {
		t.Fatalf("huge: Run() error = %v", err)
	}
	if !almostEqual(*res.Alignment, 0.5, 1e-9) {
		t.Errorf("huge: alignment = %v, want 0.5 (the 1e200 pair dominates)", *res.Alignment)
	}

	if _, err := scenarios[1].Run(context.Background()); !errors.Is(err, compute.ErrInvalidInput) {
		t.Errorf("sum_overflow: Run() error = %v, want ErrInvalidInput", err)
	}
}

func TestProduct_Run(t *testing.T) {
	s, err := New("mac", Definition{
		Kind: KindProduct,
		Weights: []types.Pair{
			{Magnitude: 0.5, Alignment: 0.20},
			{Magnitude: -1.2, Alignment: 0.10},
			{Magnitude: 0.8, Alignment: 0.60},
		},
		Inputs: []types.Pair{
			{Magnitude: 2.0, Alignment: 0.30},
			{Magnitude: -1.0, Alignment: 0.70},
			{Magnitude: 1.5, Alignment: -0.10},
		},
	}, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !almostEqual(*res.Alignment, 0.6052611415475923, 1e-9) {
		t.Errorf("alignment = %v, want ≈ 0.6053", *res.Alignment)
	}
	if *res.Magnitude != 3.4 {
		t.Errorf("magnitude = %v, want exactly 3.4", *res.Magnitude)
	}
}

func TestProduct_LengthMismatch(t *testing.T) {
	s, err := New("mac", Definition{
		Kind:    KindProduct,
		Weights: []types.Pair{{Magnitude: 1, Alignment: 0.1}},
	}, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Run(context.Background()); !errors.Is(err, compute.ErrInvalidInput) {
		t.Errorf("Run() error = %v, want ErrInvalidInput", err)
	}
}

// --- Discover ---

func TestDiscover_SortedAndFiltered(t *testing.T) {
	dir := writeDefs(t, map[string]string{
		"b_second.yaml": "pairs: [{m: 1, a: 0.1}]\n",
		"a_first.yml":   "pairs: [{m: 1, a: 0.2}]\n",
		"c_third.YAML":  "pairs: [{m: 1, a: 0.3}]\n",
		"notes.txt":     "ignore me",
		".hidden.yaml":  "pairs: []\n",
	})
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o700); err != nil {
		t.Fatal(err)
	}

	got, err := Discover(dir, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{"a_first.yml", "b_second.yaml", "c_third.YAML"}
	if len(got) != len(want) {
		t.Fatalf("Discover() returned %d scenarios, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.ID() != want[i] {
			t.Errorf("scenario %d = %q, want %q", i, s.ID(), want[i])
		}
	}
}

func TestDiscover_StableOrder(t *testing.T) {
	first, err := Discover(repoScenarios, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	second, err := Discover(repoScenarios, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	for i := range first {
		if first[i].ID() != second[i].ID() {
			t.Fatalf("order differs at %d: %q vs %q", i, first[i].ID(), second[i].ID())
		}
	}
}

func TestDiscover_Missing(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), compute.DefaultPoolOptions())
	if !errors.Is(err, ErrScenariosNotFound) {
		t.Errorf("Discover(missing) error = %v, want ErrScenariosNotFound", err)
	}
}

func TestDiscover_NotADirectory(t *testing.T) {
	dir := writeDefs(t, map[string]string{"file.yaml": ""})
	_, err := Discover(filepath.Join(dir, "file.yaml"), compute.DefaultPoolOptions())
	if !errors.Is(err, ErrScenariosNotFound) {
		t.Errorf("Discover(file) error = %v, want ErrScenariosNotFound", err)
	}
}

func TestFileScenario_MalformedFailsOnRun(t *testing.T) {
	dir := writeDefs(t, map[string]string{
		"bad.yaml":  "pairs: [oops\n",
		"good.yaml": "pairs: [{m: 2, a: 0.3}]\n",
	})
	scs, err := Discover(dir, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v, want malformed files to pass discovery", err)
	}
	if _, err := scs[0].Run(context.Background()); err == nil {
		t.Error("bad.yaml Run() expected error, got nil")
	}
	res, err := scs[1].Run(context.Background())
	if err != nil {
		t.Fatalf("good.yaml Run() error = %v", err)
	}
	if !almostEqual(*res.Alignment, 0.3, 1e-12) {
		t.Errorf("good.yaml alignment = %v, want 0.3", *res.Alignment)
	}
}

func TestFileScenario_UsesDefaults(t *testing.T) {
	dir := writeDefs(t, map[string]string{
		"s.yaml": "magnitude: none\npairs: [{m: 1, a: 0.8}, {m: 100, a: 0.1}]\n",
	})
	scs, err := Discover(dir, compute.PoolOptions{Gamma: 0})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	res, err := scs[0].Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := compute.Inverse((compute.Forward(0.8) + compute.Forward(0.1)) / 2)
	if !almostEqual(*res.Alignment, want, 1e-12) {
		t.Errorf("alignment = %v, want gamma=0 result %v", *res.Alignment, want)
	}
}

func TestFileScenario_CancelledContext(t *testing.T) {
	dir := writeDefs(t, map[string]string{"s.yaml": "pairs: [{m: 1, a: 0.1}]\n"})
	scs, _ := Discover(dir, compute.DefaultPoolOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scs[0].Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(cancelled) error = %v, want context.Canceled", err)
	}
}

// TestRepoScenarios pins the values of the shipped scenario set.
func TestRepoScenarios(t *testing.T) {
	want := []struct {
		id        string
		magnitude float64 // NaN: the scenario exposes no magnitude
		alignment float64
	}{
		{"scenario_01_two_sensors.yaml", 12.65, 0.529614641212414},
		{"scenario_02_kpi_rollup.yaml", 110, 0.41285103748914176},
		{"scenario_03_three_sensors.yaml", 9.766666666666667, 0.3359256909704232},
		{"scenario_04_regression_outlier.yaml", 17.875, 0.6896872862106833},
		{"scenario_05_imaging_focus_burst.yaml", 78, 0.2711951681058787},
		{"scenario_06_activation_energy.yaml", 53, 0.4598012884509349},
		{"scenario_07_mac_chain.yaml", math.NaN(), 0.6052611415475923},
		{"scenario_08_forecast.yaml", 100, 0.3863191589260109},
		{"scenario_09_climate_faulty_sensor.yaml", 31.225, 0.6383178518083686},
		{"scenario_10_robotics_torque.yaml", 13.833333333333334, 0.48119469845110774},
	}

	scs, err := Discover(repoScenarios, compute.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(scs) != len(want) {
		t.Fatalf("Discover() returned %d scenarios, want %d", len(scs), len(want))
	}
	for i, tc := range want {
		t.Run(tc.id, func(t *testing.T) {
			s := scs[i]
			if s.ID() != tc.id {
				t.Fatalf("ID = %q, want %q", s.ID(), tc.id)
			}
			res, err := s.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Alignment == nil || !almostEqual(*res.Alignment, tc.alignment, 1e-9) {
				t.Errorf("alignment = %v, want %v", res.Alignment, tc.alignment)
			}
			if math.IsNaN(tc.magnitude) {
				if res.Magnitude != nil {
					t.Errorf("magnitude = %v, want none", *res.Magnitude)
				}
				return
			}
			if res.Magnitude == nil || !almostEqual(*res.Magnitude, tc.magnitude, 1e-9) {
				t.Errorf("magnitude = %v, want %v", res.Magnitude, tc.magnitude)
			}
		})
	}
}

func TestNewFunc(t *testing.T) {
	s := NewFunc("fn", func(context.Context) (*types.Result, error) {
		return types.AlignmentOnly(-0.25), nil
	})
	if s.ID() != "fn" {
		t.Errorf("ID() = %q", s.ID())
	}
	res, err := s.Run(context.Background())
	if err != nil || *res.Alignment != -0.25 {
		t.Errorf("Run() = %+v, %v", res, err)
	}
}

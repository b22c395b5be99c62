package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alignpool/alignpool/pkg/types"
	"github.com/alignpool/alignpool/runner/internal/compute"
)

// ErrScenariosNotFound means the scenario directory does not exist or is not
// a directory. It is fatal for a run.
var ErrScenariosNotFound = errors.New("scenario: scenarios directory not found")

// Scenario kinds.
const (
	KindWeighted = "weighted"
	KindProduct  = "product"
)

// Magnitude modes: how a scenario derives its classical magnitude.
const (
	MagnitudeMean = "mean"
	MagnitudeSum  = "sum"
	MagnitudeNone = "none"
)

// Scenario is one independently executable unit.
type Scenario interface {
	ID() string
	Run(ctx context.Context) (*types.Result, error)
}

// Definition is the YAML form of a scenario.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Kind is weighted (default) or product.
	Kind string `yaml:"kind"`

	// Magnitude is mean | sum | none. Defaults to mean for weighted and sum
	// for product scenarios.
	Magnitude string `yaml:"magnitude"`

	// Gamma and Eps override the runner's pool defaults when set.
	Gamma *float64 `yaml:"gamma"`
	Eps   *float64 `yaml:"eps"`

	// Pairs are the inputs of a weighted scenario.
	Pairs []types.Pair `yaml:"pairs"`

	// Weights and Inputs are the element-wise operands of a product scenario.
	Weights []types.Pair `yaml:"weights"`
	Inputs  []types.Pair `yaml:"inputs"`
}

// Parse decodes a YAML definition. Unknown keys are rejected so that a typo
// such as "pair:" fails loudly instead of producing an empty scenario.
func Parse(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return Definition{}, fmt.Errorf("parse yaml: %w", err)
	}
	return def, nil
}

// New returns the Scenario for def. defaults supplies gamma and eps when the
// definition does not set them.
func New(id string, def Definition, defaults compute.PoolOptions) (Scenario, error) {
	opts := defaults
	if def.Gamma != nil {
		opts.Gamma = *def.Gamma
	}
	if def.Eps != nil {
		opts.Eps = *def.Eps
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", id, err)
	}

	switch def.Kind {
	case KindWeighted, "":
		mode, err := magnitudeMode(def.Magnitude, MagnitudeMean)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", id, err)
		}
		if len(def.Weights) > 0 || len(def.Inputs) > 0 {
			return nil, fmt.Errorf("scenario %q: weights/inputs are only valid for kind %q", id, KindProduct)
		}
		return &weightedScenario{id: id, pairs: def.Pairs, opts: opts, magnitude: mode}, nil
	case KindProduct:
		mode, err := magnitudeMode(def.Magnitude, MagnitudeSum)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", id, err)
		}
		if len(def.Pairs) > 0 {
			return nil, fmt.Errorf("scenario %q: pairs are only valid for kind %q", id, KindWeighted)
		}
		return &productScenario{id: id, weights: def.Weights, inputs: def.Inputs, opts: opts, magnitude: mode}, nil
	default:
		return nil, fmt.Errorf("scenario %q: unsupported kind %q", id, def.Kind)
	}
}

func magnitudeMode(s, fallback string) (string, error) {
	switch s {
	case "":
		return fallback, nil
	case MagnitudeMean, MagnitudeSum, MagnitudeNone:
		return s, nil
	default:
		return "", fmt.Errorf("unknown magnitude mode %q", s)
	}
}

// classical computes the magnitude a scenario reports next to its pooled
// alignment. ok is false for MagnitudeNone.
func classical(mode string, pairs []types.Pair) (m float64, ok bool, err error) {
	switch mode {
	case MagnitudeMean:
		m, err = compute.MeanMagnitude(pairs)
	case MagnitudeSum:
		m, err = compute.SumMagnitude(pairs)
	default:
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if math.IsInf(m, 0) {
		return 0, false, fmt.Errorf("%w: %s magnitude overflows", compute.ErrInvalidInput, mode)
	}
	return m, true, nil
}

// pooled validates pairs and returns the Result for them under mode and opts.
// An empty pair set yields a Result with neither output.
func pooled(pairs []types.Pair, mode string, opts compute.PoolOptions) (*types.Result, error) {
	if len(pairs) == 0 {
		return &types.Result{}, nil
	}
	if err := compute.ValidatePairs(pairs); err != nil {
		return nil, err
	}
	a := compute.Pool(pairs, opts)
	if math.IsNaN(a) || math.Abs(a) >= 1 {
		return nil, fmt.Errorf("%w: pooled alignment %v is outside (-1, 1)", compute.ErrInvalidInput, a)
	}
	res := types.AlignmentOnly(a)
	m, ok, err := classical(mode, pairs)
	if err != nil {
		return nil, err
	}
	if ok {
		res.Magnitude = &m
	}
	return res, nil
}

// Func adapts a plain function to the Scenario interface.
type Func struct {
	id string
	fn func(ctx context.Context) (*types.Result, error)
}

// NewFunc returns a Scenario that calls fn.
func NewFunc(id string, fn func(ctx context.Context) (*types.Result, error)) *Func {
	return &Func{id: id, fn: fn}
}

// ID implements Scenario.
func (f *Func) ID() string { return f.id }

// Run implements Scenario.
func (f *Func) Run(ctx context.Context) (*types.Result, error) { return f.fn(ctx) }

// fileScenario is a discovered definition file. It is read and parsed on Run.
type fileScenario struct {
	path     string
	defaults compute.PoolOptions
}

func (s *fileScenario) ID() string { return filepath.Base(s.path) }

func (s *fileScenario) Run(ctx context.Context) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ID(), err)
	}
	sc, err := New(s.ID(), def, s.defaults)
	if err != nil {
		return nil, err
	}
	return sc.Run(ctx)
}

// IsDefinitionFile reports whether name looks like a scenario definition:
// a visible *.yaml or *.yml file.
func IsDefinitionFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Discover returns one Scenario per definition file in dir, ordered
// lexicographically by file name. defaults is handed to each scenario for
// definitions that do not set gamma or eps.
func Discover(dir string, defaults compute.PoolOptions) ([]Scenario, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScenariosNotFound, dir)
		}
		return nil, fmt.Errorf("scenario: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrScenariosNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsDefinitionFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		out = append(out, &fileScenario{path: filepath.Join(dir, name), defaults: defaults})
	}
	return out, nil
}

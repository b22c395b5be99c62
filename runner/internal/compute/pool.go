package compute

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/alignpool/alignpool/pkg/types"
)

// ClampEpsilon keeps clamped alignments strictly inside (-1, 1) so that the
// forward transform stays finite.
const ClampEpsilon = 1e-6

// Defaults for PoolOptions.
const (
	DefaultGamma = 1.0
	DefaultEps   = 1e-12
)

// ErrInvalidInput is returned by ValidatePairs and PoolOptions.Validate.
var ErrInvalidInput = errors.New("compute: invalid input")

// PoolOptions controls the weighting of Pool.
type PoolOptions struct {
	// Gamma is the weighting exponent: w = |m|^Gamma.
	// 0 gives an unweighted mean in transformed space, 1 weights linearly by
	// magnitude, >1 lets large-magnitude sources dominate.
	Gamma float64 `yaml:"gamma" json:"gamma"`

	// Eps floors the total weight so an all-zero weight set does not divide
	// by zero. Zero means DefaultEps.
	Eps float64 `yaml:"eps" json:"eps"`
}

// DefaultPoolOptions returns gamma=1, eps=1e-12.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{Gamma: DefaultGamma, Eps: DefaultEps}
}

// Validate rejects option values Pool cannot give a meaning to.
func (o PoolOptions) Validate() error {
	if math.IsNaN(o.Gamma) || math.IsInf(o.Gamma, 0) || o.Gamma < 0 {
		return fmt.Errorf("%w: gamma must be a finite value >= 0, got %v", ErrInvalidInput, o.Gamma)
	}
	if math.IsNaN(o.Eps) || math.IsInf(o.Eps, 0) || o.Eps < 0 {
		return fmt.Errorf("%w: eps must be a finite value >= 0, got %v", ErrInvalidInput, o.Eps)
	}
	return nil
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.Eps <= 0 {
		o.Eps = DefaultEps
	}
	return o
}

// Clamp restricts a to [-1+ClampEpsilon, 1-ClampEpsilon].
func Clamp(a float64) float64 {
	return ClampEps(a, ClampEpsilon)
}

// ClampEps restricts a to [-1+eps, 1-eps]. Out-of-range input is clipped
// silently. NaN passes through unchanged.
func ClampEps(a, eps float64) float64 {
	lo, hi := -1+eps, 1-eps
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Forward maps a clamped alignment onto the real line: atanh(a), written out
// as 0.5*ln((1+a)/(1-a)). It is odd and strictly increasing.
func Forward(a float64) float64 {
	a = Clamp(a)
	return 0.5 * math.Log((1+a)/(1-a))
}

// Inverse maps a transformed value back into (-1, 1) with tanh.
func Inverse(u float64) float64 {
	return math.Tanh(u)
}

// Pool combines pairs into one alignment in (-1, 1).
//
// Each alignment is clamped and transformed, weighted by |m|^gamma, averaged,
// and transformed back. When every weight is zero the denominator floors at
// eps and the result is driven by rounding; that is defined behaviour, not an
// error. An empty pairs slice returns 0.
//
// If |m|^gamma or the accumulated sums overflow, the weights are recomputed
// relative to the largest |m|, which leaves their ratios and so the result
// unchanged.
func Pool(pairs []types.Pair, opts PoolOptions) float64 {
	opts = opts.withDefaults()

	sumU, sumW := accumulate(pairs, opts.Gamma, 1)
	if !finite(sumU) || !finite(sumW) {
		scale := maxAbsMagnitude(pairs)
		if scale > 0 && finite(scale) {
			// The largest pair weighs 1, so sumW >= 1 and eps cannot apply.
			sumU, sumW = accumulate(pairs, opts.Gamma, scale)
			return Inverse(sumU / sumW)
		}
	}
	return Inverse(sumU / math.Max(sumW, opts.Eps))
}

// accumulate returns Σw·u and Σw with w = (|m|/scale)^gamma.
func accumulate(pairs []types.Pair, gamma, scale float64) (sumU, sumW float64) {
	for _, p := range pairs {
		u := Forward(p.Alignment)
		w := math.Pow(math.Abs(p.Magnitude)/scale, gamma)
		sumU += w * u
		sumW += w
	}
	return sumU, sumW
}

func maxAbsMagnitude(pairs []types.Pair) float64 {
	var m float64
	for _, p := range pairs {
		m = math.Max(m, math.Abs(p.Magnitude))
	}
	return m
}

// Combine adds two alignments in transformed space:
// tanh(atanh(aw) + atanh(ax)).
func Combine(aw, ax float64) float64 {
	return Inverse(Forward(aw) + Forward(ax))
}

// CombinePairs builds element-wise products of w and x: the magnitudes are
// multiplied (in decimal, like the classical aggregates) and the alignments
// combined with Combine. The products can then be pooled like any other pair
// set.
func CombinePairs(w, x []types.Pair) ([]types.Pair, error) {
	if len(w) != len(x) {
		return nil, fmt.Errorf("%w: operand lengths differ (%d vs %d)", ErrInvalidInput, len(w), len(x))
	}
	if err := ValidatePairs(w); err != nil {
		return nil, err
	}
	if err := ValidatePairs(x); err != nil {
		return nil, err
	}
	out := make([]types.Pair, len(w))
	for i := range w {
		m := decimal.NewFromFloat(w[i].Magnitude).Mul(decimal.NewFromFloat(x[i].Magnitude))
		out[i] = types.Pair{
			Magnitude: m.InexactFloat64(),
			Alignment: Combine(w[i].Alignment, x[i].Alignment),
		}
	}
	return out, nil
}

// ValidatePairs rejects NaN or infinite magnitudes and alignments. Pool
// itself does not check; callers that take untrusted input validate first.
func ValidatePairs(pairs []types.Pair) error {
	for i, p := range pairs {
		if !finite(p.Magnitude) {
			return fmt.Errorf("%w: pair %d: magnitude %v is not finite", ErrInvalidInput, i, p.Magnitude)
		}
		if !finite(p.Alignment) {
			return fmt.Errorf("%w: pair %d: alignment %v is not finite", ErrInvalidInput, i, p.Alignment)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

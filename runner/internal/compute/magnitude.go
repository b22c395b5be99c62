package compute

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alignpool/alignpool/pkg/types"
)

// MeanMagnitude returns the straight (unweighted, sign-preserving) mean of the
// pair magnitudes. The sum is taken in decimal so that decimal inputs such as
// 12.4 and 12.9 average to exactly 12.65.
func MeanMagnitude(pairs []types.Pair) (float64, error) {
	if len(pairs) == 0 {
		return 0, fmt.Errorf("%w: mean of an empty pair set", ErrInvalidInput)
	}
	sum, err := sumMagnitudes(pairs)
	if err != nil {
		return 0, err
	}
	return sum.Div(decimal.NewFromInt(int64(len(pairs)))).InexactFloat64(), nil
}

// SumMagnitude returns the signed sum of the pair magnitudes. An empty set
// sums to 0.
func SumMagnitude(pairs []types.Pair) (float64, error) {
	sum, err := sumMagnitudes(pairs)
	if err != nil {
		return 0, err
	}
	return sum.InexactFloat64(), nil
}

func sumMagnitudes(pairs []types.Pair) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, p := range pairs {
		// decimal.NewFromFloat panics on NaN and Inf.
		if !finite(p.Magnitude) {
			return decimal.Zero, fmt.Errorf("%w: pair %d: magnitude %v is not finite", ErrInvalidInput, i, p.Magnitude)
		}
		sum = sum.Add(decimal.NewFromFloat(p.Magnitude))
	}
	return sum, nil
}

package scenario

import (
	"context"

	"github.com/alignpool/alignpool/pkg/types"
	"github.com/alignpool/alignpool/runner/internal/compute"
)

// productScenario is a multiply-accumulate chain: each weight is combined
// with its input (magnitudes multiplied, alignments added in transformed
// space) and the products are pooled, weighted by |product magnitude|.
type productScenario struct {
	id        string
	weights   []types.Pair
	inputs    []types.Pair
	opts      compute.PoolOptions
	magnitude string
}

func (s *productScenario) ID() string { return s.id }

// Run reports the pooled product alignment and, by default, the signed sum
// of the product magnitudes.
func (s *productScenario) Run(_ context.Context) (*types.Result, error) {
	products, err := compute.CombinePairs(s.weights, s.inputs)
	if err != nil {
		return nil, err
	}
	return pooled(products, s.magnitude, s.opts)
}

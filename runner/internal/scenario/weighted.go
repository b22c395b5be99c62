package scenario

import (
	"context"

	"github.com/alignpool/alignpool/pkg/types"
	"github.com/alignpool/alignpool/runner/internal/compute"
)

// weightedScenario pools a fixed list of pairs.
type weightedScenario struct {
	id        string
	pairs     []types.Pair
	opts      compute.PoolOptions
	magnitude string
}

func (s *weightedScenario) ID() string { return s.id }

// Run pools the pairs and, unless the magnitude mode is none, reports their
// classical mean (or sum) alongside.
func (s *weightedScenario) Run(_ context.Context) (*types.Result, error) {
	return pooled(s.pairs, s.magnitude, s.opts)
}

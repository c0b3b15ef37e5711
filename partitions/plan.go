package partitions

import (
	"fmt"

	"github.com/fdtdgo/decomp/fragments"
)

// Request describes one complete partitioning run: the domain and its cost
// contributors, the target chunk and worker counts, and the stencil's
// minimum chunk extent
type Request struct {
	Spec fragments.DomainSpec

	NumChunks  int
	NumWorkers int

	// MinSize is the per-axis minimum chunk extent in cells, supplied by
	// the engine from its stencil halo width
	MinSize []int

	AllowIdleWorkers bool

	// Strategy overrides the default GreedyLoaded owner assignment
	Strategy AssignmentStrategy
}

// Plan runs the whole pipeline: fragment statistics, bisection guided by the
// chunk balancer, flattening, owner assignment, and neighbor derivation.
// It is a pure function of the request; concurrent calls with unrelated
// requests share no state and identical requests produce identical layouts.
func Plan(req Request) (*ChunkLayout, error) {
	stats, err := fragments.NewFragmentStats(req.Spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}

	builder := &BisectionBuilder{Cost: stats, MinSize: req.MinSize}
	tree, err := builder.Build(req.Spec.Bounds, req.NumChunks)
	if err != nil {
		return nil, err
	}

	return NewChunkLayout(tree, stats, LayoutOptions{
		NumWorkers:       req.NumWorkers,
		AllowIdleWorkers: req.AllowIdleWorkers,
		Periodic:         req.Spec.Periodic,
		Strategy:         req.Strategy,
	})
}

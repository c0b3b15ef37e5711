package partitions

import (
	"fmt"
	"sort"

	"github.com/notargets/gocfd/utils"

	"github.com/fdtdgo/decomp/geom"
)

// commMatrix stores the dense chunk-pair shared-face-area table
type commMatrix struct {
	m utils.Matrix
	n int
}

func newCommMatrix(n int) commMatrix {
	return commMatrix{m: utils.NewMatrix(n, n), n: n}
}

func (c commMatrix) at(i, j int) int {
	if c.n == 0 || i < 0 || j < 0 || i >= c.n || j >= c.n {
		return 0
	}
	return int(c.m.Data()[i*c.n+j])
}

func (c commMatrix) set(i, j, v int) {
	c.m.Data()[i*c.n+j] = float64(v)
}

// AssignmentStrategy maps chunk costs onto worker ranks. Implementations
// must be deterministic: the same costs and worker count always yield the
// same owners.
type AssignmentStrategy interface {
	// Assign returns the owner rank for each chunk, indexed like costs
	Assign(costs []float64, numWorkers int) []int
}

// GreedyLoaded assigns chunks in descending cost order to the currently
// least-loaded worker, recomputing loads after every assignment. This
// bin-packing heuristic bounds the maximum worker load far better than
// round-robin when costs are skewed or the worker count does not divide the
// chunk count.
type GreedyLoaded struct{}

func (GreedyLoaded) Assign(costs []float64, numWorkers int) []int {
	order := make([]int, len(costs))
	for i := range order {
		order[i] = i
	}
	// Descending cost; equal costs keep ascending chunk ID for determinism
	sort.SliceStable(order, func(a, b int) bool {
		return costs[order[a]] > costs[order[b]]
	})

	owners := make([]int, len(costs))
	loads := make([]float64, numWorkers)
	for _, ci := range order {
		best := 0
		for w := 1; w < numWorkers; w++ {
			if loads[w] < loads[best] {
				best = w
			}
		}
		owners[ci] = best
		loads[best] += costs[ci]
	}
	return owners
}

// RoundRobinAssign distributes chunks cyclically in layout order,
// disregarding cost. Kept as the baseline the greedy strategy is measured
// against and for engines that want strictly positional ownership.
type RoundRobinAssign struct{}

func (RoundRobinAssign) Assign(costs []float64, numWorkers int) []int {
	owners := make([]int, len(costs))
	for i := range owners {
		owners[i] = i % numWorkers
	}
	return owners
}

// LayoutOptions configures flattening and assignment
type LayoutOptions struct {
	// NumWorkers is the number of worker ranks chunks are assigned to.
	// Zero leaves every chunk Unassigned.
	NumWorkers int

	// AllowIdleWorkers permits NumWorkers to exceed the chunk count,
	// leaving the surplus workers without chunks. Without it that request
	// fails with ErrInfeasibleAssignment.
	AllowIdleWorkers bool

	// Periodic marks axes whose extreme chunks neighbor each other through
	// the boundary wrap
	Periodic []bool

	// Strategy selects the assignment policy; nil means GreedyLoaded
	Strategy AssignmentStrategy
}

// NewChunkLayout flattens a completed bisection tree into an ordered chunk
// list, assigns owners, and derives the face-adjacency neighbor sets and
// communication volumes. The layout is fully validated before it is
// returned; on any failure no partial layout escapes.
func NewChunkLayout(tree *BisectionTree, est CostEstimator, opts LayoutOptions) (*ChunkLayout, error) {
	leaves := tree.Leaves()
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: empty partition tree", ErrInvalidDomain)
	}
	if opts.NumWorkers < 0 {
		return nil, fmt.Errorf("%w: negative worker count %d", ErrInfeasibleAssignment, opts.NumWorkers)
	}
	if opts.NumWorkers > len(leaves) && !opts.AllowIdleWorkers {
		return nil, fmt.Errorf("%w: %d workers for %d chunks and idle workers not permitted",
			ErrInfeasibleAssignment, opts.NumWorkers, len(leaves))
	}

	cl := &ChunkLayout{
		Domain:     tree.Root(),
		Periodic:   append([]bool(nil), opts.Periodic...),
		Chunks:     make([]Chunk, len(leaves)),
		NumWorkers: opts.NumWorkers,
		minLen:     tree.minLen,
	}

	costs := make([]float64, len(leaves))
	for i, vol := range leaves {
		costs[i] = est.Integrate(vol)
		cl.Chunks[i] = Chunk{ID: i, Volume: vol, Cost: costs[i], Owner: Unassigned}
	}

	if opts.NumWorkers > 0 {
		strategy := opts.Strategy
		if strategy == nil {
			strategy = GreedyLoaded{}
		}
		owners := strategy.Assign(costs, opts.NumWorkers)
		for i := range cl.Chunks {
			cl.Chunks[i].Owner = owners[i]
		}
	}

	cl.connectNeighbors()

	if err := cl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk layout: %w", err)
	}
	return cl, nil
}

// connectNeighbors fills each chunk's neighbor ID set and the pairwise
// communication-volume table by testing face adjacency, honoring periodic
// wrap on flagged axes
func (cl *ChunkLayout) connectNeighbors() {
	n := len(cl.Chunks)
	cl.commVolume = newCommMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			area := geom.PeriodicFaceArea(cl.Chunks[i].Volume, cl.Chunks[j].Volume,
				cl.Domain, cl.Periodic)
			if area == 0 {
				continue
			}
			cl.commVolume.set(i, j, area)
			cl.commVolume.set(j, i, area)
			cl.Chunks[i].Neighbors = append(cl.Chunks[i].Neighbors, j)
			cl.Chunks[j].Neighbors = append(cl.Chunks[j].Neighbors, i)
		}
	}
	// The scan order already yields ascending IDs; sort anyway so the
	// ordering is a stated property, not an accident of the loop
	for i := range cl.Chunks {
		sort.Ints(cl.Chunks[i].Neighbors)
	}
}

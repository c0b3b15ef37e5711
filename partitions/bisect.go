// Package partitions decomposes a discretized simulation domain into chunks,
// balances estimated cost across workers, and divides workers into
// independent process groups. The whole pipeline is a pure, deterministic,
// ahead-of-run computation: identical inputs always produce an identical
// chunk layout, so every worker can compute the shared layout redundantly
// without a communication round.
package partitions

import (
	"fmt"
	"sort"

	"github.com/fdtdgo/decomp/geom"
)

// bisectNode is one node of the flat-arena binary partition tree. Children
// are integer indices into the arena; -1 marks a leaf.
type bisectNode struct {
	vol         geom.Volume
	axis        int // Split axis for internal nodes, -1 for leaves
	coord       int // Split cell index for internal nodes
	left, right int // Arena indices of children, -1 for leaves
	leaves      int // Leaf count of the subtree
}

// BisectionTree is an immutable binary partition of a root volume: every
// internal node's children tile its volume exactly, and the leaves tile the
// root with no gaps or overlaps. It exists only to be flattened into a
// ChunkLayout.
type BisectionTree struct {
	nodes  []bisectNode
	root   geom.Volume
	minLen [geom.MaxDims]int
}

// NumLeaves returns the number of leaf volumes in the tree
func (t *BisectionTree) NumLeaves() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[0].leaves
}

// Root returns the volume the tree partitions
func (t *BisectionTree) Root() geom.Volume {
	return t.root
}

// Leaves returns the leaf volumes in pre-order (lower half before upper
// half at every split)
func (t *BisectionTree) Leaves() []geom.Volume {
	out := make([]geom.Volume, 0, t.NumLeaves())
	var walk func(i int)
	walk = func(i int) {
		n := t.nodes[i]
		if n.left < 0 {
			out = append(out, n.vol)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	if len(t.nodes) > 0 {
		walk(0)
	}
	return out
}

// BisectionBuilder constructs binary partitions by recursive bisection.
// The split axis at each node is the longest feasible axis; the split
// position comes from the ChunkBalancer so that cost, not geometry, decides
// where each cut lands.
type BisectionBuilder struct {
	Cost CostEstimator

	// MinSize is the per-axis minimum chunk extent in cells, typically the
	// stencil's halo width. Missing or non-positive entries default to 1.
	MinSize []int

	balancer ChunkBalancer
}

func (b *BisectionBuilder) minLen(ax int) int {
	if ax < len(b.MinSize) && b.MinSize[ax] > 0 {
		return b.MinSize[ax]
	}
	return 1
}

// capacity returns the maximum number of leaves v can be cut into while
// every leaf keeps the minimum extent on every axis
func (b *BisectionBuilder) capacity(v geom.Volume) int {
	n := 1
	for ax := 0; ax < v.NDims; ax++ {
		n *= v.Extent(ax) / b.minLen(ax)
	}
	return n
}

// Build produces a binary partition of root with exactly numLeaves leaves.
// numLeaves may be any positive integer; powers of two simply produce a
// perfectly balanced tree shape. Infeasible requests fail before any tree
// is built.
func (b *BisectionBuilder) Build(root geom.Volume, numLeaves int) (*BisectionTree, error) {
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
	if b.Cost == nil {
		return nil, fmt.Errorf("%w: no cost estimator", ErrInvalidDomain)
	}
	if numLeaves < 1 {
		return nil, fmt.Errorf("%w: requested %d chunks", ErrInfeasiblePartition, numLeaves)
	}
	if maxLeaves := b.capacity(root); numLeaves > maxLeaves {
		return nil, fmt.Errorf("%w: requested %d chunks, domain %v holds at most %d under minimum size",
			ErrInfeasiblePartition, numLeaves, root, maxLeaves)
	}

	t := &BisectionTree{
		nodes: make([]bisectNode, 0, 2*numLeaves-1),
		root:  root,
	}
	for ax := 0; ax < root.NDims; ax++ {
		t.minLen[ax] = b.minLen(ax)
	}
	if _, err := b.build(t, root, numLeaves); err != nil {
		return nil, err
	}
	return t, nil
}

// build recursively partitions vol into numLeaves leaves, appending nodes to
// the arena and returning the index of the subtree root
func (b *BisectionBuilder) build(t *BisectionTree, vol geom.Volume, numLeaves int) (int, error) {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, bisectNode{
		vol: vol, axis: -1, left: -1, right: -1, leaves: numLeaves,
	})
	if numLeaves == 1 {
		return idx, nil
	}

	ax, leftLeaves, minCoord, maxCoord, err := b.chooseSplit(vol, numLeaves)
	if err != nil {
		return 0, err
	}
	rightLeaves := numLeaves - leftLeaves

	profile := b.Cost.Profile(vol, ax)
	if len(profile) != vol.Extent(ax) {
		return 0, fmt.Errorf("%w: cost profile length %d != axis %d extent %d",
			ErrInvalidDomain, len(profile), ax, vol.Extent(ax))
	}
	targetFrac := float64(leftLeaves) / float64(numLeaves)
	coord := b.balancer.SplitPoint(profile, vol.Min[ax], minCoord, maxCoord, targetFrac)

	lo, hi, err := vol.Split(ax, coord)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInfeasiblePartition, err)
	}

	left, err := b.build(t, lo, leftLeaves)
	if err != nil {
		return 0, err
	}
	right, err := b.build(t, hi, rightLeaves)
	if err != nil {
		return 0, err
	}
	t.nodes[idx].axis = ax
	t.nodes[idx].coord = coord
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx, nil
}

// chooseSplit picks the split axis and leaf budget for a node. Axes are
// tried longest first, ties broken by lowest axis index. On each axis the
// lower-half budget starts at the even ceil(n/2)/floor(n/2) division and,
// when the minimum-size floor leaves no room for that, walks outward to the
// nearest uneven budget both halves can host (smaller lower budget tried
// before larger, for determinism). A volume with capacity for numLeaves
// always admits some axis and budget, so an even division is only ever
// abandoned, never the request itself. It also returns the inclusive
// coordinate range the balancer may choose from.
func (b *BisectionBuilder) chooseSplit(vol geom.Volume, numLeaves int) (ax, leftLeaves, minCoord, maxCoord int, err error) {
	axes := make([]int, vol.NDims)
	for i := range axes {
		axes[i] = i
	}
	sort.SliceStable(axes, func(i, j int) bool {
		return vol.Extent(axes[i]) > vol.Extent(axes[j])
	})

	ideal := (numLeaves + 1) / 2
	for _, cand := range axes {
		for delta := 0; ; delta++ {
			nL := ideal - delta
			if nL < 1 && ideal+delta > numLeaves-1 {
				break
			}
			if nL >= 1 {
				if lo, hi, ok := b.coordRange(vol, cand, nL, numLeaves-nL); ok {
					return cand, nL, lo, hi, nil
				}
			}
			if nL = ideal + delta; delta > 0 && nL <= numLeaves-1 {
				if lo, hi, ok := b.coordRange(vol, cand, nL, numLeaves-nL); ok {
					return cand, nL, lo, hi, nil
				}
			}
		}
	}
	return 0, 0, 0, 0, fmt.Errorf("%w: volume %v cannot host %d chunks under minimum size",
		ErrInfeasiblePartition, vol, numLeaves)
}

// coordRange computes the inclusive range of split coordinates on axis ax
// that leaves the lower half with capacity for leftLeaves and the upper half
// with capacity for rightLeaves
func (b *BisectionBuilder) coordRange(vol geom.Volume, ax, leftLeaves, rightLeaves int) (lo, hi int, ok bool) {
	otherCap := 1
	for t := 0; t < vol.NDims; t++ {
		if t != ax {
			otherCap *= vol.Extent(t) / b.minLen(t)
		}
	}
	if otherCap < 1 {
		return 0, 0, false
	}
	// Minimum extent each half needs along ax to host its leaf budget
	needLo := b.minLen(ax) * ceilDiv(leftLeaves, otherCap)
	needHi := b.minLen(ax) * ceilDiv(rightLeaves, otherCap)

	lo = vol.Min[ax] + needLo
	hi = vol.Max[ax] - needHi
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

package partitions

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/fdtdgo/decomp/geom"
)

// Unassigned marks a chunk with no owner rank
const Unassigned = -1

// Chunk is one leaf of the binary partition: the unit of parallel work
type Chunk struct {
	ID     int
	Volume geom.Volume
	Cost   float64 // Aggregate estimated cost over the chunk's volume
	Owner  int     // Worker rank, or Unassigned

	// Neighbors lists the IDs of face-adjacent chunks in ascending order,
	// recorded for the engine's halo-exchange setup
	Neighbors []int
}

// ChunkLayout is the complete decomposition handed to the simulation
// engine: ordered chunks, owner assignment, adjacency, and per-pair
// communication volume. It is immutable once built.
type ChunkLayout struct {
	Domain     geom.Volume
	Periodic   []bool
	Chunks     []Chunk
	NumWorkers int

	minLen [geom.MaxDims]int
	// commVolume[i*N+j] is the shared face area in cells between chunks i
	// and j, the per-pair halo traffic the engine will carry
	commVolume commMatrix
}

// OwnedBy returns the IDs of the chunks assigned to rank, in layout order.
// Rank-specific views are derived from the shared layout this way; the
// layout itself never depends on which worker computes it.
func (cl *ChunkLayout) OwnedBy(rank int) []int {
	var ids []int
	for _, c := range cl.Chunks {
		if c.Owner == rank {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ChunkAt returns the ID of the chunk containing cell pt, or -1 when pt
// lies outside the domain. The chunks tile the domain, so at most one match
// exists.
func (cl *ChunkLayout) ChunkAt(pt []int) int {
	for _, c := range cl.Chunks {
		if c.Volume.Contains(pt) {
			return c.ID
		}
	}
	return -1
}

// CommVolume returns the shared face area in cells between chunks i and j
func (cl *ChunkLayout) CommVolume(i, j int) int {
	return cl.commVolume.at(i, j)
}

// WorkerLoads returns the total assigned cost per worker rank
func (cl *ChunkLayout) WorkerLoads() []float64 {
	loads := make([]float64, cl.NumWorkers)
	for _, c := range cl.Chunks {
		if c.Owner >= 0 && c.Owner < cl.NumWorkers {
			loads[c.Owner] += c.Cost
		}
	}
	return loads
}

// Validate checks the layout invariants: exact tiling of the domain with no
// overlaps, chunk bounds inside the domain, and the minimum-size floor on
// every axis
func (cl *ChunkLayout) Validate() error {
	if len(cl.Chunks) == 0 {
		return fmt.Errorf("layout has no chunks")
	}
	cells := 0
	for i := range cl.Chunks {
		c := &cl.Chunks[i]
		if err := c.Volume.Validate(); err != nil {
			return fmt.Errorf("chunk %d: %w", c.ID, err)
		}
		if overlap, ok := c.Volume.Intersect(cl.Domain); !ok || !overlap.Equals(c.Volume) {
			return fmt.Errorf("chunk %d: volume %v escapes domain %v", c.ID, c.Volume, cl.Domain)
		}
		for ax := 0; ax < c.Volume.NDims; ax++ {
			if min := cl.minLen[ax]; min > 0 && c.Volume.Extent(ax) < min {
				return fmt.Errorf("chunk %d: axis %d extent %d below minimum %d",
					c.ID, ax, c.Volume.Extent(ax), min)
			}
		}
		cells += c.Volume.NumCells()
		for j := i + 1; j < len(cl.Chunks); j++ {
			if _, ok := c.Volume.Intersect(cl.Chunks[j].Volume); ok {
				return fmt.Errorf("chunks %d and %d overlap", c.ID, cl.Chunks[j].ID)
			}
		}
	}
	// Pairwise disjoint and confined to the domain, so matching the cell
	// count means the chunks tile it exactly
	if cells != cl.Domain.NumCells() {
		return fmt.Errorf("chunks cover %d cells, domain has %d", cells, cl.Domain.NumCells())
	}
	return nil
}

// LayoutStats summarizes cost balance across chunks and workers
type LayoutStats struct {
	NumChunks  int
	NumWorkers int

	MinChunkCost  float64
	MaxChunkCost  float64
	MeanChunkCost float64

	MinWorkerLoad float64
	MaxWorkerLoad float64

	// Imbalance is MaxChunkCost / MeanChunkCost
	Imbalance float64
}

// Statistics computes cost-balance metrics over the layout
func (cl *ChunkLayout) Statistics() LayoutStats {
	s := LayoutStats{
		NumChunks:  len(cl.Chunks),
		NumWorkers: cl.NumWorkers,
	}
	if len(cl.Chunks) == 0 {
		return s
	}

	costs := make([]float64, len(cl.Chunks))
	for i, c := range cl.Chunks {
		costs[i] = c.Cost
	}
	s.MinChunkCost, s.MaxChunkCost = costs[0], costs[0]
	for _, c := range costs[1:] {
		if c < s.MinChunkCost {
			s.MinChunkCost = c
		}
		if c > s.MaxChunkCost {
			s.MaxChunkCost = c
		}
	}
	s.MeanChunkCost = stat.Mean(costs, nil)
	if s.MeanChunkCost > 0 {
		s.Imbalance = s.MaxChunkCost / s.MeanChunkCost
	}

	if cl.NumWorkers > 0 {
		loads := cl.WorkerLoads()
		s.MinWorkerLoad, s.MaxWorkerLoad = loads[0], loads[0]
		for _, l := range loads[1:] {
			if l < s.MinWorkerLoad {
				s.MinWorkerLoad = l
			}
			if l > s.MaxWorkerLoad {
				s.MaxWorkerLoad = l
			}
		}
	}
	return s
}

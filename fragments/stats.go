// Package fragments estimates the relative computational cost of sub-regions
// of a discretized simulation domain. Material regions, absorbing boundary
// layers, sources and monitors each add weight on top of a per-cell baseline,
// so that even empty space carries positive cost. The resulting statistics
// drive chunk balancing; they never execute any part of the simulation.
package fragments

import (
	"fmt"

	"github.com/notargets/gocfd/utils"
	"gonum.org/v1/gonum/floats"

	"github.com/fdtdgo/decomp/geom"
)

// Default per-cell cost weights, relative to vacuum
const (
	BaseCellCost    = 1.0 // Every cell, including vacuum
	PMLCellCost     = 2.0 // Added per absorbing layer covering the cell
	SourceCellCost  = 1.0 // Added per overlapping source footprint
	MonitorCellCost = 1.0 // Added per overlapping monitor footprint
)

// DefaultFragmentCells is the per-axis fragment granularity used when the
// spec does not set one. It is fixed ahead of time, independent of how many
// chunks the partitioner will eventually produce.
const DefaultFragmentCells = 8

// Region is an axis-aligned cost contributor: a material body, a source
// footprint, or a monitor footprint
type Region struct {
	Bounds geom.Volume
	Weight float64 // Relative extra cost per covered cell
}

// DomainSpec describes the simulation domain as seen by cost estimation.
// Geometry is reduced to boxes with relative weights; the real material
// model lives in the engine.
type DomainSpec struct {
	Bounds     geom.Volume
	Resolution float64 // Grid cells per unit length
	Periodic   []bool  // Per-axis periodic boundary flags

	// Absorbing layer thickness in cells at the low and high end of each axis
	PMLCells [geom.MaxDims][2]int

	Materials []Region
	Sources   []Region
	Monitors  []Region

	// FragmentCells sets the per-axis fragment granularity;
	// 0 selects DefaultFragmentCells
	FragmentCells int
}

// Fragment is a fixed-granularity sub-region with its aggregate cost
type Fragment struct {
	Bounds geom.Volume
	Cost   float64
}

// FragmentStats holds the rasterized per-cell cost of a domain and answers
// integration queries over sub-volumes. It is immutable once built and safe
// for concurrent use.
type FragmentStats struct {
	spec DomainSpec
	grid *costGrid
}

// NewFragmentStats rasterizes the domain's cost contributors onto a per-cell
// grid. Pure function of the spec; returns an error for a degenerate domain
// or non-positive resolution.
func NewFragmentStats(spec DomainSpec) (*FragmentStats, error) {
	if err := spec.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("domain bounds: %w", err)
	}
	if spec.Resolution <= 0 {
		return nil, fmt.Errorf("resolution %g must be positive", spec.Resolution)
	}
	for ax := 0; ax < spec.Bounds.NDims; ax++ {
		if spec.PMLCells[ax][0] < 0 || spec.PMLCells[ax][1] < 0 {
			return nil, fmt.Errorf("negative absorbing layer thickness on axis %d", ax)
		}
		if spec.PMLCells[ax][0]+spec.PMLCells[ax][1] > spec.Bounds.Extent(ax) {
			return nil, fmt.Errorf("absorbing layers thicker than axis %d extent %d",
				ax, spec.Bounds.Extent(ax))
		}
	}
	for i, m := range spec.Materials {
		if m.Weight < 0 {
			return nil, fmt.Errorf("material region %d: negative weight %g", i, m.Weight)
		}
	}

	fs := &FragmentStats{spec: spec, grid: newCostGrid(spec.Bounds)}
	fs.rasterize()
	return fs, nil
}

func (fs *FragmentStats) rasterize() {
	fs.grid.addOver(fs.spec.Bounds, BaseCellCost)

	for ax := 0; ax < fs.spec.Bounds.NDims; ax++ {
		if n := fs.spec.PMLCells[ax][0]; n > 0 {
			layer := fs.spec.Bounds
			layer.Max[ax] = layer.Min[ax] + n
			fs.grid.addOver(layer, PMLCellCost)
		}
		if n := fs.spec.PMLCells[ax][1]; n > 0 {
			layer := fs.spec.Bounds
			layer.Min[ax] = layer.Max[ax] - n
			fs.grid.addOver(layer, PMLCellCost)
		}
	}

	for _, m := range fs.spec.Materials {
		fs.grid.addOver(m.Bounds, m.Weight)
	}
	for _, s := range fs.spec.Sources {
		w := s.Weight
		if w == 0 {
			w = SourceCellCost
		}
		fs.grid.addOver(s.Bounds, w)
	}
	for _, mon := range fs.spec.Monitors {
		w := mon.Weight
		if w == 0 {
			w = MonitorCellCost
		}
		fs.grid.addOver(mon.Bounds, w)
	}
}

// Domain returns the domain bounds the statistics were built over
func (fs *FragmentStats) Domain() geom.Volume {
	return fs.spec.Bounds
}

// TotalCost returns the integrated cost of the whole domain
func (fs *FragmentStats) TotalCost() float64 {
	return floats.Sum(fs.grid.weights)
}

// Integrate returns the total estimated cost of the cells of v that lie
// inside the domain
func (fs *FragmentStats) Integrate(v geom.Volume) float64 {
	return fs.grid.sumOver(v)
}

// Profile returns the cost of each one-cell-thick slab of v along axis ax,
// integrated over the complementary axes
func (fs *FragmentStats) Profile(v geom.Volume, ax int) []float64 {
	return fs.grid.profile(v, ax)
}

// Fragments aggregates the cell grid into fixed-size fragments, the coarse
// cost map handed to diagnostics. Trailing fragments on an axis may be
// smaller when the granularity does not divide the extent.
func (fs *FragmentStats) Fragments() []Fragment {
	size := fs.spec.FragmentCells
	if size <= 0 {
		size = DefaultFragmentCells
	}
	bounds := fs.spec.Bounds

	starts := make([][]int, bounds.NDims)
	for ax := 0; ax < bounds.NDims; ax++ {
		for s := bounds.Min[ax]; s < bounds.Max[ax]; s += size {
			starts[ax] = append(starts[ax], s)
		}
	}

	var out []Fragment
	var walk func(ax int, frag geom.Volume)
	walk = func(ax int, frag geom.Volume) {
		if ax == bounds.NDims {
			out = append(out, Fragment{Bounds: frag, Cost: fs.grid.sumOver(frag)})
			return
		}
		for _, s := range starts[ax] {
			f := frag
			f.Min[ax] = s
			f.Max[ax] = s + size
			if f.Max[ax] > bounds.Max[ax] {
				f.Max[ax] = bounds.Max[ax]
			}
			walk(ax+1, f)
		}
	}
	walk(0, geom.Volume{NDims: bounds.NDims})
	return out
}

// CostPlane extracts a dense 2-D cost plane for inspection: the plane normal
// to axis ax at cell index coord for 3-D domains, the full grid for 2-D
// domains (ax ignored), a single row for 1-D domains.
func (fs *FragmentStats) CostPlane(ax, coord int) (utils.Matrix, error) {
	if fs.spec.Bounds.NDims == 3 {
		if ax < 0 || ax >= 3 {
			return utils.Matrix{}, fmt.Errorf("plane axis %d out of range", ax)
		}
		if coord < fs.spec.Bounds.Min[ax] || coord >= fs.spec.Bounds.Max[ax] {
			return utils.Matrix{}, fmt.Errorf("plane coordinate %d outside axis %d bounds", coord, ax)
		}
	}
	return fs.grid.plane(ax, coord), nil
}

package fragments

import (
	"github.com/notargets/gocfd/utils"

	"github.com/fdtdgo/decomp/geom"
)

// costGrid holds a per-cell cost value for every cell of the domain,
// stored row-major with axis 0 slowest
type costGrid struct {
	bounds  geom.Volume
	extent  [geom.MaxDims]int
	stride  [geom.MaxDims]int
	weights []float64
}

func newCostGrid(bounds geom.Volume) *costGrid {
	g := &costGrid{bounds: bounds}
	n := 1
	for ax := 0; ax < bounds.NDims; ax++ {
		g.extent[ax] = bounds.Extent(ax)
	}
	for ax := bounds.NDims - 1; ax >= 0; ax-- {
		g.stride[ax] = n
		n *= g.extent[ax]
	}
	g.weights = make([]float64, n)
	return g
}

// index maps domain cell coordinates to the flat weight slice
func (g *costGrid) index(pt [geom.MaxDims]int) int {
	idx := 0
	for ax := 0; ax < g.bounds.NDims; ax++ {
		idx += (pt[ax] - g.bounds.Min[ax]) * g.stride[ax]
	}
	return idx
}

// addOver adds w to every cell of the grid covered by v
func (g *costGrid) addOver(v geom.Volume, w float64) {
	overlap, ok := g.bounds.Intersect(v)
	if !ok {
		return
	}
	g.forEach(overlap, func(idx int) {
		g.weights[idx] += w
	})
}

// forEach visits the flat index of every cell inside v, axis 0 slowest.
// v must already be clipped to the grid bounds.
func (g *costGrid) forEach(v geom.Volume, fn func(idx int)) {
	var pt [geom.MaxDims]int
	switch g.bounds.NDims {
	case 1:
		for i := v.Min[0]; i < v.Max[0]; i++ {
			pt[0] = i
			fn(g.index(pt))
		}
	case 2:
		for i := v.Min[0]; i < v.Max[0]; i++ {
			pt[0] = i
			for j := v.Min[1]; j < v.Max[1]; j++ {
				pt[1] = j
				fn(g.index(pt))
			}
		}
	case 3:
		for i := v.Min[0]; i < v.Max[0]; i++ {
			pt[0] = i
			for j := v.Min[1]; j < v.Max[1]; j++ {
				pt[1] = j
				for k := v.Min[2]; k < v.Max[2]; k++ {
					pt[2] = k
					fn(g.index(pt))
				}
			}
		}
	}
}

// sumOver integrates cell cost over the part of v inside the grid
func (g *costGrid) sumOver(v geom.Volume) float64 {
	overlap, ok := g.bounds.Intersect(v)
	if !ok {
		return 0
	}
	total := 0.0
	g.forEach(overlap, func(idx int) {
		total += g.weights[idx]
	})
	return total
}

// profile integrates cost over the complementary axes of v, producing one
// slab total per cell index along axis ax
func (g *costGrid) profile(v geom.Volume, ax int) []float64 {
	overlap, ok := g.bounds.Intersect(v)
	if !ok {
		return nil
	}
	out := make([]float64, overlap.Extent(ax))
	slab := overlap
	for i := overlap.Min[ax]; i < overlap.Max[ax]; i++ {
		slab.Min[ax] = i
		slab.Max[ax] = i + 1
		out[i-overlap.Min[ax]] = g.sumOver(slab)
	}
	return out
}

// plane extracts the 2-D cost plane normal to axis ax at cell index coord
// as a dense matrix, rows along the lower remaining axis. For 2-D grids ax
// must be -1 and the whole grid is returned.
func (g *costGrid) plane(ax, coord int) utils.Matrix {
	var rowAx, colAx int
	switch g.bounds.NDims {
	case 2:
		rowAx, colAx = 0, 1
	case 3:
		axes := make([]int, 0, 2)
		for t := 0; t < 3; t++ {
			if t != ax {
				axes = append(axes, t)
			}
		}
		rowAx, colAx = axes[0], axes[1]
	default:
		m := utils.NewMatrix(1, g.extent[0])
		copy(m.Data(), g.weights)
		return m
	}

	rows, cols := g.extent[rowAx], g.extent[colAx]
	m := utils.NewMatrix(rows, cols)
	mD := m.Data()
	var pt [geom.MaxDims]int
	if g.bounds.NDims == 3 {
		pt[ax] = coord
	}
	for r := 0; r < rows; r++ {
		pt[rowAx] = g.bounds.Min[rowAx] + r
		for c := 0; c < cols; c++ {
			pt[colAx] = g.bounds.Min[colAx] + c
			mD[r*cols+c] = g.weights[g.index(pt)]
		}
	}
	return m
}

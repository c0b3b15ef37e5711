package partitions

import (
	"github.com/fdtdgo/decomp/geom"
)

// CostEstimator supplies the estimated computational cost of sub-volumes of
// the domain. It decouples the partition builder and balancer from how the
// cost is actually derived; fragments.FragmentStats is the production
// implementation.
type CostEstimator interface {
	// Integrate returns the total cost over v
	Integrate(v geom.Volume) float64

	// Profile returns the cost of each one-cell-thick slab of v along axis
	// ax, integrated over the complementary axes
	Profile(v geom.Volume, ax int) []float64
}

// UniformCost estimates one unit of cost per cell
type UniformCost struct{}

func (UniformCost) Integrate(v geom.Volume) float64 {
	return float64(v.NumCells())
}

func (UniformCost) Profile(v geom.Volume, ax int) []float64 {
	slab := float64(v.NumCells() / v.Extent(ax))
	out := make([]float64, v.Extent(ax))
	for i := range out {
		out[i] = slab
	}
	return out
}

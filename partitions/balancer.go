package partitions

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ChunkBalancer chooses split coordinates along a fixed axis so that the
// cost of the two resulting halves matches a target fraction as closely as
// possible. The search is a 1-D scan over a prefix sum of the projected cost
// profile; it runs once per internal node and never revisits a committed
// split.
type ChunkBalancer struct{}

// SplitPoint returns the split coordinate for a node spanning
// [axMin, axMin+len(profile)) along the split axis. profile holds the
// per-slab cost along that axis; candidates are restricted to
// [minCoord, maxCoord] (inclusive), the range that keeps both halves
// feasible. targetFrac is the fraction of total cost wanted in the lower
// half (1/2 for an even leaf budget).
//
// Ties on cost imbalance are broken toward the geometric midpoint, then
// toward the lower coordinate, so the choice is fully deterministic. When
// all cost sits inside one feasible half the nearest feasible coordinate is
// returned and the imbalance accepted.
func (ChunkBalancer) SplitPoint(profile []float64, axMin, minCoord, maxCoord int, targetFrac float64) int {
	prefix := make([]float64, len(profile))
	floats.CumSum(prefix, profile)
	target := targetFrac * prefix[len(prefix)-1]
	mid := float64(axMin) + float64(len(profile))/2

	best := minCoord
	bestErr := math.Inf(1)
	bestMidDist := math.Inf(1)
	for coord := minCoord; coord <= maxCoord; coord++ {
		left := prefix[coord-axMin-1]
		costErr := math.Abs(left - target)
		midDist := math.Abs(float64(coord) - mid)
		if costErr < bestErr || (costErr == bestErr && midDist < bestMidDist) {
			best = coord
			bestErr = costErr
			bestMidDist = midDist
		}
	}
	return best
}

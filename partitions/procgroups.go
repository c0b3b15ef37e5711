package partitions

import (
	"fmt"
)

// ProcessGroups partitions the global worker rank set into independent
// groups for replicated or parameter-swept runs. Groups are contiguous rank
// spans whose sizes differ by at most one, with the remainder spread over
// the leading groups; each group then computes its own chunk layout.
type ProcessGroups struct {
	NumWorkers int
	NumGroups  int

	starts []int // starts[g] is the first global rank of group g; len NumGroups+1
}

// DivideProcesses splits numWorkers ranks into numGroups groups
func DivideProcesses(numWorkers, numGroups int) (*ProcessGroups, error) {
	if numWorkers < 1 {
		return nil, fmt.Errorf("%w: worker count %d", ErrInfeasibleGrouping, numWorkers)
	}
	if numGroups < 1 {
		return nil, fmt.Errorf("%w: group count %d must be positive", ErrInfeasibleGrouping, numGroups)
	}
	if numGroups > numWorkers {
		return nil, fmt.Errorf("%w: %d groups for %d workers", ErrInfeasibleGrouping, numGroups, numWorkers)
	}

	pg := &ProcessGroups{
		NumWorkers: numWorkers,
		NumGroups:  numGroups,
		starts:     make([]int, numGroups+1),
	}
	base := numWorkers / numGroups
	rem := numWorkers % numGroups
	for g := 0; g < numGroups; g++ {
		size := base
		if g < rem {
			size++
		}
		pg.starts[g+1] = pg.starts[g] + size
	}
	return pg, nil
}

// GroupSize returns the number of ranks in group g
func (pg *ProcessGroups) GroupSize(g int) int {
	return pg.starts[g+1] - pg.starts[g]
}

// RanksOf returns the global ranks belonging to group g
func (pg *ProcessGroups) RanksOf(g int) []int {
	ranks := make([]int, pg.GroupSize(g))
	for i := range ranks {
		ranks[i] = pg.starts[g] + i
	}
	return ranks
}

// Locate returns the group id and local rank of a global rank
func (pg *ProcessGroups) Locate(rank int) (group, localRank int, err error) {
	if rank < 0 || rank >= pg.NumWorkers {
		return 0, 0, fmt.Errorf("rank %d out of range [0, %d)", rank, pg.NumWorkers)
	}
	// Group spans are sorted; a linear scan over at most NumGroups entries
	for g := 0; g < pg.NumGroups; g++ {
		if rank < pg.starts[g+1] {
			return g, rank - pg.starts[g], nil
		}
	}
	return 0, 0, fmt.Errorf("rank %d not covered by any group", rank)
}

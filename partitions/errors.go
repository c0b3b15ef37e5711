package partitions

import "errors"

// Sentinel errors for the partitioning pipeline. All are detected before any
// partial result is returned; callers receive either a fully valid layout or
// one of these wrapped with requested-vs-available context.
var (
	// ErrInvalidDomain is returned for a domain with non-positive extent or resolution.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInfeasiblePartition is returned when the requested chunk count cannot
	// be reached under the cell capacity and minimum-size floor.
	ErrInfeasiblePartition = errors.New("infeasible partition")

	// ErrInfeasibleAssignment is returned when more workers than chunks are
	// requested without explicit permission to leave workers idle.
	ErrInfeasibleAssignment = errors.New("infeasible assignment")

	// ErrInfeasibleGrouping is returned when the process-group count is
	// non-positive or exceeds the worker count.
	ErrInfeasibleGrouping = errors.New("infeasible grouping")
)

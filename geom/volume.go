// Package geom provides the grid-aligned box arithmetic used by the
// domain-decomposition pipeline. All coordinates are integer cell indices;
// boxes are half-open [Min, Max) per axis.
package geom

import (
	"fmt"
)

// MaxDims is the maximum supported spatial dimension
const MaxDims = 3

// Volume is an axis-aligned box over integer grid cells.
// Only the first NDims entries of Min/Max are meaningful.
type Volume struct {
	NDims int
	Min   [MaxDims]int // Inclusive lower cell index per axis
	Max   [MaxDims]int // Exclusive upper cell index per axis
}

// NewVolume creates a Volume spanning [min[i], max[i]) on each axis
func NewVolume(min, max []int) (Volume, error) {
	if len(min) != len(max) {
		return Volume{}, fmt.Errorf("min/max dimension mismatch: %d vs %d", len(min), len(max))
	}
	if len(min) < 1 || len(min) > MaxDims {
		return Volume{}, fmt.Errorf("unsupported dimension %d: must be 1..%d", len(min), MaxDims)
	}
	v := Volume{NDims: len(min)}
	copy(v.Min[:], min)
	copy(v.Max[:], max)
	if err := v.Validate(); err != nil {
		return Volume{}, err
	}
	return v, nil
}

// Box is a convenience constructor for tests and literals; it panics on
// invalid bounds rather than returning an error.
func Box(min, max []int) Volume {
	v, err := NewVolume(min, max)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks that the volume has positive extent on every axis
func (v Volume) Validate() error {
	if v.NDims < 1 || v.NDims > MaxDims {
		return fmt.Errorf("unsupported dimension %d: must be 1..%d", v.NDims, MaxDims)
	}
	for ax := 0; ax < v.NDims; ax++ {
		if v.Max[ax] <= v.Min[ax] {
			return fmt.Errorf("axis %d: non-positive extent [%d, %d)", ax, v.Min[ax], v.Max[ax])
		}
	}
	return nil
}

// Extent returns the number of cells along axis ax
func (v Volume) Extent(ax int) int {
	return v.Max[ax] - v.Min[ax]
}

// NumCells returns the total cell count of the volume
func (v Volume) NumCells() int {
	n := 1
	for ax := 0; ax < v.NDims; ax++ {
		n *= v.Extent(ax)
	}
	return n
}

// LongestAxis returns the axis with the largest extent, ties broken by
// lowest axis index
func (v Volume) LongestAxis() int {
	best := 0
	for ax := 1; ax < v.NDims; ax++ {
		if v.Extent(ax) > v.Extent(best) {
			best = ax
		}
	}
	return best
}

// Contains reports whether cell index pt lies inside the volume
func (v Volume) Contains(pt []int) bool {
	for ax := 0; ax < v.NDims; ax++ {
		if pt[ax] < v.Min[ax] || pt[ax] >= v.Max[ax] {
			return false
		}
	}
	return true
}

// Equals reports exact equality of bounds and dimension
func (v Volume) Equals(o Volume) bool {
	if v.NDims != o.NDims {
		return false
	}
	for ax := 0; ax < v.NDims; ax++ {
		if v.Min[ax] != o.Min[ax] || v.Max[ax] != o.Max[ax] {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of two volumes and whether it is non-empty
func (v Volume) Intersect(o Volume) (Volume, bool) {
	out := Volume{NDims: v.NDims}
	for ax := 0; ax < v.NDims; ax++ {
		lo := v.Min[ax]
		if o.Min[ax] > lo {
			lo = o.Min[ax]
		}
		hi := v.Max[ax]
		if o.Max[ax] < hi {
			hi = o.Max[ax]
		}
		if hi <= lo {
			return Volume{}, false
		}
		out.Min[ax] = lo
		out.Max[ax] = hi
	}
	return out, true
}

// Split cuts the volume at cell index coord along axis ax, returning the
// lower half [Min, coord) and the upper half [coord, Max). The split
// coordinate must fall strictly inside the volume.
func (v Volume) Split(ax, coord int) (lo, hi Volume, err error) {
	if ax < 0 || ax >= v.NDims {
		return Volume{}, Volume{}, fmt.Errorf("split axis %d out of range for %dD volume", ax, v.NDims)
	}
	if coord <= v.Min[ax] || coord >= v.Max[ax] {
		return Volume{}, Volume{}, fmt.Errorf("split coordinate %d outside axis %d interior (%d, %d)",
			coord, ax, v.Min[ax], v.Max[ax])
	}
	lo, hi = v, v
	lo.Max[ax] = coord
	hi.Min[ax] = coord
	return lo, hi, nil
}

// overlapLen returns the length of the 1-D overlap of the two volumes on axis ax
func overlapLen(a, b Volume, ax int) int {
	lo := a.Min[ax]
	if b.Min[ax] > lo {
		lo = b.Min[ax]
	}
	hi := a.Max[ax]
	if b.Max[ax] < hi {
		hi = b.Max[ax]
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

// FaceAdjacent reports whether a and b touch on a full (n-1)-dimensional
// face: their bounds meet exactly on one axis and overlap with positive
// length on every other axis. Corner and edge contact in 3D does not count.
func FaceAdjacent(a, b Volume) bool {
	_, area := faceContact(a, b)
	return area > 0
}

// FaceArea returns the shared face area in cells (0 if not face-adjacent)
func FaceArea(a, b Volume) int {
	_, area := faceContact(a, b)
	return area
}

// faceContact finds the single axis on which a and b abut and the
// transverse overlap area. area is 0 when the volumes are not face-adjacent.
func faceContact(a, b Volume) (axis, area int) {
	if a.NDims != b.NDims {
		return -1, 0
	}
	touchAxis := -1
	for ax := 0; ax < a.NDims; ax++ {
		if a.Max[ax] == b.Min[ax] || b.Max[ax] == a.Min[ax] {
			if overlapLen(a, b, ax) == 0 {
				if touchAxis >= 0 {
					// Touching on two axes at once is corner/edge contact
					return -1, 0
				}
				touchAxis = ax
			}
		}
	}
	if touchAxis < 0 {
		return -1, 0
	}
	area = 1
	for ax := 0; ax < a.NDims; ax++ {
		if ax == touchAxis {
			continue
		}
		l := overlapLen(a, b, ax)
		if l <= 0 {
			return -1, 0
		}
		area *= l
	}
	return touchAxis, area
}

// PeriodicFaceArea returns the shared face area of a and b including
// contact across the periodic ends of the domain: when periodic[ax] is true
// and one volume touches the domain minimum while the other touches the
// domain maximum on ax, they abut through the wrap. Returns 0 for a == b.
func PeriodicFaceArea(a, b, domain Volume, periodic []bool) int {
	if a.Equals(b) {
		return 0
	}
	if area := FaceArea(a, b); area > 0 {
		return area
	}
	for ax := 0; ax < a.NDims; ax++ {
		if ax >= len(periodic) || !periodic[ax] {
			continue
		}
		wraps := (a.Min[ax] == domain.Min[ax] && b.Max[ax] == domain.Max[ax]) ||
			(b.Min[ax] == domain.Min[ax] && a.Max[ax] == domain.Max[ax])
		if !wraps {
			continue
		}
		area := 1
		ok := true
		for t := 0; t < a.NDims; t++ {
			if t == ax {
				continue
			}
			l := overlapLen(a, b, t)
			if l <= 0 {
				ok = false
				break
			}
			area *= l
		}
		if ok {
			return area
		}
	}
	return 0
}

func (v Volume) String() string {
	s := ""
	for ax := 0; ax < v.NDims; ax++ {
		if ax > 0 {
			s += " x "
		}
		s += fmt.Sprintf("[%d,%d)", v.Min[ax], v.Max[ax])
	}
	return s
}

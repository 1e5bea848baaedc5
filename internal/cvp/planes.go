package cvp

import "fmt"

// Direction selects the arithmetic performed by Planes.Apply.
type Direction uint8

const (
	// Subtract debits a lane (encode).
	Subtract Direction = iota
	// Add credits a lane (decode).
	Add
)

// Planes holds the R and G accumulators of every cell, indexed by pidx.
type Planes struct {
	r []uint64
	g []uint64
}

// NewPlanes allocates both planes. With full set every lane starts at
// RGLimit, otherwise at zero.
func NewPlanes(full bool) *Planes {
	p := &Planes{
		r: make([]uint64, Cells),
		g: make([]uint64, Cells),
	}
	if full {
		for i := range p.r {
			p.r[i] = RGLimit
			p.g[i] = RGLimit
		}
	}
	return p
}

func (p *Planes) plane(l Lane) []uint64 {
	if l == LaneR {
		return p.r
	}
	return p.g
}

// Value returns the current counter of lane l at pidx.
func (p *Planes) Value(l Lane, pidx uint32) uint64 {
	return p.plane(l)[pidx]
}

// Apply moves weight into or out of lane l at pidx.
//
// Subtract fails with CAPACITY_EXHAUSTED if the lane holds less than weight.
// Add fails with CAPACITY_EXCEEDED if the result would pass RGLimit. The lane
// is left untouched on failure.
func (p *Planes) Apply(l Lane, pidx uint32, weight uint64, dir Direction) error {
	plane := p.plane(l)
	v := plane[pidx]

	switch dir {
	case Subtract:
		if v < weight {
			return newError(KindCapacityExhausted,
				"%s lane at cell %d holds %d, cannot remove %d", l, pidx, v, weight)
		}
		plane[pidx] = v - weight
	case Add:
		if weight > RGLimit || v > RGLimit-weight {
			return newError(KindCapacityExceeded,
				"%s lane at cell %d holds %d, adding %d passes limit", l, pidx, v, weight)
		}
		plane[pidx] = v + weight
	default:
		return fmt.Errorf("unknown direction %d", dir)
	}
	return nil
}

// AllFull reports whether every lane of every cell equals RGLimit.
func (p *Planes) AllFull() bool {
	for i := range p.r {
		if p.r[i] != RGLimit || p.g[i] != RGLimit {
			return false
		}
	}
	return true
}

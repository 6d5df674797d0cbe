package cdc

// geometry captures the counter layout for one capacity: index bits select a
// slot and the lap bit above them tells a full buffer from an empty one.
type geometry struct {
	capacity uint64 // slot count C
	lap      uint64 // the lap bit, numerically equal to C
	ptrMask  uint64 // 2C-1, the extended counter width
}

func newGeometry(capacity int) geometry {
	c := uint64(capacity)
	return geometry{capacity: c, lap: c, ptrMask: 2*c - 1}
}

// next advances an extended counter by one with wraparound at 2C.
//
//go:nosplit
func (g geometry) next(n uint64) uint64 {
	return (n + 1) & g.ptrMask
}

// distance is (w - r) mod 2C.
//
//go:nosplit
func (g geometry) distance(w, r uint64) uint64 {
	return (w - r) & g.ptrMask
}

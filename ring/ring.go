// ring.go
//
// Fixed-capacity slot array shared by the two sides of a cdc.FIFO.  The
// producer is the only writer and the consumer the only reader; neither ever
// touches a slot the other side still owns because the engines gate every
// access on the published counters.  Indices arrive as raw extended counters
// and are masked here, so an out-of-range index cannot occur.

package ring

// Ring is a power-of-two array of T addressed modulo its length.
type Ring[T any] struct {
	mask uint64
	buf  []T
}

// New allocates a ring whose size must be a power-of-two; otherwise it
// panics so that the bit-masking arithmetic stays valid.
func New[T any](size int) *Ring[T] {
	if !IsPowerOfTwo(size) {
		panic("ring: size must be >0 and a power of two")
	}
	return &Ring[T]{
		mask: uint64(size - 1),
		buf:  make([]T, size),
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Write stores item in the slot selected by the low bits of index.
//
//go:nosplit
func (r *Ring[T]) Write(index uint64, item T) {
	r.buf[index&r.mask] = item
}

// Read returns the item in the slot selected by the low bits of index.
//
//go:nosplit
func (r *Ring[T]) Read(index uint64) T {
	return r.buf[index&r.mask]
}

// Len returns the slot count.
func (r *Ring[T]) Len() int { return len(r.buf) }

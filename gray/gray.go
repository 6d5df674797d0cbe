// gray.go
//
// Reflected binary (Gray) codec for the FIFO's extended counters.  Successive
// codes differ in exactly one bit, so an observer that samples a counter while
// it is being bumped can only ever land on the old or the new value.

package gray

import "math/bits"

// Encode returns the Gray code of n.
//
//go:nosplit
func Encode(n uint64) uint64 {
	return n ^ (n >> 1)
}

// Decode inverts Encode.  Bit i of the result is the XOR of every code bit at
// or above i, which is the MSB-down recurrence n[i] = n[i+1] ^ g[i] folded into
// six shift/XOR passes.
//
//go:nosplit
func Decode(g uint64) uint64 {
	g ^= g >> 1
	g ^= g >> 2
	g ^= g >> 4
	g ^= g >> 8
	g ^= g >> 16
	g ^= g >> 32
	return g
}

// Adjacent reports whether a and b differ in exactly one bit.
func Adjacent(a, b uint64) bool {
	return bits.OnesCount64(a^b) == 1
}

// FlipLap returns the code of Decode(g) with the binary lap bit toggled.  lap
// must be a single bit.  In the Gray domain this flips the lap bit and the bit
// directly below it.
//
//go:nosplit
func FlipLap(g, lap uint64) uint64 {
	return g ^ (lap | lap>>1)
}

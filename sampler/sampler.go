// sampler.go
//
// Two-stage observation pipeline.  Each side of the FIFO keeps one Staged per
// direction and advances it only on its own step, so the other side's published
// counter is absorbed through two registers before it is trusted.
//
//   step k     stage1 <- source      (raw, may be mid-update)
//   step k+1   stage2 <- stage1      (trusted, decoded by the engine)
//
// A source change therefore shows up in stage 2 after two observer steps if it
// landed before step k's sample, or three if it landed just after.

package sampler

// Depth is the number of stages between the source and the trusted value.
const Depth = 2

// Source is anything publishing a counter that may be loaded concurrently with
// its owner updating it.  *atomic.Uint64 satisfies it.
type Source interface {
	Load() uint64
}

// Staged holds the two pipeline registers for one direction.  It is owned by
// the observing side and must only be stepped from that side's context.
type Staged struct {
	src    Source
	stage1 uint64
	stage2 uint64
}

// New returns a pipeline observing src with both stages zeroed.
func New(src Source) *Staged {
	return &Staged{src: src}
}

// Step shifts the pipeline by one observer step and returns the new trusted
// value.
//
//go:nosplit
func (s *Staged) Step() uint64 {
	s.stage2 = s.stage1
	s.stage1 = s.src.Load()
	return s.stage2
}

// Value returns the trusted stage without advancing.
func (s *Staged) Value() uint64 { return s.stage2 }

// Pending returns the raw stage-1 sample, not yet trusted.
func (s *Staged) Pending() uint64 { return s.stage1 }

// Reset zeroes both stages.
func (s *Staged) Reset() {
	s.stage1, s.stage2 = 0, 0
}

// Blend models a sample that catches each bit of a register independently
// mid-transition: bits set in pick come from next, the rest from prev.  When
// prev and next are adjacent Gray codes the result is always one of the two.
func Blend(prev, next, pick uint64) uint64 {
	return prev&^pick | next&pick
}

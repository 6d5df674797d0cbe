package cdc

import (
	"sync/atomic"

	"cdcfifo/gray"
	"cdcfifo/ring"
	"cdcfifo/sampler"
)

// producer is the write side.  count and observed are private to the producer
// goroutine; full and the stats counters are atomics so other goroutines can
// poll them.
type producer[T any] struct {
	geo       geometry
	slots     *ring.Ring[T]
	published *atomic.Uint64  // writeEncoded, stored only here
	observed  *sampler.Staged // consumer's readEncoded, staged
	count     uint64          // writeCounter
	full      atomic.Bool

	accepted atomic.Uint64
	rejected atomic.Uint64
	steps    atomic.Uint64
}

func (p *producer[T]) enqueue(item T) error {
	if p.full.Load() {
		p.rejected.Add(1)
		p.step()
		return ErrFull
	}
	p.slots.Write(p.count, item)
	p.count = p.geo.next(p.count)
	p.published.Store(gray.Encode(p.count))
	p.accepted.Add(1)
	p.step()
	return nil
}

// step advances the staged read counter and recomputes full for the current
// write counter: full when the write position sits exactly one lap ahead of
// the observed read position.
func (p *producer[T]) step() {
	r := p.observed.Step()
	p.full.Store(gray.Encode(p.count) == gray.FlipLap(r, p.geo.lap))
	p.steps.Add(1)
}

func (p *producer[T]) reset() {
	p.count = 0
	p.published.Store(0)
	p.observed.Reset()
	p.full.Store(false)
}

// level is the occupancy as the producer sees it; never below the truth.
func (p *producer[T]) level() int {
	return int(p.geo.distance(p.count, gray.Decode(p.observed.Value())))
}

package cdc

import (
	"sync/atomic"

	"cdcfifo/gray"
	"cdcfifo/ring"
	"cdcfifo/sampler"
)

// consumer is the read side, the mirror image of producer.
type consumer[T any] struct {
	geo       geometry
	slots     *ring.Ring[T]
	published *atomic.Uint64  // readEncoded, stored only here
	observed  *sampler.Staged // producer's writeEncoded, staged
	count     uint64          // readCounter
	empty     atomic.Bool

	accepted atomic.Uint64
	rejected atomic.Uint64
	steps    atomic.Uint64
}

func (c *consumer[T]) dequeue() (T, error) {
	if c.empty.Load() {
		c.rejected.Add(1)
		c.step()
		var zero T
		return zero, ErrEmpty
	}
	item := c.slots.Read(c.count)
	c.count = c.geo.next(c.count)
	c.published.Store(gray.Encode(c.count))
	c.accepted.Add(1)
	c.step()
	return item, nil
}

// step advances the staged write counter and recomputes empty: the read
// position has caught up with the observed write position, lap bit included.
func (c *consumer[T]) step() {
	w := c.observed.Step()
	c.empty.Store(gray.Encode(c.count) == w)
	c.steps.Add(1)
}

func (c *consumer[T]) reset() {
	c.count = 0
	c.published.Store(0)
	c.observed.Reset()
	c.empty.Store(true)
}

// level is the occupancy as the consumer sees it; never above the truth.
func (c *consumer[T]) level() int {
	return int(c.geo.distance(gray.Decode(c.observed.Value()), c.count))
}

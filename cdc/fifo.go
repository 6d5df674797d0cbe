package cdc

import (
	"fmt"
	"sync/atomic"

	"cdcfifo/gray"
	"cdcfifo/ring"
	"cdcfifo/sampler"
)

// FIFO is a bounded SPSC queue whose two sides only learn about each other
// through staged, Gray-encoded counter snapshots.
type FIFO[T any] struct {
	// Published counters sit on their own cache lines; each is written by
	// one side and sampled by the other.
	_            [64]byte
	writeEncoded atomic.Uint64
	_pad1        [56]byte
	readEncoded  atomic.Uint64
	_pad2        [56]byte

	prod producer[T]
	//lint:ignore U1000 padding to keep producer and consumer state on different cache-lines
	_pad3 [64]byte
	cons consumer[T]

	geo geometry
}

// New builds an empty FIFO with the given slot count.
func New[T any](capacity int) (*FIFO[T], error) {
	if capacity < 2 || !ring.IsPowerOfTwo(capacity) {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidCapacity, capacity)
	}
	f := &FIFO[T]{geo: newGeometry(capacity)}
	slots := ring.New[T](capacity)

	f.prod.geo = f.geo
	f.prod.slots = slots
	f.prod.published = &f.writeEncoded
	f.prod.observed = sampler.New(&f.readEncoded)

	f.cons.geo = f.geo
	f.cons.slots = slots
	f.cons.published = &f.readEncoded
	f.cons.observed = sampler.New(&f.writeEncoded)
	f.cons.empty.Store(true)
	return f, nil
}

// MustNew is New for capacities known to be valid; it panics otherwise.
func MustNew[T any](capacity int) *FIFO[T] {
	f, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return f
}

// Capacity returns the slot count.
func (f *FIFO[T]) Capacity() int { return int(f.geo.capacity) }

// TryEnqueue stores item unless the producer currently sees the buffer full,
// in which case it returns ErrFull.  Either way the producer steps once.
// Producer context only.
func (f *FIFO[T]) TryEnqueue(item T) error { return f.prod.enqueue(item) }

// TryDequeue removes the oldest item unless the consumer currently sees the
// buffer empty, in which case it returns ErrEmpty.  Either way the consumer
// steps once.  Consumer context only.
func (f *FIFO[T]) TryDequeue() (T, error) { return f.cons.dequeue() }

// TickProducer is a producer step with no enqueue: the staged read counter
// advances and full is recomputed.  Producer context only.
func (f *FIFO[T]) TickProducer() { f.prod.step() }

// TickConsumer is a consumer step with no dequeue.  Consumer context only.
func (f *FIFO[T]) TickConsumer() { f.cons.step() }

// IsFull reports the producer's last computed full flag.
func (f *FIFO[T]) IsFull() bool { return f.prod.full.Load() }

// IsEmpty reports the consumer's last computed empty flag.
func (f *FIFO[T]) IsEmpty() bool { return f.cons.empty.Load() }

// ResetProducerSide zeroes the write counter, its published code and the
// producer's staged copy of the read counter, and clears full.  It does not
// coordinate with the consumer; data in flight across an asymmetric reset is
// not preserved.  Producer context only.
//
// Producer steps after the reset clear full again, except when the consumer's
// read counter sits at exactly Capacity: the zeroed write counter is then one
// lap away from it and full stays set until the consumer resets too.  Reset
// both sides when the consumer position is unknown.
func (f *FIFO[T]) ResetProducerSide() { f.prod.reset() }

// ResetConsumerSide is the consumer counterpart of ResetProducerSide and
// leaves empty set.  Consumer context only.
func (f *FIFO[T]) ResetConsumerSide() { f.cons.reset() }

// ProducerLevel is the occupancy the producer can prove: its own counter
// against its staged read counter.  Producer context only.
func (f *FIFO[T]) ProducerLevel() int { return f.prod.level() }

// ConsumerLevel is the occupancy the consumer can prove.  Consumer context
// only.
func (f *FIFO[T]) ConsumerLevel() int { return f.cons.level() }

// SideSnapshot describes one side's private view.
type SideSnapshot struct {
	Counter  uint64 // own extended counter
	Encoded  uint64 // Gray code of Counter as published
	Observed uint64 // decoded stage 2 of the other side's counter
	Pending  uint64 // raw stage 1 sample, Gray coded
	Flag     bool   // full for the producer, empty for the consumer
	Level    int
}

// Producer returns the producer's view.  Producer context only.
func (f *FIFO[T]) Producer() SideSnapshot {
	p := &f.prod
	return SideSnapshot{
		Counter:  p.count,
		Encoded:  gray.Encode(p.count),
		Observed: gray.Decode(p.observed.Value()),
		Pending:  p.observed.Pending(),
		Flag:     p.full.Load(),
		Level:    p.level(),
	}
}

// Consumer returns the consumer's view.  Consumer context only.
func (f *FIFO[T]) Consumer() SideSnapshot {
	c := &f.cons
	return SideSnapshot{
		Counter:  c.count,
		Encoded:  gray.Encode(c.count),
		Observed: gray.Decode(c.observed.Value()),
		Pending:  c.observed.Pending(),
		Flag:     c.empty.Load(),
		Level:    c.level(),
	}
}

// Stats are cumulative per-side step outcomes.
type Stats struct {
	Enqueued      uint64
	EnqueueFull   uint64
	ProducerSteps uint64
	Dequeued      uint64
	DequeueEmpty  uint64
	ConsumerSteps uint64
	Full          bool
	Empty         bool
}

// Stats can be read from any goroutine.  Fields are loaded one at a time, so
// a snapshot taken while both sides run is not a single instant.
func (f *FIFO[T]) Stats() Stats {
	return Stats{
		Enqueued:      f.prod.accepted.Load(),
		EnqueueFull:   f.prod.rejected.Load(),
		ProducerSteps: f.prod.steps.Load(),
		Dequeued:      f.cons.accepted.Load(),
		DequeueEmpty:  f.cons.rejected.Load(),
		ConsumerSteps: f.cons.steps.Load(),
		Full:          f.prod.full.Load(),
		Empty:         f.cons.empty.Load(),
	}
}

// Package cdc implements a clock-domain-crossing FIFO: a bounded
// single-producer/single-consumer queue between two contexts that step at
// unrelated rates.
//
// Each side owns one extended counter (slot index plus a lap bit) and never
// reads the other side's counter directly.  Instead every side publishes the
// Gray code of its counter, and the other side absorbs that value through a
// two-stage sampler advanced on its own steps:
//
//	Producer                                   Consumer
//	────────                                   ────────
//	writeCounter ─► gray ─► writeEncoded ───► sampler ─► empty
//	full ◄─ sampler ◄─── readEncoded ◄─ gray ◄─ readCounter
//	  │                                            ▲
//	  └────────────► ring slots ──────────────────┘
//
// The staged copy may lag the true counter by two or three of the observer's
// steps.  Lag only ever makes a side more conservative: the producer sees the
// buffer fuller than it is and the consumer sees it emptier, so neither
// overflow nor underflow is possible.
//
// Both flags are recomputed after every step from the side's post-step
// counter, so the flag checked at the start of the next call already covers
// the slot that call would touch.
//
// Calls on the producer side (TryEnqueue, TickProducer, ResetProducerSide,
// ProducerLevel, Producer) must come from a single goroutine, and likewise
// for the consumer side.  IsFull, IsEmpty and Stats are safe from anywhere.
package cdc

// driver.go
//
// Step drivers for the two sides of a cdc.FIFO.  The FIFO never decides when
// a side steps; these loops do.
//
//   • Pinned: dedicated OS thread pinned to a core, free-running.  Stays in a
//     tight loop while the pipeline is hot and yields the thread every
//     SpinBudget idle polls once it cools down.
//   • Clocked: one step per tick of a time.Ticker, an independent clock per
//     side, until the context ends or the flags stop.
//
// hot flag contract:
//     Producer driver          Consumer driver
//     ───────────────          ───────────────
//     accepted step ─────────▶ SignalActivity (both read Hot)
//     idle step     ─────────▶ PollCooldown advances the virtual clock

package driver

import (
	"context"
	"runtime"
	"time"

	"cdcfifo/cdc"
	"cdcfifo/constants"
	"cdcfifo/control"
)

// Step performs one step of one side and reports whether it moved an item.
type Step func() bool

// ProducerStep offers items from next to f's producer side.  An item that is
// rejected is offered again on the following step; next is only called once
// the previous item was accepted.  When next reports exhaustion the step is a
// plain producer tick.
func ProducerStep[T any](f *cdc.FIFO[T], next func() (T, bool)) Step {
	var (
		pending T
		have    bool
	)
	return func() bool {
		if !have {
			pending, have = next()
			if !have {
				f.TickProducer()
				return false
			}
		}
		if f.TryEnqueue(pending) != nil {
			return false
		}
		var zero T
		pending, have = zero, false
		return true
	}
}

// ConsumerStep drains f's consumer side into sink, one item per step.
func ConsumerStep[T any](f *cdc.FIFO[T], sink func(T)) Step {
	return func() bool {
		v, err := f.TryDequeue()
		if err != nil {
			return false
		}
		sink(v)
		return true
	}
}

// SharedProc reports whether pinned sides have to share one P.  A side that
// spins there holds the P until preempted, so Pinned yields on every miss.
func SharedProc() bool { return runtime.GOMAXPROCS(0) < 2 }

// Pinned drains step on a locked OS thread pinned to core until flags stop.
// Out-of-range cores (e.g. -1) skip pinning.  done is closed on exit.
func Pinned(core int, flags *control.Flags, step Step, done chan<- struct{}) {
	budget := constants.SpinBudget
	if SharedProc() {
		budget = 1
	}
	go func() {
		runtime.LockOSThread()
		setAffinity(core) // no-op off Linux
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		miss := 0
		for {
			if step() {
				flags.SignalActivity()
				miss = 0
				continue
			}

			if flags.Stopping() {
				return
			}

			flags.PollCooldown()
			if flags.Hot() && budget > 1 {
				continue
			}

			if miss++; miss >= budget {
				miss = 0
				runtime.Gosched()
			}
		}
	}()
}

// Clocked calls step once per period until ctx is done (returning ctx.Err())
// or flags stop (returning nil).  It returns the number of steps taken.
func Clocked(ctx context.Context, period time.Duration, flags *control.Flags, step Step) (uint64, error) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var steps uint64
	for {
		select {
		case <-ctx.Done():
			return steps, ctx.Err()
		case <-ticker.C:
		}
		if flags.Stopping() {
			return steps, nil
		}
		if step() {
			flags.SignalActivity()
		} else {
			flags.PollCooldown()
		}
		steps++
	}
}

// control.go - Activity and shutdown flags shared by a producer/consumer pair
// ============================================================================
// DRIVER COORDINATION
// ============================================================================
//
// A Flags value is handed to both step drivers of one FIFO.  Whoever feeds
// work signals activity; drivers poll the hot flag to decide between tight
// spinning and backing off, and exit once stop is raised.
//
// Cooldown runs on virtual time: every PollCooldown call is one tick, and the
// hot flag drops after ControlCooldownPolls ticks without a SignalActivity.
// No clock is read on the polling path.
//
// All fields are atomics; any goroutine may call any method.

package control

import (
	"sync/atomic"

	"cdcfifo/constants"
)

// Flags coordinates the drivers of one pipeline.
type Flags struct {
	hot  atomic.Uint32 // 1 while work is arriving
	stop atomic.Uint32 // 1 once shutdown was requested

	polls        atomic.Uint64 // virtual clock, advanced by PollCooldown
	lastActivity atomic.Uint64 // poll count at the last SignalActivity
	cooldown     uint64
}

// New returns cold, running flags with the given cooldown in polls.  Zero
// selects constants.ControlCooldownPolls.
func New(cooldownPolls uint64) *Flags {
	if cooldownPolls == 0 {
		cooldownPolls = constants.ControlCooldownPolls
	}
	return &Flags{cooldown: cooldownPolls}
}

// SignalActivity marks the pipeline hot and stamps the current poll count.
func (f *Flags) SignalActivity() {
	f.lastActivity.Store(f.polls.Load())
	f.hot.Store(1)
}

// PollCooldown advances the virtual clock by one and clears hot once the
// cooldown has elapsed since the last activity.
func (f *Flags) PollCooldown() {
	now := f.polls.Add(1)
	last := f.lastActivity.Load()
	if f.hot.Load() == 1 && now > last && now-last > f.cooldown {
		f.hot.Store(0)
	}
}

// Shutdown asks every driver holding f to exit.
func (f *Flags) Shutdown() { f.stop.Store(1) }

// Stopping reports whether Shutdown was called.
func (f *Flags) Stopping() bool { return f.stop.Load() != 0 }

// Hot reports whether work arrived within the cooldown.
func (f *Flags) Hot() bool { return f.hot.Load() != 0 }

// Polls returns the virtual clock.
func (f *Flags) Polls() uint64 { return f.polls.Load() }

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go - FIFO defaults & driver tunables
//
// Purpose:
//   - Compile-time defaults for the FIFO simulator and its step drivers.
//   - config.DefaultConfig starts from these; YAML and env may override.
//
// ⚠️ No runtime logic here - all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ─────────────────────────────── FIFO Geometry ──────────────────────────────

const (
	// DefaultCapacity is the slot count used when none is configured.
	// Must be a power of two; 16 matches the reference scenario.
	DefaultCapacity = 16

	// MaxCapacity caps configured capacities at 2^20 slots.  Extended
	// counters need log2(C)+1 bits, far below 64.
	MaxCapacity = 1 << 20
)

// ───────────────────────────── Simulation Run ───────────────────────────────

const (
	// DefaultItems is how many sequence numbers the producer pushes per run.
	DefaultItems = 100_000

	// DefaultProducerPeriodNs / DefaultConsumerPeriodNs are the step periods
	// of the two independent clocks in clocked mode.  Deliberately coprime
	// so the steps drift across each other.
	DefaultProducerPeriodNs = 7_000
	DefaultConsumerPeriodNs = 11_000

	// DefaultTimeoutMs bounds one run.
	DefaultTimeoutMs = 60_000
)

// ─────────────────────────── Driver Spin Control ────────────────────────────

const (
	// SpinBudget is how many idle polls a cold driver makes before yielding
	// the OS thread.
	SpinBudget = 256

	// ControlCooldownPolls is the number of idle polls after the last
	// activity before the hot flag drops.  Counted in polls, not wall time,
	// so cooldown costs no clock reads.
	ControlCooldownPolls = 1 << 20
)

// ─────────────────────────────── Persistence ────────────────────────────────

const (
	// DefaultDBPath is the sqlite file holding run history.
	DefaultDBPath = "cdcfifo_runs.db"

	// DefaultMetricsPath is where the Prometheus handler is mounted.
	DefaultMetricsPath = "/metrics"

	// DefaultMetricsLingerMs keeps the metrics endpoint up after a run so
	// the final run counters can be scraped.
	DefaultMetricsLingerMs = 15_000
)

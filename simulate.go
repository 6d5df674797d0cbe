package main

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"cdcfifo/audit"
	"cdcfifo/cdc"
	"cdcfifo/config"
	"cdcfifo/control"
	"cdcfifo/debug"
	"cdcfifo/driver"
	"cdcfifo/metric"
	"cdcfifo/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// RUN STATE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// simulation holds both sides of one run.  Fields under "producer" are only
// touched by the producer driver, fields under "consumer" only by the
// consumer driver; the caller reads them after both drivers have returned.
type simulation struct {
	fifo    *cdc.FIFO[uint64]
	flags   *control.Flags
	items   uint64
	metrics *metric.Metrics // nil when not exported

	// producer
	sent *audit.Digest

	// consumer
	received    *audit.Digest
	expected    uint64
	orderErrors uint64
}

func newSimulation(f *cdc.FIFO[uint64], items uint64, m *metric.Metrics) *simulation {
	return &simulation{
		fifo:     f,
		flags:    control.New(0),
		items:    items,
		metrics:  m,
		sent:     audit.NewDigest(),
		received: audit.NewDigest(),
	}
}

// producerStep emits 0..items-1.  The digest is fed on acceptance; values
// are sequential, so the accepted value is the number accepted so far.
func (s *simulation) producerStep() driver.Step {
	var next uint64
	step := driver.ProducerStep(s.fifo, func() (uint64, bool) {
		if next >= s.items {
			return 0, false
		}
		v := next
		next++
		return v, true
	})
	return func() bool {
		if !step() {
			return false
		}
		s.sent.Add(s.sent.Count())
		return true
	}
}

// consumerStep checks order and stops the run once every item has arrived.
func (s *simulation) consumerStep() driver.Step {
	return driver.ConsumerStep(s.fifo, func(v uint64) {
		inOrder := v == s.expected
		if !inOrder {
			s.orderErrors++
		}
		if s.metrics != nil {
			if inOrder {
				s.metrics.ItemsVerified.Inc()
			} else {
				s.metrics.OrderErrors.Inc()
			}
		}
		s.expected = v + 1
		s.received.Add(v)
		if s.received.Count() == s.items {
			s.flags.Shutdown()
		}
	})
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DRIVERS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (s *simulation) runClocked(ctx context.Context, prod, cons config.SideConfig) error {
	var g errgroup.Group
	side := func(period int64, step driver.Step) func() error {
		return func() error {
			// One side giving up ends the run for both.
			defer s.flags.Shutdown()
			_, err := driver.Clocked(ctx, time.Duration(period), s.flags, step)
			return err
		}
	}
	g.Go(side(prod.PeriodNs, s.producerStep()))
	g.Go(side(cons.PeriodNs, s.consumerStep()))
	return g.Wait()
}

func (s *simulation) runPinned(ctx context.Context, prod, cons config.SideConfig) error {
	if driver.SharedProc() {
		debug.DropMessage("PINNED", "GOMAXPROCS="+utils.Itoa(runtime.GOMAXPROCS(0))+
			" on "+utils.Itoa(runtime.NumCPU())+" CPUs: both sides share one P and yield on every miss")
	}
	prodDone := make(chan struct{})
	consDone := make(chan struct{})
	driver.Pinned(prod.Core, s.flags, s.producerStep(), prodDone)
	driver.Pinned(cons.Core, s.flags, s.consumerStep(), consDone)

	var err error
	select {
	case <-consDone:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.flags.Shutdown()
	<-consDone
	<-prodDone
	return err
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ENTRY
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// simulate pushes cfg.Run.Items sequence numbers through f using the
// configured drivers and returns the verified report.  The error is only
// non-nil for configuration problems; run failures are in the report.  When m
// is non-nil the consumer counts items into it as they arrive.
func simulate(ctx context.Context, cfg *config.Config, f *cdc.FIFO[uint64], m *metric.Metrics) (*audit.Report, error) {
	if cfg.Run.Items < 0 {
		return nil, fmt.Errorf("invalid item count %d", cfg.Run.Items)
	}
	items := uint64(cfg.Run.Items)
	started := time.Now()
	report := audit.NewReport(cfg.Run.Mode, f.Capacity(), items, started)

	debug.DropMessage("RUN", report.ID+" mode="+cfg.Run.Mode+
		" capacity="+utils.Itoa(f.Capacity())+" items="+utils.Utoa(items))

	runCtx := ctx
	if cfg.Run.TimeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Run.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	s := newSimulation(f, items, m)
	var runErr error
	switch {
	case items == 0:
	case cfg.Run.Mode == "pinned":
		runErr = s.runPinned(runCtx, cfg.Producer, cfg.Consumer)
	case cfg.Run.Mode == "clocked":
		runErr = s.runClocked(runCtx, cfg.Producer, cfg.Consumer)
	default:
		return nil, fmt.Errorf("unknown run mode %q", cfg.Run.Mode)
	}

	// Both drivers have returned; their state is ours now.
	report.OrderErrors = s.orderErrors
	report.SetStats(f.Stats())
	report.SetLevels(f.ProducerLevel(), f.ConsumerLevel())
	report.Finish(s.sent, s.received, time.Since(started), runErr, errors.Is(runErr, context.DeadlineExceeded))

	if cfg.Log.Level == "debug" {
		width := bits.Len(uint(f.Capacity())) // log2(C)+1 counter bits
		dumpSide("PRODUCER", f.Producer(), width)
		dumpSide("CONSUMER", f.Consumer(), width)
	}

	if report.Result == audit.ResultOK {
		debug.DropMessage("RUN", report.ID+" verified "+utils.Utoa(report.Delivered)+" items")
	} else {
		debug.DropMessage("RUN", report.ID+" "+report.Result+": delivered "+
			utils.Utoa(report.Delivered)+"/"+utils.Utoa(items)+
			", order errors "+utils.Utoa(report.OrderErrors))
	}
	return report, nil
}

// dumpSide logs one side's private view with Gray codes in binary.
func dumpSide(prefix string, s cdc.SideSnapshot, width int) {
	flag := "0"
	if s.Flag {
		flag = "1"
	}
	debug.DropMessage(prefix, "counter="+utils.Utoa(s.Counter)+
		" encoded="+utils.Btoa(s.Encoded, width)+
		" observed="+utils.Utoa(s.Observed)+
		" pending="+utils.Btoa(s.Pending, width)+
		" flag="+flag+
		" level="+utils.Itoa(s.Level))
}

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcfifo/audit"
	"cdcfifo/cdc"
	"cdcfifo/config"
	"cdcfifo/debug"
	"cdcfifo/metric"
)

func TestMain(m *testing.M) {
	debug.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig(mode string, capacity, items int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Run.Mode = mode
	cfg.Run.Items = items
	cfg.Run.TimeoutMs = 30_000
	cfg.FIFO.Capacity = capacity
	cfg.Producer.PeriodNs = 1_000
	cfg.Consumer.PeriodNs = 1_000
	cfg.Store.Enabled = false
	return cfg
}

func simulateFor(t *testing.T, cfg *config.Config) *audit.Report {
	t.Helper()
	f, err := cdc.New[uint64](cfg.FIFO.Capacity)
	require.NoError(t, err)
	r, err := simulate(context.Background(), cfg, f, nil)
	require.NoError(t, err)
	return r
}

func TestSimulateClocked(t *testing.T) {
	r := simulateFor(t, testConfig("clocked", 4, 2_000))

	assert.Equal(t, audit.ResultOK, r.Result, r.Error)
	assert.Equal(t, uint64(2_000), r.Delivered)
	assert.Zero(t, r.OrderErrors)
	assert.Equal(t, r.ProducerDigest, r.ConsumerDigest)
	assert.GreaterOrEqual(t, r.ProducerSteps, uint64(2_000))
	assert.GreaterOrEqual(t, r.ConsumerSteps, uint64(2_000))
	assert.Zero(t, r.ConsumerLevel, "consumer drained everything it could see")
	assert.LessOrEqual(t, r.ProducerLevel, 4)
}

func TestSimulatePinned(t *testing.T) {
	r := simulateFor(t, testConfig("pinned", 8, 50_000))

	assert.Equal(t, audit.ResultOK, r.Result, r.Error)
	assert.Equal(t, uint64(50_000), r.Delivered)
	assert.True(t, r.Verified())
}

func TestSimulateZeroItems(t *testing.T) {
	r := simulateFor(t, testConfig("clocked", 2, 0))
	assert.Equal(t, audit.ResultOK, r.Result)
	assert.Zero(t, r.ProducerSteps)
}

func TestSimulateTimeout(t *testing.T) {
	cfg := testConfig("clocked", 4, 1_000_000)
	cfg.Producer.PeriodNs = 1_000_000
	cfg.Consumer.PeriodNs = 1_000_000
	cfg.Run.TimeoutMs = 20

	r := simulateFor(t, cfg)
	assert.Equal(t, audit.ResultTimeout, r.Result)
	assert.Less(t, r.Delivered, uint64(1_000_000))
	assert.NotEmpty(t, r.Error)
	assert.Zero(t, r.OrderErrors, "whatever arrived arrived in order")
}

func TestSimulateCancelled(t *testing.T) {
	cfg := testConfig("pinned", 4, 1<<40)
	f := cdc.MustNew[uint64](4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := simulate(ctx, cfg, f, nil)
	require.NoError(t, err)
	assert.Equal(t, audit.ResultError, r.Result)
	assert.Equal(t, context.Canceled.Error(), r.Error)
}

func TestSimulateUnknownMode(t *testing.T) {
	cfg := testConfig("bogus", 4, 10)
	_, err := simulate(context.Background(), cfg, cdc.MustNew[uint64](4), nil)
	assert.Error(t, err)
}

func TestSimulateDebugDumpsSides(t *testing.T) {
	var buf bytes.Buffer
	debug.SetOutput(&buf)
	debug.SetQuiet(false)
	defer debug.SetOutput(io.Discard)

	cfg := testConfig("clocked", 16, 20)
	cfg.Log.Level = "debug"
	r := simulateFor(t, cfg)
	require.Equal(t, audit.ResultOK, r.Result)

	out := buf.String()
	// 20 = 0b10100, Gray 0b11110, over log2(16)+1 = 5 bits.
	assert.Contains(t, out, "PRODUCER: counter=20 encoded=11110 ")
	assert.Contains(t, out, "CONSUMER: counter=20 encoded=11110 observed=20 ")
	assert.Contains(t, out, "verified 20 items")
}

func TestSimulatePinnedSharedProc(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))

	var buf bytes.Buffer
	debug.SetOutput(&buf)
	debug.SetQuiet(false)
	defer debug.SetOutput(io.Discard)

	r := simulateFor(t, testConfig("pinned", 8, 20_000))
	assert.Equal(t, audit.ResultOK, r.Result, r.Error)
	assert.Equal(t, uint64(20_000), r.Delivered)
	assert.Contains(t, buf.String(), "PINNED: GOMAXPROCS=1 ")
}

func TestSimulateCountsIntoMetrics(t *testing.T) {
	cfg := testConfig("clocked", 4, 500)
	m := metric.NewMetrics()
	r, err := simulate(context.Background(), cfg, cdc.MustNew[uint64](4), m)
	require.NoError(t, err)
	require.Equal(t, audit.ResultOK, r.Result)

	assert.Equal(t, 500.0, testutil.ToFloat64(m.ItemsVerified))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OrderErrors))
}

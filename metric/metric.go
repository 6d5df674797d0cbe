// Package metric exposes FIFO and run metrics to Prometheus.
//
// Per-side step outcomes are read from cdc.FIFO.Stats at scrape time by a
// custom collector, so the step loops never touch a Prometheus type.  Run
// level metrics (runs, durations, verification outcomes) are plain vectors
// updated once per run.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cdcfifo/cdc"
)

const namespace = "cdcfifo"

// StatsFunc returns the current counters of one FIFO.  It is called from the
// scrape goroutine and must be safe for concurrent use, as cdc.FIFO.Stats is.
type StatsFunc func() cdc.Stats

// Metrics contains the run-level metrics of the simulator.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	ItemsVerified prometheus.Counter
	OrderErrors   prometheus.Counter
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "total",
				Help:      "Completed simulation runs by result (ok, mismatch, timeout, error)",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Wall-clock duration of simulation runs",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		ItemsVerified: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "items_verified_total",
				Help:      "Items the consumer received in the expected order",
			},
		),
		OrderErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "order_errors_total",
				Help:      "Items the consumer received out of order",
			},
		),
	}
}

// Collectors lists every collector in m for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.RunsTotal, m.RunDuration, m.ItemsVerified, m.OrderErrors}
}

// NewRegistry returns a registry holding m, a FIFO collector for each named
// stats source, and the Go runtime collectors.
func NewRegistry(m *Metrics, fifos map[string]StatsFunc) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for name, fn := range fifos {
		if err := reg.Register(NewFIFOCollector(name, fn)); err != nil {
			return nil, err
		}
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	return reg, nil
}

// FIFOCollector turns one FIFO's Stats into const metrics on every scrape.
type FIFOCollector struct {
	stats StatsFunc

	steps *prometheus.Desc
	flag  *prometheus.Desc
}

// NewFIFOCollector returns a collector labelled fifo=name.
func NewFIFOCollector(name string, stats StatsFunc) *FIFOCollector {
	labels := prometheus.Labels{"fifo": name}
	return &FIFOCollector{
		stats: stats,
		steps: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "fifo", "steps_total"),
			"Steps taken by each side, by outcome (accepted, rejected, tick)",
			[]string{"side", "outcome"}, labels,
		),
		flag: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "fifo", "flag"),
			"Last computed full (producer) and empty (consumer) flags",
			[]string{"flag"}, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *FIFOCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.steps
	ch <- c.flag
}

// Collect implements prometheus.Collector.
func (c *FIFOCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()

	prodTicks := st.ProducerSteps - min(st.ProducerSteps, st.Enqueued+st.EnqueueFull)
	consTicks := st.ConsumerSteps - min(st.ConsumerSteps, st.Dequeued+st.DequeueEmpty)

	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(st.Enqueued), "producer", "accepted")
	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(st.EnqueueFull), "producer", "rejected")
	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(prodTicks), "producer", "tick")
	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(st.Dequeued), "consumer", "accepted")
	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(st.DequeueEmpty), "consumer", "rejected")
	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(consTicks), "consumer", "tick")

	ch <- prometheus.MustNewConstMetric(c.flag, prometheus.GaugeValue, boolToFloat(st.Full), "full")
	ch <- prometheus.MustNewConstMetric(c.flag, prometheus.GaugeValue, boolToFloat(st.Empty), "empty")
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

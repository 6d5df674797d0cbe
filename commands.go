package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cdcfifo/audit"
	"cdcfifo/cdc"
	"cdcfifo/config"
	"cdcfifo/debug"
	"cdcfifo/metric"
	"cdcfifo/store"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = "cdcfifo.yaml"

// runFlags maps run-command flags onto config keys.  Only flags the user set
// are applied, on top of file and environment values.
var runFlags = []struct {
	name, key, usage string
}{
	{"capacity", "fifo.capacity", "FIFO slot count (power of two)"},
	{"items", "run.items", "sequence numbers to push through the FIFO"},
	{"mode", "run.mode", "driver mode: clocked or pinned"},
	{"timeout-ms", "run.timeout_ms", "abort the run after this many milliseconds"},
	{"producer-period-ns", "producer.period_ns", "producer step period in clocked mode"},
	{"consumer-period-ns", "consumer.period_ns", "consumer step period in clocked mode"},
	{"producer-core", "producer.core", "CPU for the producer in pinned mode (-1 = none)"},
	{"consumer-core", "consumer.core", "CPU for the consumer in pinned mode (-1 = none)"},
	{"db", "store.path", "sqlite file for run history"},
	{"metrics-addr", "metrics.addr", "serve Prometheus metrics on this address during the run"},
	{"metrics-linger-ms", "metrics.linger_ms", "keep serving metrics this long after the run ends"},
	{"log-level", "log.level", "debug, info, warn or error"},
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "cdcfifo",
		Short: "dual-clock FIFO simulator",
		Long: `cdcfifo - dual-clock FIFO simulator
  - two sides stepping on independent clocks
  - Gray-coded counters crossing through two-stage samplers
  - every run verified end to end and recorded`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newRunCmd(load),
		newHistoryCmd(load),
		newConfigCmd(load, &configPath),
		newVersionCmd(),
	)
	return root
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// run
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func newRunCmd(load func() (*config.Config, error)) *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Push a sequence through the FIFO and verify it",
		Long: `Build a FIFO, drive its producer and consumer on independent clocks,
and verify that 0..items-1 arrive exactly once and in order.

The JSON report is printed to stdout and, unless --no-store is given,
recorded in the run history.

Examples:
  cdcfifo run                                  # defaults / config file
  cdcfifo run --capacity 4 --items 1000000     # small FIFO, long run
  cdcfifo run --mode pinned --producer-core 2 --consumer-core 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			for _, f := range runFlags {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				if err := cfg.Set(f.key, cmd.Flags().Lookup(f.name).Value.String()); err != nil {
					return err
				}
			}
			if noStore {
				cfg.Store.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runOnce(cmd, cfg)
		},
	}
	for _, f := range runFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the history database")
	return cmd
}

func runOnce(cmd *cobra.Command, cfg *config.Config) error {
	debug.SetQuiet(cfg.Log.Level == "warn" || cfg.Log.Level == "error")

	fifo, err := cdc.New[uint64](cfg.FIFO.Capacity)
	if err != nil {
		return err
	}

	m := metric.NewMetrics()
	serving := cfg.Metrics.Addr != ""
	if serving {
		reg, err := metric.NewRegistry(m, map[string]metric.StatsFunc{"main": fifo.Stats})
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		srv := metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, reg)
		serveErr, err := srv.Start()
		if err != nil {
			return err
		}
		defer srv.Stop()
		go func() {
			for err := range serveErr {
				debug.DropError("METRICS", err)
			}
		}()
		debug.DropMessage("METRICS", "serving "+srv.Address())
	}

	report, err := simulate(cmd.Context(), cfg, fifo, m)
	if err != nil {
		return err
	}

	m.RunsTotal.WithLabelValues(report.Result).Inc()
	m.RunDuration.Observe(time.Duration(report.DurationNs).Seconds())

	if cfg.Store.Enabled {
		if err := record(cmd.Context(), cfg.Store.Path, report); err != nil {
			debug.DropError("STORE", err)
		}
	}

	data, err := audit.Encode(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if serving && cfg.Metrics.LingerMs > 0 {
		linger(cmd.Context(), time.Duration(cfg.Metrics.LingerMs)*time.Millisecond)
	}

	if report.Result != audit.ResultOK {
		return fmt.Errorf("run %s: %s", report.ID, report.Result)
	}
	return nil
}

// linger keeps the process (and so the metrics server) up for d so the run
// counters can be scraped.  An interrupt ends it early.
func linger(ctx context.Context, d time.Duration) {
	debug.DropMessage("METRICS", "serving run results for "+d.String())
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func record(ctx context.Context, path string, r *audit.Report) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	// Record even when the run was interrupted.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	return s.Record(ctx, store.Run{
		ID:            r.ID,
		StartedAt:     r.StartedAt,
		Mode:          r.Mode,
		Capacity:      r.Capacity,
		Items:         r.Items,
		Delivered:     r.Delivered,
		OrderErrors:   r.OrderErrors,
		EnqueueFull:   r.EnqueueFull,
		DequeueEmpty:  r.DequeueEmpty,
		ProducerSteps: r.ProducerSteps,
		ConsumerSteps: r.ConsumerSteps,
		Duration:      time.Duration(r.DurationNs),
		Digest:        r.ConsumerDigest,
		Result:        r.Result,
	})
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// history
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func newHistoryCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		limit  int
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Store.Path
			}
			if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			s, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd, runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite file (default from config)")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []store.Run) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}
	fmt.Fprintf(out, "%-36s  %-19s  %-7s  %5s  %10s  %-8s  %s\n",
		"ID", "STARTED", "MODE", "CAP", "DELIVERED", "RESULT", "DURATION")
	fmt.Fprintln(out, strings.Repeat("-", 104))
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-19s  %-7s  %5d  %10d  %-8s  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Mode, r.Capacity,
			r.Delivered, r.Result, r.Duration.Round(time.Microsecond))
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// config
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func newConfigCmd(load func() (*config.Config, error), path *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(*path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", *path)
			}
			if err := config.DefaultConfig().SaveToFile(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", *path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Long:  "Print one configuration value.\n\nKeys:\n  " + strings.Join(config.ListKeys(), "\n  "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value and save the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.SaveToFile(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, get, set)
	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// version
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cdcfifo %s\n", version)
		},
	}
}

// ════════════════════════════════════════════════════════════════════════════════════════════════
// CDC FIFO Simulator - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Command-line entry point & signal handling
//
// Description:
//   Drives a dual-clock FIFO with two independent step loops, one per side, and verifies that
//   every sequence number crosses exactly once and in order.
//
// Architecture:
//   - run:     build FIFO → start producer/consumer drivers → verify → report/record
//   - history: list recorded runs from sqlite
//   - config:  show/init/get/set the YAML configuration
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cdcfifo/debug"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		debug.DropError("FATAL", err)
		os.Exit(1)
	}
}

// setupSignalHandling cancels the command context on SIGINT/SIGTERM.  Drivers
// observe the cancellation and the run is reported as interrupted.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "Received interrupt, shutting down...")
		cancel()
	}()
}

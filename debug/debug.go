// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go - Cold-path diagnostic logging (no fmt)
//
// Purpose:
//   - Logs run lifecycle events and collaborator errors (config, store, HTTP).
//   - One line per call: "<prefix>: <message>\n".
//
// Notes:
//   - Avoids fmt; callers format numbers with utils.Itoa/Utoa.
//   - Defaults to stderr via utils.PrintWarning; tests swap the sink.
//   - SetQuiet drops DropMessage lines but never DropError lines.
//
// ⚠️ Never invoke from the FIFO engines or a driver's step loop.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"io"
	"sync"
	"sync/atomic"

	"cdcfifo/utils"
)

var (
	quiet atomic.Bool

	sinkMu sync.Mutex
	sink   io.Writer // nil → stderr
)

// SetOutput redirects diagnostics to w; nil restores stderr.
func SetOutput(w io.Writer) {
	sinkMu.Lock()
	sink = w
	sinkMu.Unlock()
}

// SetQuiet suppresses DropMessage output when q is true.
func SetQuiet(q bool) { quiet.Store(q) }

// DropError logs "<prefix>: <err>", or just the prefix when err is nil (used
// as a cheap tag).
func DropError(prefix string, err error) {
	if err != nil {
		emit(prefix + ": " + err.Error() + "\n")
		return
	}
	emit(prefix + "\n")
}

// DropMessage logs "<prefix>: <message>" unless quiet.
func DropMessage(prefix, message string) {
	if quiet.Load() {
		return
	}
	emit(prefix + ": " + message + "\n")
}

func emit(msg string) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		utils.PrintWarning(msg)
		return
	}
	_, _ = io.WriteString(sink, msg)
}

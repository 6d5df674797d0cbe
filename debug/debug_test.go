package debug

import (
	"bytes"
	"errors"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuiet(false)
	})
	return &buf
}

func TestDropError(t *testing.T) {
	buf := capture(t)
	DropError("STORE", errors.New("disk full"))
	DropError("GC", nil)
	if got, want := buf.String(), "STORE: disk full\nGC\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

func TestDropMessage(t *testing.T) {
	buf := capture(t)
	DropMessage("RUN", "started")
	if got, want := buf.String(), "RUN: started\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

func TestQuietKeepsErrors(t *testing.T) {
	buf := capture(t)
	SetQuiet(true)
	DropMessage("RUN", "hidden")
	DropError("RUN", errors.New("shown"))
	if got, want := buf.String(), "RUN: shown\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

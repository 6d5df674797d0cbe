//go:build !linux || tinygo

// setaffinity_stub.go - No-op fallback for non-Linux or TinyGo builds.

package driver

// setAffinity is a no-op where sched_setaffinity is unavailable, so callers
// can pin unconditionally.
func setAffinity(cpu int) {}

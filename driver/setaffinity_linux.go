//go:build linux && !tinygo

// setaffinity_linux.go
//
// Pins the calling OS thread to one logical CPU with sched_setaffinity(2).
// Errors are swallowed: inside a container or a restricted cgroup the call can
// fail with EPERM/EINVAL and the fallback is simply "no pin".

package driver

import "golang.org/x/sys/unix"

// setAffinity pins the *current thread* to cpu (0-based).  Negative indices
// and CPUs beyond the kernel's mask size are ignored.
func setAffinity(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Set(cpu)
	if set.Count() == 0 {
		return
	}
	_ = unix.SchedSetaffinity(0, &set) // pid 0 → current thread
}

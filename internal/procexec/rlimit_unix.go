//go:build unix

package procexec

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// applySysProcAttr puts the child in its own process group (so a timeout or
// shutdown can signal the whole tree, not just the directly spawned PID).
// The zeroed core dump size is applied by setResourceCaps.
func applySysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// setResourceCaps applies the remaining POSIX resource limits spec.md §4.5
// step 3 requires: CPU-seconds soft/hard, address-space cap, open-file-
// descriptor cap, and a zeroed core dump. Go's exec package forks on the
// calling OS thread, so these must be set here, on the goroutine that calls
// cmd.Start, with the thread locked so the runtime cannot reschedule the
// goroutine mid-fork onto a thread with different limits.
//
// The limits are applied to the current thread's limits before Start and
// restored immediately after, since Setrlimit has no "for this fork only"
// scope; restoring keeps the server process itself from inheriting the cap.
func setResourceCaps(cpuSoftSec, cpuHardSec uint64, memBytes, maxOpenFiles uint64) (restore func(), err error) {
	saved := map[int]unix.Rlimit{}

	set := func(which int, lim unix.Rlimit) error {
		var prev unix.Rlimit
		if err := unix.Getrlimit(which, &prev); err == nil {
			saved[which] = prev
		}
		return unix.Setrlimit(which, &lim)
	}

	if err := set(unix.RLIMIT_CPU, unix.Rlimit{Cur: cpuSoftSec, Max: cpuHardSec}); err != nil {
		return nil, err
	}
	if err := set(unix.RLIMIT_AS, unix.Rlimit{Cur: memBytes, Max: memBytes}); err != nil {
		return nil, err
	}
	if err := set(unix.RLIMIT_NOFILE, unix.Rlimit{Cur: maxOpenFiles, Max: maxOpenFiles}); err != nil {
		return nil, err
	}
	if err := set(unix.RLIMIT_CORE, unix.Rlimit{Cur: 0, Max: 0}); err != nil {
		return nil, err
	}

	return func() {
		for which, lim := range saved {
			l := lim
			_ = unix.Setrlimit(which, &l)
		}
	}, nil
}

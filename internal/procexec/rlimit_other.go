//go:build !unix

package procexec

import "os/exec"

// applySysProcAttr is a no-op on non-POSIX platforms: there is no process
// group concept to opt into, so timeout/cancellation can only signal the
// directly spawned process (see kill_other.go).
func applySysProcAttr(cmd *exec.Cmd) {}

// setResourceCaps is unsupported outside POSIX. Per spec.md §4.5 step 3 this
// is a documented gap, not an error: the caller proceeds without caps rather
// than failing every execution on platforms with no rlimit equivalent.
func setResourceCaps(cpuSoftSec, cpuHardSec uint64, memBytes, maxOpenFiles uint64) (restore func(), err error) {
	return func() {}, nil
}

//go:build !unix

package procexec

import (
	"os/exec"
	"time"
)

// killProcessGroup falls back to killing only the directly spawned process;
// there is no portable process-group signal outside POSIX.
func killProcessGroup(cmd *exec.Cmd, graceTimeout time.Duration) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

// killProcessGroupNow falls back to killing only the directly spawned
// process; there is no portable process-group signal outside POSIX.
func killProcessGroupNow(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

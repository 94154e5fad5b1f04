package procexec

import (
	"os/exec"
	"sync"
	"time"
)

// Tracker is the process-wide registry of currently running subprocesses,
// used only at server shutdown to terminate every live process group
// (spec.md §5's cancellation source (c)). Spawn registers/unregisters
// itself with a Tracker when one is supplied; the normal per-execution
// timeout path (source (a)) and client-disconnect path (source (b)) never
// touch it.
type Tracker struct {
	mu    sync.Mutex
	procs map[*exec.Cmd]struct{}
}

// NewTracker builds an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{procs: make(map[*exec.Cmd]struct{})}
}

func (t *Tracker) register(cmd *exec.Cmd) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.procs[cmd] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) unregister(cmd *exec.Cmd) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.procs, cmd)
	t.mu.Unlock()
}

// Shutdown sends SIGTERM to every tracked process group, waits up to grace
// for natural exit, then SIGKILLs whatever remains. Safe to call once,
// during server shutdown.
func (t *Tracker) Shutdown(grace time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	cmds := make([]*exec.Cmd, 0, len(t.procs))
	for cmd := range t.procs {
		cmds = append(cmds, cmd)
	}
	t.mu.Unlock()

	for _, cmd := range cmds {
		killProcessGroup(cmd, grace)
	}
}

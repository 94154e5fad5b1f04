// Package procexec implements the subprocess runner (C6): spawning one
// external binary with a sanitized environment and resource caps, enforcing
// a wall-clock timeout, terminating the whole process group on timeout or
// cancellation, truncating captured output, and assembling a structured
// Result.
//
// Grounded on the teacher's internal/runtime (native.go's pipe wiring,
// kill.go's process-group SIGTERM/SIGKILL escalation) generalized from
// "forward stdout live" to "capture, cap, and classify", plus
// golang.org/x/sys/unix (seen in itsddvn-goclaw) for the POSIX resource caps
// spec.md §4.5 step 3 requires.
package procexec

import (
	"time"

	"secmcp/internal/errs"
)

// Limits are the resource caps applied before exec, per spec.md §4.5 step 3.
type Limits struct {
	// MemoryBytes caps the child's address space (RLIMIT_AS). 0 uses the
	// package default (512 MiB).
	MemoryBytes uint64
	// MaxOpenFiles caps RLIMIT_NOFILE. 0 uses the package default (256).
	MaxOpenFiles uint64
	// MaxStdoutBytes / MaxStderrBytes cap captured output size; output past
	// the cap is dropped and the corresponding Truncated* flag is set.
	MaxStdoutBytes int
	MaxStderrBytes int
}

// DefaultLimits returns the spec's documented defaults.
func DefaultLimits() Limits {
	return Limits{
		MemoryBytes:    512 * 1024 * 1024,
		MaxOpenFiles:   256,
		MaxStdoutBytes: 1 << 20,   // 1 MiB
		MaxStderrBytes: 256 << 10, // 256 KiB
	}
}

// Result is C6's structured output, spec.md §3's ToolOutput minus the
// correlation/metadata fields C7 attaches afterward.
type Result struct {
	Stdout           string
	Stderr           string
	ReturnCode       int
	TruncatedStdout  bool
	TruncatedStderr  bool
	TimedOut         bool
	Error            string
	ErrorType        errs.ErrorType // empty when there was no error
	ExecutionSeconds float64
}

// clock lets tests substitute a deterministic time source.
var clock = func() time.Time { return time.Now() }

package procexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"secmcp/internal/errs"
)

// notFoundRC is the conventional shell return code for "command not found",
// returned when argv[0] cannot be resolved on PATH.
const notFoundRC = 127

// Spawn runs argv[0] with argv[1:] as arguments, enforcing timeout and the
// resource caps in lim. It never inherits the parent's environment beyond
// PATH (see env.go), and it terminates the whole process group rather than
// just the leading PID on timeout or cancellation.
//
// argv[0] is resolved via exec.LookPath before anything is spawned; if it
// cannot be found, Spawn returns immediately with ErrNotFound and no
// subprocess is ever created, matching the universal not-found precondition.
//
// tracker may be nil; when non-nil, the running process is registered for
// the duration of the call so a server shutdown can terminate it even
// though ctx itself is never wired to shutdown (see Tracker).
func Spawn(ctx context.Context, argv []string, timeout time.Duration, lim Limits, tracker *Tracker) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("procexec: empty argv")
	}
	if lim.MemoryBytes == 0 {
		lim.MemoryBytes = DefaultLimits().MemoryBytes
	}
	if lim.MaxOpenFiles == 0 {
		lim.MaxOpenFiles = DefaultLimits().MaxOpenFiles
	}
	if lim.MaxStdoutBytes == 0 {
		lim.MaxStdoutBytes = DefaultLimits().MaxStdoutBytes
	}
	if lim.MaxStderrBytes == 0 {
		lim.MaxStderrBytes = DefaultLimits().MaxStderrBytes
	}

	resolved, lookErr := exec.LookPath(argv[0])
	if lookErr != nil {
		return Result{
			ReturnCode: notFoundRC,
			Error:      fmt.Sprintf("%s: not found on PATH", argv[0]),
			ErrorType:  errs.ErrNotFound,
		}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(resolved, argv[1:]...)
	cmd.Env = minimalEnv()
	applySysProcAttr(cmd)

	cpuSoft := uint64(timeout.Seconds())
	if cpuSoft == 0 {
		cpuSoft = 1
	}
	restore, rlErr := setResourceCaps(cpuSoft, cpuSoft+5, lim.MemoryBytes, lim.MaxOpenFiles)
	if rlErr != nil {
		return Result{
			ReturnCode: 1,
			Error:      fmt.Sprintf("failed to apply resource caps: %v", rlErr),
			ErrorType:  errs.ErrExecution,
		}, nil
	}

	var stdout, stderr capBuffer
	stdout.limit = lim.MaxStdoutBytes
	stderr.limit = lim.MaxStderrBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := clock()
	startErr := cmd.Start()
	restore()
	if startErr != nil {
		return Result{
			ReturnCode: 1,
			Error:      fmt.Sprintf("failed to start %s: %v", resolved, startErr),
			ErrorType:  errs.ErrExecution,
		}, nil
	}

	tracker.register(cmd)
	defer tracker.unregister(cmd)

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var (
		waitErr  error
		timedOut bool
	)
	select {
	case waitErr = <-waitDone:
	case <-runCtx.Done():
		timedOut = true
		killProcessGroupNow(cmd)
		<-waitDone // reap; output captured so far is preserved below
	}
	elapsed := clock().Sub(start).Seconds()

	res := Result{
		Stdout:           stdout.String(),
		Stderr:           stderr.String(),
		TruncatedStdout:  stdout.truncated,
		TruncatedStderr:  stderr.truncated,
		ExecutionSeconds: elapsed,
	}

	switch {
	case timedOut:
		res.TimedOut = true
		res.ReturnCode = 124
		res.Error = fmt.Sprintf("execution exceeded %s timeout", timeout)
		res.ErrorType = errs.ErrTimeout
	case waitErr != nil:
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			res.ReturnCode = exitErr.ExitCode()
			if res.ReturnCode != 0 {
				res.Error = "command exited with non-zero status"
				res.ErrorType = errs.ErrExecution
			}
		} else {
			res.ReturnCode = 1
			res.Error = waitErr.Error()
			res.ErrorType = errs.ErrExecution
		}
	default:
		res.ReturnCode = 0
	}

	return res, nil
}

// capBuffer is a bytes.Buffer that silently drops writes past limit and
// records that truncation happened, instead of growing unbounded.
type capBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *capBuffer) Write(p []byte) (int, error) {
	if c.buf.Len() >= c.limit {
		c.truncated = true
		return len(p), nil
	}
	room := c.limit - c.buf.Len()
	if len(p) > room {
		c.truncated = true
		c.buf.Write(p[:room])
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

func (c *capBuffer) String() string { return c.buf.String() }

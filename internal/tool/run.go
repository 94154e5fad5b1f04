package tool

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/limiter"
	"secmcp/internal/policy"
	"secmcp/internal/procexec"
	"secmcp/internal/sanitize"
)

// Metrics is the subset of C11 a Tool needs. Defined here, rather than
// imported from internal/metrics, so this package stays free of a
// dependency edge metrics doesn't need back (metrics records executions;
// it never composes a Tool).
type Metrics interface {
	RecordExecution(toolName string, success, timedOut bool, errType errs.ErrorType, duration time.Duration)
	SetActive(toolName string, delta int)
	SetBreakerState(toolName string, state float64)
}

// Tool is a descriptor plus everything C7's run pipeline needs: the shared
// target policy, this tool's own breaker, and the process-wide semaphore
// registry (keyed internally on (tool, scheduler)).
type Tool struct {
	Descriptor Descriptor

	policy  policy.Policy
	brk     *breaker.Breaker
	limiter *limiter.Registry
	metrics Metrics
	tracker *procexec.Tracker
	limits  procexec.Limits
	enabled bool
}

// SetLimits overrides the resource caps procexec.Spawn enforces for every
// run of this tool; the zero value means "use procexec's own defaults".
// Called once at startup from internal/app, fed from the resolved config's
// limits section (MCP_MAX_MEMORY_MB, MCP_MAX_FILE_DESCRIPTORS,
// MCP_MAX_STDOUT_BYTES, MCP_MAX_STDERR_BYTES).
func (t *Tool) SetLimits(lim procexec.Limits) { t.limits = lim }

// New builds a Tool. brk is this tool's own breaker (one per tool, owned by
// the caller's breaker.Registry); lim is the process-wide semaphore
// registry shared across every tool; tracker is the process-wide subprocess
// tracker used only at server shutdown (nil is fine outside internal/app's
// wiring, e.g. in tests).
func New(desc Descriptor, brk *breaker.Breaker, lim *limiter.Registry, m Metrics, tracker *procexec.Tracker) *Tool {
	maxCIDR := desc.TargetMaxCIDRSize
	return &Tool{
		Descriptor: desc,
		policy:     policy.New(maxCIDR),
		brk:        brk,
		limiter:    lim,
		metrics:    m,
		tracker:    tracker,
		enabled:    true,
	}
}

// SetEnabled toggles availability; Run on a disabled tool returns
// validation_error without touching the breaker, limiter, or subprocess
// runner, per spec.md §4.7.
func (t *Tool) SetEnabled(enabled bool) { t.enabled = enabled }

// Enabled reports the current enabled state.
func (t *Tool) Enabled() bool { return t.enabled }

// Run implements the C7 contract: run(input, timeout_override) -> ToolOutput.
// schedulerID identifies the caller's scheduling context for C5's per-
// (tool, scheduler) semaphore (e.g. "http" or "stdio").
func (t *Tool) Run(ctx context.Context, input Input, timeoutOverride time.Duration, schedulerID string) Output {
	start := time.Now()
	corrID := input.CorrelationID

	fail := func(errType errs.ErrorType, message string, returnCode int) Output {
		return Output{
			ReturnCode:         returnCode,
			Error:              message,
			ErrorType:          errType,
			RecoverySuggestion: errs.RecoverySuggestion(errType),
			ExecutionTime:      time.Since(start).Seconds(),
			CorrelationID:      corrID,
			Metadata:           t.Descriptor.Metadata,
		}
	}

	if !t.enabled {
		return fail(errs.ErrValidation, fmt.Sprintf("tool %q is disabled", t.Descriptor.Name), 1)
	}

	// Step 1: resolve command_name; not_found short-circuits before any
	// other check runs, matching the universal not-found precondition.
	if _, err := exec.LookPath(t.Descriptor.CommandName); err != nil {
		return fail(errs.ErrNotFound, fmt.Sprintf("%s: not found on PATH", t.Descriptor.CommandName), 127)
	}

	// Step 2: target policy (C2). A target carrying an http(s) scheme (e.g.
	// sqlmap, gobuster's dir/vhost modes) is checked on its host, not its
	// full URL string.
	if err := t.policy.Check(policyHost(input.Target)); err != nil {
		out := fail(errs.ErrValidation, err.Error(), 1)
		out.RecoverySuggestion = "use an RFC1918/loopback address or CIDR, or a *.lab.internal hostname"
		return out
	}

	// Step 2 (cont'd): argument sanitizer (C3).
	tokens, err := sanitize.Sanitize(input.ExtraArgs, t.Descriptor.Policy)
	if err != nil {
		return fail(errs.Classify(err), err.Error(), 1)
	}

	// Step 3: per-tool extra validation.
	if t.Descriptor.Validate != nil {
		if err := t.Descriptor.Validate(input, tokens); err != nil {
			return fail(errs.Classify(err), err.Error(), 1)
		}
	}

	// Step 4: optimizer, then fold the authorized target into the argv.
	if t.Descriptor.Optimize != nil {
		tokens = t.Descriptor.Optimize(tokens)
	}
	tokens = t.Descriptor.mergeTarget(tokens, input.Target)

	// Step 5: circuit breaker gate.
	if !t.brk.Allow() {
		out := fail(errs.ErrCircuitBreakerOpen, fmt.Sprintf("circuit breaker open for tool %q", t.Descriptor.Name), 1)
		t.metrics.SetBreakerState(t.Descriptor.Name, t.brk.State().Metric())
		return out
	}

	// Step 6: concurrency limiter, cancellable.
	release, err := t.limiter.Acquire(ctx, t.Descriptor.Name, schedulerID)
	if err != nil {
		return fail(errs.ErrResourceExhausted, "execution cancelled while waiting for a concurrency slot", 1)
	}
	t.metrics.SetActive(t.Descriptor.Name, 1)
	defer func() {
		t.metrics.SetActive(t.Descriptor.Name, -1)
		release()
	}()

	// Step 7: subprocess runner. Deliberately detached from ctx: a transport-
	// level client disconnect must cancel a pending semaphore acquire (above)
	// but must NOT kill an already-running subprocess — the execution runs
	// to completion (or its own timeout) and still counts in metrics.
	timeout := t.Descriptor.effectiveTimeout(input, timeoutOverride)
	argv := append([]string{t.Descriptor.CommandName}, tokens...)
	res, spawnErr := procexec.Spawn(context.Background(), argv, timeout, t.limits, t.tracker)

	var out Output
	if spawnErr != nil {
		out = fail(errs.ErrUnknown, spawnErr.Error(), 1)
	} else {
		out = Output{
			Stdout:          res.Stdout,
			Stderr:          res.Stderr,
			ReturnCode:      res.ReturnCode,
			TruncatedStdout: res.TruncatedStdout,
			TruncatedStderr: res.TruncatedStderr,
			TimedOut:        res.TimedOut,
			Error:           res.Error,
			ErrorType:       res.ErrorType,
		}
		if out.ErrorType != "" {
			out.RecoverySuggestion = errs.RecoverySuggestion(out.ErrorType)
		}
	}

	// Step 8: record metrics and breaker outcome.
	success := out.ReturnCode == 0 && !out.TimedOut && out.ErrorType == ""
	duration := time.Since(start)
	t.brk.Record(success)
	t.metrics.SetBreakerState(t.Descriptor.Name, t.brk.State().Metric())
	t.metrics.RecordExecution(t.Descriptor.Name, success, out.TimedOut, out.ErrorType, duration)

	// Step 10: attach correlation id, execution time, metadata.
	out.CorrelationID = corrID
	out.ExecutionTime = duration.Seconds()
	out.Metadata = t.Descriptor.Metadata

	return out
}

// policyHost strips an http(s) scheme and path from target, leaving the
// bare host (with any port) C2 expects. Targets with no scheme pass through
// unchanged.
func policyHost(target string) string {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	return u.Hostname()
}

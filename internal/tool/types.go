// Package tool implements the Tool abstraction (C7): a descriptor bound to a
// command name, its allowed flags, defaults, optimizer, and tool-specific
// validators, composing policy (C2), sanitize (C3), breaker (C4), limiter
// (C5) and procexec (C6) into one `run` operation.
//
// Grounded on the teacher's internal/core Tool struct (one breaker, one
// semaphore reference, one Run method per tool) generalized from "shell out
// to a configured command" to the full validate/optimize/gate/spawn
// pipeline spec.md §4.6 describes.
package tool

import (
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/sanitize"
)

// Input is ToolInput: a single request's parameters, immutable once built.
type Input struct {
	Target        string
	ExtraArgs     string
	TimeoutSec    float64 // 0 means "not set"; effective timeout falls back
	CorrelationID string
}

// Output is ToolOutput: the caller-facing result of one execution attempt.
type Output struct {
	Stdout             string            `json:"stdout"`
	Stderr             string            `json:"stderr"`
	ReturnCode         int               `json:"returncode"`
	TruncatedStdout    bool              `json:"truncated_stdout"`
	TruncatedStderr    bool              `json:"truncated_stderr"`
	TimedOut           bool              `json:"timed_out"`
	Error              string            `json:"error,omitempty"`
	ErrorType          errs.ErrorType    `json:"error_type,omitempty"`
	ExecutionTime      float64           `json:"execution_time"`
	CorrelationID      string            `json:"correlation_id"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	RecoverySuggestion string            `json:"recovery_suggestion,omitempty"`
}

// Validator applies per-tool extra validation beyond the generic C2/C3
// checks (spec.md §4.6 step 3): URL scheme checks, mode/target compatibility,
// network-size caps already covered by Check but restated per descriptor.
type Validator func(input Input, tokens []string) error

// Descriptor is ToolDescriptor: the process-lifetime, immutable-after-load
// configuration for one tool class.
type Descriptor struct {
	Name        string
	CommandName string

	Policy sanitize.Policy

	DefaultTimeoutSec float64
	Concurrency       int
	BreakerParams     breaker.Params

	// Validate runs after C2/C3 but before the optimizer, per spec.md §4.6
	// step 3. May be nil.
	Validate Validator

	// Optimize applies tool-specific default-argument injection (step 4).
	// May be nil, in which case sanitized tokens pass through unchanged.
	Optimize func(tokens []string) []string

	// MergeTarget folds the authorized target into the final argv. Some
	// tools take the target positionally, last (nmap, hydra's host
	// argument); others bind it to a flag instead (gobuster's -u/-d,
	// sqlmap's -u). Nil defaults to appending target as the final
	// positional token.
	MergeTarget func(tokens []string, target string) []string

	// TargetMaxCIDRSize overrides policy.DefaultMaxCIDRSize for this
	// descriptor's C2 check; 0 uses the package default.
	TargetMaxCIDRSize int

	// Metadata is returned verbatim in every ToolOutput.Metadata.
	Metadata map[string]string
}

// mergeTarget folds target into tokens using the descriptor's MergeTarget,
// or the default (append last) when none is set.
func (d Descriptor) mergeTarget(tokens []string, target string) []string {
	if d.MergeTarget != nil {
		return d.MergeTarget(tokens, target)
	}
	return append(append([]string{}, tokens...), target)
}

func (d Descriptor) effectiveTimeout(input Input, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if input.TimeoutSec > 0 {
		return time.Duration(input.TimeoutSec * float64(time.Second))
	}
	if d.DefaultTimeoutSec > 0 {
		return time.Duration(d.DefaultTimeoutSec * float64(time.Second))
	}
	return 30 * time.Second
}

// Package transport implements the transport/dispatcher (C9): the HTTP and
// stdio surfaces that map a request onto the registry -> tool -> result
// pipeline. Neither surface talks to procexec, breaker, or limiter
// directly; both go through a *tool.Tool via the registry.
package transport

import "secmcp/internal/tool"

// ExecuteRequest is the wire shape of a POST /tools/{name}/execute body and
// of a stdio execute_tool request's params.
type ExecuteRequest struct {
	Target        string   `json:"target"`
	ExtraArgs     string   `json:"extra_args"`
	TimeoutSec    *float64 `json:"timeout_sec"`
	CorrelationID *string  `json:"correlation_id"`
}

func (r ExecuteRequest) toInput() tool.Input {
	in := tool.Input{Target: r.Target, ExtraArgs: r.ExtraArgs}
	if r.TimeoutSec != nil {
		in.TimeoutSec = *r.TimeoutSec
	}
	if r.CorrelationID != nil {
		in.CorrelationID = *r.CorrelationID
	}
	return in
}

// ExecuteResponse mirrors tool.Output field-for-field, with the wire-stable
// JSON keys spec.md §6 fixes (execution_time, not execution_time_seconds).
type ExecuteResponse struct {
	Stdout             string            `json:"stdout"`
	Stderr             string            `json:"stderr"`
	ReturnCode         int               `json:"returncode"`
	TruncatedStdout    bool              `json:"truncated_stdout"`
	TruncatedStderr    bool              `json:"truncated_stderr"`
	TimedOut           bool              `json:"timed_out"`
	Error              *string           `json:"error"`
	ErrorType          *string           `json:"error_type"`
	ExecutionTime      float64           `json:"execution_time"`
	CorrelationID      string            `json:"correlation_id"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	RecoverySuggestion string            `json:"recovery_suggestion,omitempty"`
}

func toExecuteResponse(out tool.Output) ExecuteResponse {
	resp := ExecuteResponse{
		Stdout:             out.Stdout,
		Stderr:             out.Stderr,
		ReturnCode:         out.ReturnCode,
		TruncatedStdout:    out.TruncatedStdout,
		TruncatedStderr:    out.TruncatedStderr,
		TimedOut:           out.TimedOut,
		ExecutionTime:      out.ExecutionTime,
		CorrelationID:      out.CorrelationID,
		Metadata:           out.Metadata,
		RecoverySuggestion: out.RecoverySuggestion,
	}
	if out.Error != "" {
		resp.Error = &out.Error
	}
	if out.ErrorType != "" {
		s := string(out.ErrorType)
		resp.ErrorType = &s
	}
	return resp
}

// ToolSummary is one entry of the GET /tools response.
type ToolSummary struct {
	Name         string   `json:"name"`
	Enabled      bool     `json:"enabled"`
	Command      string   `json:"command"`
	Concurrency  int      `json:"concurrency"`
	Timeout      float64  `json:"timeout"`
	AllowedFlags []string `json:"allowed_flags"`
}

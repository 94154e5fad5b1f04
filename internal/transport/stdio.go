package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"secmcp/internal/observability/logging"
	"secmcp/internal/registry"
)

// stdioRequest is one newline-delimited JSON request: {"id":"1","method":
// "execute_tool","params":{"name":"nmap","input":{...}}}.
type stdioRequest struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type executeToolParams struct {
	Name  string         `json:"name"`
	Input ExecuteRequest `json:"input"`
}

// Stdio is C9's stdio surface: newline-delimited JSON-RPC-style requests
// on stdin, matching responses on stdout, one line each.
type Stdio struct {
	reg *registry.Registry
	in  io.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewStdio builds a Stdio transport reading os.Stdin and writing os.Stdout.
func NewStdio(reg *registry.Registry) *Stdio {
	return &Stdio{reg: reg, in: os.Stdin, out: os.Stdout}
}

// Run reads one JSON request per line until stdin closes or ctx is done.
func (s *Stdio) Run(ctx context.Context) error {
	sc := bufio.NewScanner(s.in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := sc.Bytes()
		trimmed := trimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		var req stdioRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			_ = s.emit("", "error", map[string]any{"error": "invalid_json", "detail": err.Error()})
			continue
		}

		s.dispatch(ctx, req)
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan stdin: %w", err)
	}
	return nil
}

func (s *Stdio) dispatch(ctx context.Context, req stdioRequest) {
	switch req.Method {
	case "list_tools":
		s.handleListTools(req)
	case "execute_tool":
		s.handleExecuteTool(ctx, req)
	default:
		_ = s.emit(req.ID, "error", map[string]any{"error": "unknown_method", "method": req.Method})
	}
}

func (s *Stdio) handleListTools(req stdioRequest) {
	names := s.reg.Names()
	summaries := make([]ToolSummary, 0, len(names))
	for _, name := range names {
		t, ok := s.reg.Get(name)
		if !ok {
			continue
		}
		d := t.Descriptor
		flags := make([]string, 0, len(d.Policy.AllowedFlags))
		for f := range d.Policy.AllowedFlags {
			flags = append(flags, f)
		}
		sort.Strings(flags)
		summaries = append(summaries, ToolSummary{
			Name:         d.Name,
			Enabled:      t.Enabled(),
			Command:      d.CommandName,
			Concurrency:  d.Concurrency,
			Timeout:      d.DefaultTimeoutSec,
			AllowedFlags: flags,
		})
	}
	_ = s.emit(req.ID, "result", map[string]any{"tools": summaries})
}

func (s *Stdio) handleExecuteTool(ctx context.Context, req stdioRequest) {
	var params executeToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		_ = s.emit(req.ID, "error", map[string]any{"error": "invalid_params", "detail": err.Error()})
		return
	}

	t, ok := s.reg.Get(params.Name)
	if !ok {
		_ = s.emit(req.ID, "error", map[string]any{"error": "unknown_tool", "name": params.Name})
		return
	}
	if !t.Enabled() {
		_ = s.emit(req.ID, "error", map[string]any{"error": "tool_disabled", "name": params.Name})
		return
	}

	reqCtx, rid := logging.EnsureRequestID(ctx)
	if params.Input.CorrelationID == nil {
		params.Input.CorrelationID = &rid
	}
	out := t.Run(reqCtx, params.Input.toInput(), 0, "stdio")
	_ = s.emit(req.ID, "result", toExecuteResponse(out))
}

func (s *Stdio) emit(id, event string, payload any) error {
	resp := map[string]any{"event": event}
	if id != "" {
		resp["id"] = id
	}
	resp["data"] = payload

	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(append(b, '\n'))
	return err
}

func trimSpace(b []byte) []byte {
	i, j := 0, len(b)
	for i < j {
		c := b[i]
		if c != ' ' && c != '\n' && c != '\r' && c != '\t' {
			break
		}
		i++
	}
	for j > i {
		c := b[j-1]
		if c != ' ' && c != '\n' && c != '\r' && c != '\t' {
			break
		}
		j--
	}
	return b[i:j]
}

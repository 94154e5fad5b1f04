package tool

import (
	"context"
	"testing"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/limiter"
)

type noopMetrics struct {
	recorded []errs.ErrorType
}

func (m *noopMetrics) RecordExecution(toolName string, success, timedOut bool, errType errs.ErrorType, duration time.Duration) {
	m.recorded = append(m.recorded, errType)
}
func (m *noopMetrics) SetActive(toolName string, delta int)         {}
func (m *noopMetrics) SetBreakerState(toolName string, state float64) {}

func newTestTool(desc Descriptor) (*Tool, *noopMetrics) {
	brk := breaker.New(desc.BreakerParams)
	lim := limiter.NewRegistry(func(string) int { return desc.Concurrency })
	m := &noopMetrics{}
	return New(desc, brk, lim, m, nil), m
}

func TestRun_RejectsUnauthorizedTarget(t *testing.T) {
	desc := NetworkScanner(false)
	desc.CommandName = "/bin/true"
	tl, _ := newTestTool(desc)
	out := tl.Run(context.Background(), Input{Target: "8.8.8.8"}, 0, "http")
	if out.ErrorType != errs.ErrValidation {
		t.Fatalf("ErrorType = %q, want %q", out.ErrorType, errs.ErrValidation)
	}
}

func TestRun_NotFoundWhenBinaryMissing(t *testing.T) {
	desc := NetworkScanner(false)
	desc.CommandName = "definitely-not-a-real-binary-xyz"
	tl, _ := newTestTool(desc)
	out := tl.Run(context.Background(), Input{Target: "192.168.1.1"}, 0, "http")
	if out.ErrorType != errs.ErrNotFound {
		t.Fatalf("ErrorType = %q, want %q", out.ErrorType, errs.ErrNotFound)
	}
	if out.ReturnCode != 127 {
		t.Errorf("ReturnCode = %d, want 127", out.ReturnCode)
	}
}

func TestRun_DisabledToolRejectsWithoutTouchingBreaker(t *testing.T) {
	desc := NetworkScanner(false)
	desc.CommandName = "/bin/true"
	tl, _ := newTestTool(desc)
	tl.SetEnabled(false)
	out := tl.Run(context.Background(), Input{Target: "192.168.1.1"}, 0, "http")
	if out.ErrorType != errs.ErrValidation {
		t.Fatalf("ErrorType = %q, want %q", out.ErrorType, errs.ErrValidation)
	}
	if tl.brk.State() != breaker.Closed {
		t.Error("breaker state must not change for a disabled tool")
	}
}

func TestRun_GobusterRequiresMode(t *testing.T) {
	tl, _ := newTestTool(ContentBruteForcer())
	tl.Descriptor.CommandName = "/bin/true"
	out := tl.Run(context.Background(), Input{Target: "http://192.168.1.1"}, 0, "http")
	if out.ErrorType != errs.ErrValidation {
		t.Fatalf("ErrorType = %q, want %q", out.ErrorType, errs.ErrValidation)
	}
}

func TestRun_SQLiRejectsNonHTTPTarget(t *testing.T) {
	desc := SQLiTester()
	desc.CommandName = "/bin/true"
	tl, _ := newTestTool(desc)
	out := tl.Run(context.Background(), Input{Target: "192.168.1.1"}, 0, "http")
	if out.ErrorType != errs.ErrValidation {
		t.Fatalf("ErrorType = %q, want %q", out.ErrorType, errs.ErrValidation)
	}
}

func TestMergeTarget_NmapDefaultAppendsLast(t *testing.T) {
	desc := NetworkScanner(false)
	got := desc.mergeTarget([]string{"-T4", "--top-ports", "10"}, "192.168.1.1")
	want := []string{"-T4", "--top-ports", "10", "192.168.1.1"}
	if len(got) != len(want) || got[len(got)-1] != "192.168.1.1" {
		t.Errorf("mergeTarget = %v, want target appended last: %v", got, want)
	}
}

package registry

import (
	"testing"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/limiter"
	"secmcp/internal/tool"
)

type noopMetrics struct{}

func (noopMetrics) RecordExecution(string, bool, bool, errs.ErrorType, time.Duration) {}
func (noopMetrics) SetActive(string, int)                                            {}
func (noopMetrics) SetBreakerState(string, float64)                                   {}

func newTestRegistry(filter Filter) *Registry {
	brkReg := breaker.NewRegistry(func(name string) breaker.Params { return breaker.Params{} })
	limReg := limiter.NewRegistry(func(string) int { return 1 })
	return New(tool.Catalog(false), filter, brkReg, limReg, noopMetrics{}, nil)
}

func TestNew_DiscoversAllFourByDefault(t *testing.T) {
	r := newTestRegistry(Filter{})
	names := r.Names()
	if len(names) != 4 {
		t.Fatalf("got %d tools, want 4: %v", len(names), names)
	}
}

func TestNew_ExcludeStaysRegisteredButDisabled(t *testing.T) {
	r := newTestRegistry(Filter{Exclude: []string{"sqlmap"}})
	sqlmapTool, ok := r.Get("sqlmap")
	if !ok {
		t.Fatal("sqlmap should still be registered, just disabled")
	}
	if sqlmapTool.Enabled() {
		t.Error("sqlmap should be disabled")
	}
	nmapTool, ok := r.Get("nmap")
	if !ok || !nmapTool.Enabled() {
		t.Error("nmap should still be registered and enabled")
	}
	if len(r.Names()) != 4 {
		t.Fatalf("got %d tools, want 4 (exclude disables, never removes): %v", len(r.Names()), r.Names())
	}
}

func TestNew_IncludeDisablesUnlistedTools(t *testing.T) {
	r := newTestRegistry(Filter{Include: []string{"nmap", "hydra"}})
	if len(r.Names()) != 4 {
		t.Fatalf("got %d tools, want 4 (include disables, never removes): %v", len(r.Names()), r.Names())
	}
	nmapTool, _ := r.Get("nmap")
	if !nmapTool.Enabled() {
		t.Error("nmap should be enabled (listed in Include)")
	}
	sqlmapTool, _ := r.Get("sqlmap")
	if sqlmapTool.Enabled() {
		t.Error("sqlmap should be disabled (not listed in Include)")
	}
}

func TestSetEnabled_UnknownToolErrors(t *testing.T) {
	r := newTestRegistry(Filter{})
	if err := r.SetEnabled("does-not-exist", false); err == nil {
		t.Error("expected an error for an unregistered tool")
	}
}

func TestSetEnabled_DisablesTool(t *testing.T) {
	r := newTestRegistry(Filter{})
	if err := r.SetEnabled("nmap", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nmapTool, _ := r.Get("nmap")
	if nmapTool.Enabled() {
		t.Error("expected nmap to be disabled")
	}
}

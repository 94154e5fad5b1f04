package health

import (
	"context"
	"testing"
)

func healthyCheck(name string, priority int) Check {
	return Check{Name: name, Priority: priority, Probe: func(context.Context) Result {
		return Result{Name: name, Status: Healthy}
	}}
}

func statusCheck(name string, priority int, status Status) Check {
	return Check{Name: name, Priority: priority, Probe: func(context.Context) Result {
		return Result{Name: name, Status: status}
	}}
}

func TestComposite_AllHealthy(t *testing.T) {
	a := New([]Check{healthyCheck("a", 0), healthyCheck("b", 1)}, -1)
	rep := a.Run(context.Background())
	if rep.Status != Healthy {
		t.Errorf("Status = %q, want healthy", rep.Status)
	}
}

func TestComposite_Priority0UnhealthyWins(t *testing.T) {
	a := New([]Check{
		statusCheck("p0", 0, Unhealthy),
		healthyCheck("p1", 1),
	}, -1)
	rep := a.Run(context.Background())
	if rep.Status != Unhealthy {
		t.Errorf("Status = %q, want unhealthy", rep.Status)
	}
}

func TestComposite_Priority1UnhealthyDegradesOnly(t *testing.T) {
	a := New([]Check{
		healthyCheck("p0", 0),
		statusCheck("p1", 1, Unhealthy),
	}, -1)
	rep := a.Run(context.Background())
	if rep.Status != Degraded {
		t.Errorf("Status = %q, want degraded", rep.Status)
	}
}

func TestComposite_Priority0DegradedDegradesOnly(t *testing.T) {
	a := New([]Check{
		statusCheck("p0", 0, Degraded),
	}, -1)
	rep := a.Run(context.Background())
	if rep.Status != Degraded {
		t.Errorf("Status = %q, want degraded", rep.Status)
	}
}

func TestLatest_ReturnsCachedSnapshotWithoutRerunning(t *testing.T) {
	calls := 0
	check := Check{Name: "counter", Priority: 0, Probe: func(context.Context) Result {
		calls++
		return Result{Name: "counter", Status: Healthy}
	}}
	a := New([]Check{check}, -1)
	if calls != 1 {
		t.Fatalf("expected exactly one probe on construction, got %d", calls)
	}
	_ = a.Latest()
	if calls != 1 {
		t.Errorf("Latest() must not re-run checks, got %d calls", calls)
	}
}

func TestToolAvailabilityCheck_MissingBinaryIsUnhealthy(t *testing.T) {
	check := ToolAvailabilityCheck(func() map[string]string {
		return map[string]string{"nmap": "definitely-not-a-real-binary-xyz"}
	})
	res := check.Probe(context.Background())
	if res.Status != Unhealthy {
		t.Errorf("Status = %q, want unhealthy", res.Status)
	}
}

func TestToolAvailabilityCheck_AllPresentIsHealthy(t *testing.T) {
	check := ToolAvailabilityCheck(func() map[string]string {
		return map[string]string{"shell": "/bin/sh"}
	})
	res := check.Probe(context.Background())
	if res.Status != Healthy {
		t.Errorf("Status = %q, want healthy", res.Status)
	}
}

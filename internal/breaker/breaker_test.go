package breaker

import (
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New(Params{FailureThreshold: 3, RecoveryTimeout: time.Minute, HalfOpenThreshold: 1})

	for i := 0; i < 2; i++ {
		if !b.Allow() {
			t.Fatalf("expected Allow() true before threshold is reached")
		}
		b.Record(false)
	}
	if b.State() != Closed {
		t.Fatalf("expected CLOSED before threshold, got %s", b.State())
	}

	b.Record(false) // third consecutive failure crosses the threshold
	if b.State() != Open {
		t.Fatalf("expected OPEN after threshold failures, got %s", b.State())
	}
	if b.Allow() {
		t.Fatal("expected Allow() false while OPEN and before recovery timeout")
	}
}

func TestBreaker_HalfOpenThenClose(t *testing.T) {
	now := time.Now()
	b := New(Params{FailureThreshold: 1, RecoveryTimeout: 10 * time.Second, HalfOpenThreshold: 2})
	b.now = func() time.Time { return now }

	b.Record(false) // opens immediately (threshold 1)
	if b.State() != Open {
		t.Fatalf("expected OPEN, got %s", b.State())
	}

	// Before the recovery window elapses, still denied.
	now = now.Add(5 * time.Second)
	if b.Allow() {
		t.Fatal("expected Allow() false before recovery timeout elapses")
	}

	// After the recovery window elapses, the breaker flips to HALF_OPEN and
	// allows probing calls again.
	now = now.Add(10 * time.Second)
	if !b.Allow() {
		t.Fatal("expected Allow() true once recovery timeout elapses")
	}
	if b.State() != HalfOpen {
		t.Fatalf("expected HALF_OPEN, got %s", b.State())
	}

	b.Record(true)
	if b.State() != HalfOpen {
		t.Fatalf("expected still HALF_OPEN after 1 of 2 required successes, got %s", b.State())
	}
	b.Record(true)
	if b.State() != Closed {
		t.Fatalf("expected CLOSED after reaching half_open_threshold, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := New(Params{FailureThreshold: 1, RecoveryTimeout: time.Second, HalfOpenThreshold: 1})
	b.now = func() time.Time { return now }

	b.Record(false)
	now = now.Add(2 * time.Second)
	if !b.Allow() {
		t.Fatal("expected transition to HALF_OPEN")
	}
	b.Record(false)
	if b.State() != Open {
		t.Fatalf("expected OPEN again after a HALF_OPEN failure, got %s", b.State())
	}
}

func TestClampParams(t *testing.T) {
	p := ClampParams(Params{FailureThreshold: -5, RecoveryTimeout: 0, HalfOpenThreshold: 1000})
	if p.FailureThreshold < minFailureThreshold {
		t.Errorf("FailureThreshold not clamped: %d", p.FailureThreshold)
	}
	if p.HalfOpenThreshold > maxHalfOpenThreshold {
		t.Errorf("HalfOpenThreshold not clamped: %d", p.HalfOpenThreshold)
	}
	if p.RecoveryTimeout < minRecoveryTimeout {
		t.Errorf("RecoveryTimeout not defaulted: %v", p.RecoveryTimeout)
	}
}

// Package breaker implements the per-tool circuit breaker (C4): a
// three-state failure-isolation state machine with timed recovery.
//
// Grounded on the teacher's concurrency style in internal/core (mutex-guarded
// map of per-tool state) generalized from a semaphore map to a full state
// machine, per spec.md §4.3.
package breaker

import (
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Metric returns the 0/1/2 gauge value spec.md §4.10 wants for
// circuit_breaker_state{tool}.
func (s State) Metric() float64 {
	return float64(s)
}

// Params are the descriptor-level parameters for one tool's breaker,
// clamped to safe ranges on load (see ClampParams).
type Params struct {
	FailureThreshold   int
	RecoveryTimeout    time.Duration
	HalfOpenThreshold  int
}

const (
	minFailureThreshold  = 1
	maxFailureThreshold  = 100
	minRecoveryTimeout   = time.Second
	maxRecoveryTimeout   = 30 * time.Minute
	minHalfOpenThreshold = 1
	maxHalfOpenThreshold = 20
)

// ClampParams clamps p's fields into safe operating ranges, defaulting any
// zero-valued field to a sane value first.
func ClampParams(p Params) Params {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 5
	}
	if p.RecoveryTimeout <= 0 {
		p.RecoveryTimeout = 30 * time.Second
	}
	if p.HalfOpenThreshold <= 0 {
		p.HalfOpenThreshold = 1
	}

	p.FailureThreshold = clampInt(p.FailureThreshold, minFailureThreshold, maxFailureThreshold)
	p.RecoveryTimeout = clampDuration(p.RecoveryTimeout, minRecoveryTimeout, maxRecoveryTimeout)
	p.HalfOpenThreshold = clampInt(p.HalfOpenThreshold, minHalfOpenThreshold, maxHalfOpenThreshold)
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Breaker is one tool's circuit breaker. Zero value is not usable; build via
// New. Safe for concurrent use.
type Breaker struct {
	params Params

	mu                sync.Mutex
	state             State
	consecutiveFail   int
	openedAtMonotonic time.Time
	halfOpenSuccesses int

	now func() time.Time // overridable for tests
}

// New creates a breaker lazily-created state: CLOSED, zero counters.
func New(params Params) *Breaker {
	return &Breaker{
		params: ClampParams(params),
		state:  Closed,
		now:    time.Now,
	}
}

// Allow reports whether an execution may proceed. It performs the OPEN ->
// HALF_OPEN time-elapse transition as a side effect, matching spec.md's
// table ("on time elapse").
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if b.now().Sub(b.openedAtMonotonic) >= b.params.RecoveryTimeout {
			b.state = HalfOpen
			b.halfOpenSuccesses = 0
			return true
		}
		return false
	default:
		return false
	}
}

// Record advances the state machine with the outcome of one execution.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		if success {
			b.consecutiveFail = 0
			return
		}
		b.consecutiveFail++
		if b.consecutiveFail >= b.params.FailureThreshold {
			b.state = Open
			b.openedAtMonotonic = b.now()
		}
	case HalfOpen:
		if success {
			b.halfOpenSuccesses++
			if b.halfOpenSuccesses >= b.params.HalfOpenThreshold {
				b.state = Closed
				b.consecutiveFail = 0
				b.halfOpenSuccesses = 0
			}
			return
		}
		b.state = Open
		b.openedAtMonotonic = b.now()
		b.halfOpenSuccesses = 0
	case Open:
		// A record while OPEN can only happen from a racing caller that
		// observed Allow()==true just before a concurrent timeout flip;
		// treat it like the HALF_OPEN failure path for safety.
		if !success {
			b.openedAtMonotonic = b.now()
		}
	}
}

// State returns the current state for metrics/inspection.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

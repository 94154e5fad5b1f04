// Package limiter implements the concurrency limiter (C5): a bounded,
// cancellable semaphore per (tool, scheduler) pair.
//
// Grounded on the teacher's internal/core semaphore-map ("sem map[string]chan
// struct{}"), generalized to key on (tool, scheduler) per spec.md §4.4/§9 and
// to support a cancellable acquire instead of fail-fast-only.
package limiter

import (
	"context"
	"sync"

	"secmcp/internal/errs"
)

// Semaphore is a bounded-capacity gate for one (tool, scheduler) pair.
type Semaphore struct {
	slots chan struct{}
}

func newSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done. On cancellation it
// returns ctx.Err() and does not count against the semaphore. Release is the
// caller's responsibility on every path that successfully acquired.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	default:
	}

	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees one slot. Safe to call at most once per successful Acquire.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
	}
}

// key identifies one (tool, scheduler) semaphore.
type key struct {
	tool      string
	scheduler string
}

// Registry owns one Semaphore per (tool, scheduler) pair, created lazily on
// first acquire and persisting for the scheduling context's lifetime, per
// spec.md §3's Semaphore relationship and §9's "explicit registry, not class
// statics" design note.
type Registry struct {
	mu    sync.Mutex
	sems  map[key]*Semaphore
	capFn func(toolName string) int
}

// NewRegistry builds a Registry that resolves a tool's configured
// concurrency via capFn the first time a (tool, scheduler) pair is seen.
func NewRegistry(capFn func(toolName string) int) *Registry {
	return &Registry{
		sems:  make(map[key]*Semaphore),
		capFn: capFn,
	}
}

func (r *Registry) get(toolName, schedulerID string) *Semaphore {
	k := key{tool: toolName, scheduler: schedulerID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sems[k]; ok {
		return s
	}
	s := newSemaphore(r.capFn(toolName))
	r.sems[k] = s
	return s
}

// Acquire acquires the slot for (toolName, schedulerID), honoring ctx
// cancellation. On cancellation, returns an *errs.ValidationError-free
// context error (callers typically translate this to resource_exhausted via
// errs.ErrResourceExhausted if they choose to fail fast instead of waiting).
func (r *Registry) Acquire(ctx context.Context, toolName, schedulerID string) (release func(), err error) {
	sem := r.get(toolName, schedulerID)
	if err := sem.Acquire(ctx); err != nil {
		return nil, err
	}
	return sem.Release, nil
}

// TryAcquire acquires without blocking; it returns
// *errs.ValidationError{Type: errs.ErrResourceExhausted} immediately if the
// tool is already at its concurrency cap for this scheduler. Used by
// transports that prefer fail-fast over queuing (mirrors the teacher's
// ErrToolBusy semantics).
func (r *Registry) TryAcquire(toolName, schedulerID string) (release func(), err error) {
	sem := r.get(toolName, schedulerID)
	select {
	case sem.slots <- struct{}{}:
		return sem.Release, nil
	default:
		return nil, &errs.ValidationError{Type: errs.ErrResourceExhausted, Reason: "tool concurrency limit reached"}
	}
}

package breaker

import "sync"

// Registry owns one Breaker per tool, created lazily on first use and
// destroyed only on process exit (spec.md §3's CircuitBreakerState
// lifecycle). Kept as an explicit registry, not a tool-struct static field,
// per spec.md §9's "per-class shared state" design note.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	params   func(toolName string) Params
}

// NewRegistry builds a Registry that looks up per-tool Params via paramsFn
// the first time a tool is seen.
func NewRegistry(paramsFn func(toolName string) Params) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		params:   paramsFn,
	}
}

// Get returns the Breaker for toolName, creating it on first access.
func (r *Registry) Get(toolName string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[toolName]; ok {
		return b
	}
	b := New(r.params(toolName))
	r.breakers[toolName] = b
	return b
}

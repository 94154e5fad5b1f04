// Package registry implements the tool registry (C8): discovery of every
// concrete tool class, include/exclude filtering into an enabled set, and
// runtime enable/disable.
//
// Grounded on the teacher's internal/core tool map (name -> *Tool,
// mutex-guarded) generalized with the include/exclude filtering spec.md
// §4.7 requires.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"secmcp/internal/breaker"
	"secmcp/internal/limiter"
	"secmcp/internal/procexec"
	"secmcp/internal/tool"
)

// Registry owns every discovered Tool, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*tool.Tool
	order []string
}

// Filter is the config-driven include/exclude policy applied at discovery
// time. A nil/empty Include means "include everything not excluded".
type Filter struct {
	Include []string
	Exclude []string
}

func (f Filter) allows(name string) bool {
	if len(f.Include) > 0 {
		found := false
		for _, n := range f.Include {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, n := range f.Exclude {
		if n == name {
			return false
		}
	}
	return true
}

// New discovers every descriptor in descs and builds a Tool for every one of
// them, regardless of filter: a descriptor the filter excludes is still
// registered, just disabled, so it stays visible to GET /tools (enabled=
// false) and POST /tools/<name>/execute keeps returning 409 rather than 404,
// per spec.md §4.7/§8 S6. brkReg and limReg are shared process-wide; m is
// the C11 metrics sink every Tool records into; tracker is the process-wide
// subprocess tracker used at server shutdown (nil is fine when shutdown
// tracking isn't needed, e.g. in tests).
func New(descs []tool.Descriptor, filter Filter, brkReg *breaker.Registry, limReg *limiter.Registry, m tool.Metrics, tracker *procexec.Tracker) *Registry {
	r := &Registry{tools: make(map[string]*tool.Tool)}
	for _, d := range descs {
		brk := brkReg.Get(d.Name)
		t := tool.New(d, brk, limReg, m, tracker)
		t.SetEnabled(filter.allows(d.Name))
		r.tools[d.Name] = t
		r.order = append(r.order, d.Name)
	}
	sort.Strings(r.order)
	return r
}

// Get returns the named tool and whether it is known to this registry.
// A tool excluded at discovery time is still present, just disabled.
func (r *Registry) Get(name string) (*tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool's name in stable sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns every registered tool's Descriptor, in Names() order,
// for the /tools listing endpoint.
func (r *Registry) Descriptors() []tool.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// SetEnabled toggles a registered tool's availability. Returns an error if
// name is not registered (it was never in the discovered catalog; tools
// excluded by the filter are still registered).
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("tool %q is not registered", name)
	}
	t.SetEnabled(enabled)
	return nil
}

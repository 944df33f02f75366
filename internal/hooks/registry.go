package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Callback is a Go hook. Args holds the same keys passed to Lua hooks.
type Callback func(ctx context.Context, args map[string]string) error

// Registry maps callback names to Go functions.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]Callback
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: map[string]Callback{}}
}

// Register adds fn under name. Names are unique.
func (r *Registry) Register(name string, fn Callback) error {
	if name == "" || fn == nil {
		return fmt.Errorf("callback requires a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callbacks[name]; ok {
		return fmt.Errorf("callback %q already registered", name)
	}
	r.callbacks[name] = fn
	return nil
}

// Lookup returns the callback registered under name.
func (r *Registry) Lookup(name string) (Callback, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.callbacks[name]
	return fn, ok
}

// Names lists registered callbacks, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for n := range r.callbacks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

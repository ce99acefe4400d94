package config

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps names to plugin factories. Safe for concurrent use.
//
// Documents refer to interceptors, type handlers and object factories by name;
// the builder resolves each name through a Registry supplied by the caller.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Register adds an entry under the given name. Overwrites any existing registration.
func (r *Registry[T]) Register(name string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]T)
	}

	r.entries[name] = v
}

// Get returns the entry for name, or the zero value and false if not found.
func (r *Registry[T]) Get(name string) (T, bool) {
	if r == nil {
		var zero T
		return zero, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.entries[name]

	return v, ok
}

// MustGet returns the entry for name, or panics if not found.
func (r *Registry[T]) MustGet(name string) T {
	v, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("config: %q not registered", name))
	}

	return v
}

// Names returns all registered names, sorted.
func (r *Registry[T]) Names() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

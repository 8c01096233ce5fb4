package health

import (
	"context"
	"sync"
)

// Checker is a collaborator that can report its own availability
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Registry tracks named collaborators (store, cache, identity provider)
// so readiness can report each one.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker under a name
func (r *Registry) Register(name string, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = c
}

// CheckAll pings every registered collaborator and returns per-name
// results. A nil value means healthy.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.checkers))
	for name, c := range r.checkers {
		results[name] = c.Ping(ctx)
	}
	return results
}

// Healthy reports whether every registered collaborator is up
func (r *Registry) Healthy(ctx context.Context) bool {
	for _, err := range r.CheckAll(ctx) {
		if err != nil {
			return false
		}
	}
	return true
}

// Package invoke provides the handler runtimes events are delivered to: an HTTP
// endpoint or a local command reading the event on stdin.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownHandler is returned by Router for handler ids without a target.
var ErrUnknownHandler = errors.New("unknown handler")

// Invoker runs one handler with one event envelope.
type Invoker interface {
	Invoke(ctx context.Context, handlerID string, envelope map[string]any) error
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, handlerID string, envelope map[string]any) error

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, handlerID string, envelope map[string]any) error {
	return f(ctx, handlerID, envelope)
}

// Router picks the invoker registered for each handler id.
type Router struct {
	mu      sync.RWMutex
	targets map[string]Invoker
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{targets: map[string]Invoker{}}
}

// Register sets the invoker for handlerID, replacing any previous one.
func (r *Router) Register(handlerID string, inv Invoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[handlerID] = inv
}

// Handlers returns the registered handler ids, sorted.
func (r *Router) Handlers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.targets))
	for id := range r.targets {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Invoke forwards to the handler's invoker.
func (r *Router) Invoke(ctx context.Context, handlerID string, envelope map[string]any) error {
	r.mu.RLock()
	inv, ok := r.targets[handlerID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandler, handlerID)
	}
	return inv.Invoke(ctx, handlerID, envelope)
}

package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdelaire/tgrambot/core/event"
)

// Filter decides whether a handler should receive an event. A panicking
// filter is treated as not matching.
type Filter func(e *event.Event) bool

// Handler processes one materialized update.
type Handler func(ctx context.Context, e *event.Event) error

// Registration pairs an optional filter with its handler.
type Registration struct {
	Filter  Filter
	Handler Handler
}

// Registry holds handlers per update type in registration order.
// Registration order is dispatch priority.
type Registry struct {
	mu       sync.RWMutex
	handlers map[UpdateType][]Registration
}

// NewRegistry creates a registry accepting every type in UpdateTypes.
func NewRegistry() *Registry {
	handlers := make(map[UpdateType][]Registration, len(UpdateTypes))
	for _, t := range UpdateTypes {
		handlers[t] = nil
	}
	return &Registry{handlers: handlers}
}

// Register appends a handler for t. filter may be nil. Unknown update
// types are rejected.
func (r *Registry) Register(t UpdateType, filter Filter, h Handler) error {
	if h == nil {
		return fmt.Errorf("register %s: nil handler", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.handlers[t]
	if !ok {
		return fmt.Errorf("register %q: %w", t, ErrUnknownUpdateType)
	}
	r.handlers[t] = append(list, Registration{Filter: filter, Handler: h})
	return nil
}

// HandlersFor returns a snapshot of the registrations for t. Unknown or
// empty types yield an empty slice.
func (r *Registry) HandlersFor(t UpdateType) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.handlers[t]
	out := make([]Registration, len(list))
	copy(out, list)
	return out
}

// Len returns the number of registrations across all types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.handlers {
		n += len(list)
	}
	return n
}

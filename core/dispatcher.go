package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jdelaire/tgrambot/core/event"
)

// HandlerError reports a handler that returned an error or panicked.
type HandlerError struct {
	Type     UpdateType
	UpdateID int64
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler (update %d): %v", e.Type, e.UpdateID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

type dispatchIDKey struct{}

// DispatchID returns the correlation id of the dispatch that invoked the
// current handler, or "" outside a dispatch.
func DispatchID(ctx context.Context) string {
	id, _ := ctx.Value(dispatchIDKey{}).(string)
	return id
}

// Dispatcher routes materialized updates to the first matching handler.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
	}
}

// DispatchEnvelope classifies a raw update and dispatches its payload.
// Malformed envelopes return an error wrapping ErrMalformedEnvelope.
func (d *Dispatcher) DispatchEnvelope(ctx context.Context, env Envelope) error {
	updateID, _ := env.UpdateID()

	t, payload, err := Classify(env)
	if err != nil {
		return fmt.Errorf("update %d: %w", updateID, err)
	}

	return d.dispatch(ctx, t, updateID, payload)
}

// Dispatch materializes payload and invokes the first registration for t
// whose filter is absent or matches. Handler failures are returned as
// *HandlerError; filter panics are logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, t UpdateType, payload any) error {
	return d.dispatch(ctx, t, 0, payload)
}

func (d *Dispatcher) dispatch(ctx context.Context, t UpdateType, updateID int64, payload any) error {
	ev, err := event.Materialize(string(t), payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	regs := d.registry.HandlersFor(t)
	if len(regs) == 0 {
		d.logger.Debug("no handlers registered", "update_type", t, "update_id", updateID)
		return nil
	}

	id := uuid.New().String()
	logger := d.logger.With("dispatch_id", id, "update_type", t, "update_id", updateID)
	ctx = context.WithValue(ctx, dispatchIDKey{}, id)

	for i, reg := range regs {
		if reg.Filter != nil && !d.match(logger, i, reg.Filter, ev) {
			continue
		}
		logger.Debug("dispatching", "handler", i)
		if err := invoke(ctx, reg.Handler, ev); err != nil {
			return &HandlerError{Type: t, UpdateID: updateID, Err: err}
		}
		return nil
	}

	logger.Debug("no handler matched")
	return nil
}

func (d *Dispatcher) match(logger *slog.Logger, index int, f Filter, ev *event.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("filter panicked", "handler", index, "panic", r)
			ok = false
		}
	}()
	return f(ev)
}

func invoke(ctx context.Context, h Handler, ev *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, ev)
}

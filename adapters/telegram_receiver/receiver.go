package telegram_receiver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jdelaire/tgrambot/adapters/botapi"
	"github.com/jdelaire/tgrambot/core"
)

const (
	defaultPollTimeout = 100 // seconds, server side
	defaultInterval    = time.Second
)

// Updater fetches a batch of updates. *botapi.Client implements it.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeout int, opts botapi.Params) ([]core.Envelope, error)
}

// Dispatcher routes one raw update. *core.Dispatcher implements it.
type Dispatcher interface {
	DispatchEnvelope(ctx context.Context, env core.Envelope) error
}

var (
	_ Updater    = (*botapi.Client)(nil)
	_ Dispatcher = (*core.Dispatcher)(nil)
)

// Receiver long-polls Telegram for updates and dispatches them one at a time.
type Receiver struct {
	updater        Updater
	dispatcher     Dispatcher
	logger         *slog.Logger
	timeout        int
	interval       time.Duration
	allowedUpdates []string
	offset         int64
}

// New creates a polling receiver.
func New(updater Updater, dispatcher Dispatcher, logger *slog.Logger) *Receiver {
	return &Receiver{
		updater:    updater,
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    defaultPollTimeout,
		interval:   defaultInterval,
	}
}

// WithTimeout sets the server-side long-poll timeout in seconds.
func (r *Receiver) WithTimeout(seconds int) *Receiver {
	r.timeout = seconds
	return r
}

// WithInterval sets the pause between polls, taken after every poll.
func (r *Receiver) WithInterval(d time.Duration) *Receiver {
	r.interval = d
	return r
}

// WithAllowedUpdates restricts the update types Telegram sends.
func (r *Receiver) WithAllowedUpdates(types []string) *Receiver {
	r.allowedUpdates = types
	return r
}

// Offset is the next update id to request.
func (r *Receiver) Offset() int64 {
	return r.offset
}

// Start begins the long-poll loop. Blocks until ctx is cancelled; an
// in-flight poll is aborted with it. Transport failures are logged and
// retried after the poll interval without advancing the offset.
func (r *Receiver) Start(ctx context.Context) error {
	r.logger.Info("telegram receiver started", "timeout", r.timeout, "interval", r.interval)

	var opts botapi.Params
	if len(r.allowedUpdates) > 0 {
		opts = botapi.Params{"allowed_updates": r.allowedUpdates}
	}

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("telegram receiver stopped")
			return nil
		}

		updates, err := r.updater.GetUpdates(ctx, r.offset, r.timeout, opts)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("telegram receiver stopped")
				return nil
			}
			r.logger.Error("poll error", "offset", r.offset, "error", err)
		} else {
			r.process(ctx, updates)
		}

		select {
		case <-time.After(r.interval):
		case <-ctx.Done():
			r.logger.Info("telegram receiver stopped")
			return nil
		}
	}
}

// process dispatches a batch in order. The offset moves past every update
// that was dispatched, even when its handler failed. A handler failure ends
// the batch early; the remaining updates are fetched again on the next poll.
func (r *Receiver) process(ctx context.Context, updates []core.Envelope) {
	for _, u := range updates {
		id, hasID := u.UpdateID()

		err := r.dispatcher.DispatchEnvelope(ctx, u)
		if hasID {
			r.offset = max(r.offset, id+1)
		}

		switch {
		case err == nil:
		case errors.Is(err, core.ErrMalformedEnvelope):
			r.logger.Warn("dropping malformed update", "update_id", id, "error", err)
		default:
			r.logger.Error("handler failed", "update_id", id, "error", err)
			return
		}
	}
}

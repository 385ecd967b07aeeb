package configwatch

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ReloadFunc applies a changed file. A returned error is logged and the
// previous settings stay in effect.
type ReloadFunc func(path string) error

// Watcher polls files for changes and reloads them.
type Watcher struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries []watchEntry
}

type stamp struct {
	modTime time.Time
	size    int64
}

type watchEntry struct {
	path   string
	last   stamp
	reload ReloadFunc
}

// New creates a Watcher that polls at the given interval.
func New(interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		interval: interval,
		logger:   logger,
	}
}

// Watch adds a file to be watched. reload runs whenever the file's
// modification time or size changes. The file does not need to exist yet.
func (w *Watcher) Watch(path string, reload ReloadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, watchEntry{
		path:   path,
		last:   stampOf(path),
		reload: reload,
	})
}

// Run polls until the context is cancelled. It blocks, so call it in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.entries {
		e := &w.entries[i]
		current := stampOf(e.path)

		// Missing (possibly mid-save) or unchanged.
		if current.modTime.IsZero() || current == e.last {
			continue
		}

		e.last = current
		w.logger.Info("config file changed", "path", e.path)
		if err := e.reload(e.path); err != nil {
			w.logger.Error("config reload failed", "path", e.path, "error", err)
		}
	}
}

func stampOf(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{modTime: info.ModTime(), size: info.Size()}
}

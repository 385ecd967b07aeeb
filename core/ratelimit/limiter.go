package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	maxFailures     = 5
	failureWindow   = 15 * time.Minute
	lockoutDuration = 15 * time.Minute
)

// ErrLockedOut is returned by Check while a source is locked out.
var ErrLockedOut = errors.New("locked out")

type record struct {
	failures []time.Time
	lockedAt time.Time
}

// Limiter tracks rejected requests per source (for example a remote host)
// and locks out sources that exceed the failure threshold.
type Limiter struct {
	mu      sync.Mutex
	records map[string]*record
	now     func() time.Time
}

// New creates a rate limiter.
func New() *Limiter {
	return &Limiter{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Check returns an error wrapping ErrLockedOut if the source is currently
// locked out.
func (l *Limiter) Check(source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.records[source]
	if r == nil || r.lockedAt.IsZero() {
		return nil
	}

	elapsed := l.now().Sub(r.lockedAt)
	if elapsed < lockoutDuration {
		remaining := lockoutDuration - elapsed
		return fmt.Errorf("%w: try again in %s", ErrLockedOut, remaining.Truncate(time.Second))
	}
	delete(l.records, source)
	return nil
}

// RecordFailure records a rejected request from source. Reaching the
// threshold within the window locks the source out.
func (l *Limiter) RecordFailure(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	r := l.records[source]
	if r == nil {
		r = &record{}
		l.records[source] = r
	}

	cutoff := now.Add(-failureWindow)
	fresh := r.failures[:0]
	for _, t := range r.failures {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	r.failures = append(fresh, now)

	if len(r.failures) >= maxFailures {
		r.lockedAt = now
	}
}

// Reset clears all failure state for a source.
func (l *Limiter) Reset(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, source)
}

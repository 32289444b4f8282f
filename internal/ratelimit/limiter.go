// Package ratelimit implements the per-identity sliding-window limiter
// that gates how many validation calls a caller may perform in a
// rolling period.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxCalls = 100
	DefaultPeriod   = 3600 * time.Second
)

// Limiter is a sliding-window rate limiter for a single identity.
// time.Time values carry Go's monotonic clock reading, so the window
// is immune to wall-clock adjustments.
type Limiter struct {
	mu        sync.Mutex
	maxCalls  int
	period    time.Duration
	calls     []time.Time
	now       func() time.Time
}

func NewLimiter(maxCalls int, period time.Duration) *Limiter {
	if maxCalls < 1 {
		maxCalls = 1
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Limiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
	}
}

// Allow reports whether one more call is permitted right now, recording
// it if so. Expired window entries are evicted on every call, accepted
// or not, so stale timestamps never accumulate.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.calls) >= l.maxCalls {
		return false
	}
	l.calls = append(l.calls, now)
	return true
}

// Remaining returns how many calls are still permitted in the current
// window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())

	if rem := l.maxCalls - len(l.calls); rem > 0 {
		return rem
	}
	return 0
}

// RetryAfter returns how long until the next call would be allowed:
// zero when under the limit, otherwise the time until the oldest
// recorded call ages out of the window.
func (l *Limiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.calls) < l.maxCalls {
		return 0
	}
	if len(l.calls) == 0 {
		// Over limit with an empty window cannot happen given the
		// invariant above; fall back to the full period.
		return l.period
	}

	wait := l.calls[0].Add(l.period).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// evict drops timestamps older than now-period. Callers hold l.mu.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.period)
	kept := l.calls[:0]
	for _, t := range l.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.calls = kept
}

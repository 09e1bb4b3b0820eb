package ratelimiter

import (
	"sync"
	"time"
)

// Limiter lets at most one action through per interval. It is used to
// throttle progress log lines from concurrent extraction workers and is
// safe for concurrent use.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	now         func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter allowing one action per interval.
// A non-positive interval allows every action.
func New(interval time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether an action may run now, recording it if so.
// When rate-limited it also returns how long until the next slot.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastAllowed.IsZero() || now.Sub(l.lastAllowed) >= l.interval {
		l.lastAllowed = now
		return true, 0
	}

	return false, l.interval - now.Sub(l.lastAllowed)
}

// Do runs fn if the limiter allows it and reports whether it ran.
func (l *Limiter) Do(fn func()) bool {
	if ok, _ := l.Allow(); !ok {
		return false
	}
	fn()
	return true
}

// Reset clears the limiter state, allowing the next action immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.lastAllowed = time.Time{}
	l.mu.Unlock()
}

// Interval returns the configured interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

package upload

import (
	"context"
	"time"
)

// RateLimiter spaces calls at least Interval apart, measured from the end of
// the previous call. Callers block; nothing is queued.
type RateLimiter struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewRateLimiter returns a limiter allowing calls every interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval, now: time.Now}
}

// Interval returns the minimum spacing between calls.
func (l *RateLimiter) Interval() time.Duration { return l.interval }

// Do waits for the interval to pass, then runs fn and records when it
// finished.
func (l *RateLimiter) Do(ctx context.Context, fn func() error) error {
	if !l.last.IsZero() {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			t := time.NewTimer(wait)

			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}

	err := fn()
	l.last = l.now()

	return err
}

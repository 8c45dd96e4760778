package upload

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted wraps the last error of an operation that failed on
// every attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retryable is implemented by errors that know whether a retry can help.
// Errors that do not implement it are retried.
type Retryable interface {
	Retryable() bool
}

// Retrier runs an operation up to a fixed number of attempts with a fixed
// pause between them.
type Retrier struct {
	attempts int
	backoff  time.Duration
}

// NewRetrier creates a new Retrier.
func NewRetrier(attempts int, backoff time.Duration) *Retrier {
	return &Retrier{attempts: max(attempts, 1), backoff: backoff}
}

// Do executes operation with retry logic.
func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Last attempt - don't sleep
		if attempt == r.attempts {
			break
		}

		t := time.NewTimer(r.backoff)

		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.attempts, lastErr)
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	return true
}

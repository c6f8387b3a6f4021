package worker

import (
	"context"
	"time"
)

// retryBase is the first backoff step; tests shrink it.
var retryBase = time.Second

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, 1s, 2s, 4s …). Returns the last error if every attempt fails.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBase << uint(i-1)):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

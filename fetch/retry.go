package fetch

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultAttempts  = 3
	defaultRetryWait = 3 * time.Second
)

// withRetry runs op up to attempts times, waiting a fixed interval between
// tries. Only transient failures are retried; a permanent failure or a
// cancelled context returns immediately.
func withRetry(ctx context.Context, logger *slog.Logger, attempts int, wait time.Duration, op func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.Warn("transient fetch failure, retrying",
			"attempt", attempt, "max_attempts", attempts, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

package pipeline

import (
	"context"
	"math/rand"
	"time"

	"github.com/dgallion1/docfill/internal/pathstore"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	return pathstore.IsRetryable(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// retry calls fn up to MaxRetries times while it fails with a retryable
// error, sleeping backoff(attempt) in between.
func retry(ctx context.Context, backoff func(int) time.Duration, onRetry func(int, error), fn func() error) error {
	var err error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return err
		}
		onRetry(attempt, err)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

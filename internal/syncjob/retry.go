package syncjob

import (
	"context"
	"log"
	"time"
)

// Retry runs op until it succeeds or maxAttempts is exhausted, sleeping
// initialDelay*2^(attempt-1) between attempts (pure exponential backoff,
// no jitter). The last error is returned unchanged so callers can match
// on sentinel errors from the operation itself. Waits are cut short by
// context cancellation.
func Retry(ctx context.Context, name string, maxAttempts int, initialDelay time.Duration, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.Printf("[Retry] attempt %d/%d for %s", attempt, maxAttempts, name)

		if err := op(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Printf("[Retry] attempt %d failed for %s: %v", attempt, name, err)
		}

		if attempt < maxAttempts {
			backoff := initialDelay * (1 << (attempt - 1))
			log.Printf("[Retry] waiting %s before retrying %s", backoff, name)
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
		}
	}

	return lastErr
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

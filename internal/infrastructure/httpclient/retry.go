package httpclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy decides whether and when a failed attempt is repeated
type RetryPolicy struct {
	// Attempts is the number of retries after the first attempt
	Attempts int
	// Delay is the base delay; retry n waits Delay * (n + 1)
	Delay time.Duration
	// RetryClientErrors retries 4xx responses until attempts run out
	RetryClientErrors bool
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// MaxAttempts returns the total number of network attempts
func (p RetryPolicy) MaxAttempts() int {
	return 1 + max(p.Attempts, 0)
}

// Backoff returns the delay after the failed attempt with 0-based index attempt
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.Delay * time.Duration(attempt+1)
}

// ShouldRetry reports whether err may succeed on another attempt.
// Authentication, timeout and configuration failures are final.
func (p RetryPolicy) ShouldRetry(err error) bool {
	switch KindOf(err) {
	case KindServer, KindNetwork:
		return true
	case KindClient:
		return p.RetryClientErrors
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retry runs op until it succeeds, fails with a final error, or attempts run out.
// The returned int is the number of attempts made.
func retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	sleep Sleeper,
	logger *zap.Logger,
	op func(ctx context.Context, attempt int) (T, error),
) (T, int, error) {
	var (
		zero    T
		lastErr error
	)

	maxAttempts := policy.MaxAttempts()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := op(ctx, attempt)
		if err == nil {
			return result, attempt + 1, nil
		}
		lastErr = err

		if !policy.ShouldRetry(err) {
			return zero, attempt + 1, err
		}

		if attempt < maxAttempts-1 {
			backoff := policy.Backoff(attempt)
			logger.Warn("Retrying request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			if err := sleep(ctx, backoff); err != nil {
				return zero, attempt + 1, err
			}
		}
	}

	return zero, maxAttempts, lastErr
}

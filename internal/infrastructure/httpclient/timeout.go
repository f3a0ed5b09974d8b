package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// errAttemptTimeout is the cancellation cause of an expired attempt timer
var errAttemptTimeout = errors.New("attempt timed out")

// withTimeout runs one attempt bounded by timeout. An expired attempt timer surfaces as
// KindTimeout; cancellation of ctx itself is returned as ctx.Err().
func withTimeout[T any](ctx context.Context, timeout time.Duration, attempt func(context.Context) (T, error)) (T, error) {
	var (
		attemptCtx context.Context
		cancel     context.CancelFunc
	)
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeoutCause(ctx, timeout, errAttemptTimeout)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	result, err := attempt(attemptCtx)
	if err == nil {
		return result, nil
	}

	var zero T
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	if errors.Is(context.Cause(attemptCtx), errAttemptTimeout) {
		return zero, &APIError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request timed out after %s", timeout),
			Err:     err,
		}
	}
	return zero, err
}

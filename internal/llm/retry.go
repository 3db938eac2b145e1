package llm

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/ppiankov/factcheck/internal/metrics"
)

// DefaultMaxAttempts is the attempt budget of retried stages
const DefaultMaxAttempts = 3

// Retry runs op up to attempts times with no delay between attempts.
// Any error triggers another attempt; once the budget is spent the last
// error is returned unmodified. Context cancellation stops further attempts.
func Retry[T any](ctx context.Context, name string, attempts int, op func(ctx context.Context) (T, error)) (T, error) {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var result T
	operation := func() error {
		value, err := op(ctx)
		metrics.Attempts.WithLabelValues(name, metrics.Outcome(err)).Inc()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = value
		return nil
	}

	policy := backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(attempts-1))
	if err := backoff.Retry(operation, policy); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

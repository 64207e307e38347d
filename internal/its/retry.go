package its

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"its-redmine/internal/client"
)

// AlwaysRetry treats every failure as transient
func AlwaysRetry(error) bool {
	return true
}

// RetryRemoteOnly retries remote and construction failures. Validation and not-found failures
// fail identically on every attempt and are returned at once.
func RetryRemoteOnly(err error) bool {
	kind, ok := client.KindOf(err)
	return ok && (kind == client.KindRemote || kind == client.KindConstruction)
}

// execute runs fn against the facade's client until it succeeds or the retry budget is spent.
// Client construction happens inside each attempt. The last failure is returned as an IOError.
func execute[T any](ctx context.Context, f *Facade, op, issueID string, fn func(client.IssueTracker) (T, error)) (T, error) {
	attempts := 0
	operation := func() (T, error) {
		attempts++
		var zero T

		c, err := f.ensureClient()
		if err == nil {
			var result T
			result, err = fn(c)
			if err == nil {
				return result, nil
			}
		}
		if !f.retryable(err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	notify := func(err error, next time.Duration) {
		f.logger.Debug("Call failed - retrying",
			"operation", op,
			"attempt", attempts,
			"max_attempts", f.maxAttempts,
			"next_in", next,
			"error", err,
		)
	}

	result, err := backoff.RetryNotifyWithData(operation, f.newBackOff(ctx), notify)
	f.record(ctx, op, issueID, attempts, err)
	if err != nil {
		return result, client.AsIOError(err)
	}
	return result, nil
}

// newBackOff returns a fresh policy allowing maxAttempts calls in total
func (f *Facade) newBackOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if f.retryDelay > 0 {
		b = backoff.NewConstantBackOff(f.retryDelay)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxAttempts-1)), ctx)
}

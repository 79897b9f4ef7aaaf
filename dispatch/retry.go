package dispatch

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
	"github.com/oattyio/oatty/registry"
)

// RetryTransient retries fn while it returns a *registry.TransientError,
// up to maxAttempts total tries, with no delay between attempts unless the
// caller wraps fn itself to add one. Per spec.md §4.F/§7, retry on
// transient_error is always the caller's decision; execute() never
// retries on its own.
func RetryTransient(ctx context.Context, maxAttempts uint, fn func() (*Response, error)) (*Response, error) {
	operation := func() (*Response, error) {
		resp, err := fn()
		if err != nil {
			var transient *registry.TransientError
			if errors.As(err, &transient) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(0)),
		backoff.WithMaxTries(maxAttempts),
	)
}

package snowql

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newSubmitBackoff builds the backoff schedule for initial query
// submission: initial=1s, max=16s, capped by the remaining deadline.
func newSubmitBackoff(remaining time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 16 * time.Second
	b.MaxElapsedTime = remaining
	b.Multiplier = 2
	b.RandomizationFactor = backoff.DefaultRandomizationFactor
	return b
}

// newPollBackoff builds the backoff schedule for the async status poll
// loop: initial=500ms, max=5s, capped by the remaining deadline.
func newPollBackoff(remaining time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = remaining
	b.Multiplier = 2
	b.RandomizationFactor = backoff.DefaultRandomizationFactor
	return b
}

// isRetryableStatus reports whether an HTTP status code should be
// retried under the submit/poll backoff schedules. Only 503 is
// transient; every other non-2xx is permanent and surfaced immediately.
func isRetryableStatus(code int) bool {
	return code == http.StatusServiceUnavailable
}

// retryableError wraps an error to signal the backoff loop should keep
// retrying; any other error returned from an operation is treated as
// permanent and aborts the loop immediately.
type retryableError struct{ err error }

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

func retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// runWithBackoff drives op until it succeeds, returns a non-retryable
// error, or the backoff schedule (bounded by ctx and b's own
// MaxElapsedTime) is exhausted. op signals a transient failure by
// returning an error wrapped with retryable; any other error is
// returned immediately as permanent.
func runWithBackoff(ctx context.Context, b backoff.BackOff, op func() error) error {
	var permanent error
	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}
		var re *retryableError
		if asRetryable(err, &re) {
			return re.err
		}
		permanent = err
		return backoff.Permanent(err)
	}
	err := backoff.Retry(attempt, backoff.WithContext(b, ctx))
	if permanent != nil {
		return permanent
	}
	return err
}

func asRetryable(err error, target **retryableError) bool {
	re, ok := err.(*retryableError)
	if !ok {
		return false
	}
	*target = re
	return true
}

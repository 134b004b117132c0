package graph

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures automatic retry behavior for a node's execute call.
//
// Retries follow `backoffMs * backoffMultiplier^(attempt-1)`: deterministic,
// no jitter, so that replaying a run with the same policy reproduces the
// same wait times. Attempt is 1-indexed for the first retry.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of execution attempts, including the
	// initial one. Defaults to 3.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Defaults to 1 second.
	BaseDelay time.Duration

	// BackoffMultiplier scales BaseDelay on each subsequent attempt. Defaults
	// to 2.
	BackoffMultiplier float64

	// RetryOn decides whether an error should trigger a retry. A nil RetryOn
	// treats every error as retryable.
	RetryOn func(error) bool
}

// DefaultRetryPolicy returns the spec's documented defaults:
// maxAttempts=3, backoffMs=1000, backoffMultiplier=2.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		BackoffMultiplier: 2,
	}
}

// Validate reports whether the policy's numeric fields are usable.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.BaseDelay < 0 {
		return ErrInvalidRetryPolicy
	}
	if rp.BackoffMultiplier < 1 {
		return ErrInvalidRetryPolicy
	}
	return nil
}

func (rp *RetryPolicy) retryable(err error) bool {
	if rp.RetryOn == nil {
		return true
	}
	return rp.RetryOn(err)
}

// computeBackoff returns the deterministic wait before attempt (1-indexed,
// i.e. attempt=1 is the delay before the first retry, following the node's
// initial attempt).
func computeBackoff(rp *RetryPolicy, attempt int) time.Duration {
	base := rp.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	mult := rp.BackoffMultiplier
	if mult < 1 {
		mult = 2
	}
	delay := float64(base)
	for i := 1; i < attempt; i++ {
		delay *= mult
	}
	return time.Duration(delay)
}

// asExponentialBackOff adapts a RetryPolicy to backoff.BackOff, for driving
// retries through cenkalti/backoff's Retry/RetryNotify helpers instead of
// the runner's own loop. Only this package's tests call it.
func asExponentialBackOff(rp *RetryPolicy) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = rp.BaseDelay
	eb.Multiplier = rp.BackoffMultiplier
	eb.MaxElapsedTime = 0
	return backoff.WithMaxRetries(eb, uint64(rp.MaxAttempts-1))
}

// SideEffectPolicy declares whether a node's I/O can be recorded and
// replayed, and whether it requires an idempotency key to ensure
// exactly-once application of its side effects.
type SideEffectPolicy struct {
	Recordable          bool
	RequiresIdempotency bool
}

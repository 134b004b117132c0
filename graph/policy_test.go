package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeBackoff_Deterministic(t *testing.T) {
	rp := &RetryPolicy{BaseDelay: time.Second, BackoffMultiplier: 2}

	assert.Equal(t, time.Second, computeBackoff(rp, 1))
	assert.Equal(t, 2*time.Second, computeBackoff(rp, 2))
	assert.Equal(t, 4*time.Second, computeBackoff(rp, 3))
}

func TestRetryPolicy_Validate(t *testing.T) {
	assert.NoError(t, (&RetryPolicy{MaxAttempts: 1, BackoffMultiplier: 1}).Validate())
	assert.ErrorIs(t, (&RetryPolicy{MaxAttempts: 0, BackoffMultiplier: 1}).Validate(), ErrInvalidRetryPolicy)
	assert.ErrorIs(t, (&RetryPolicy{MaxAttempts: 1, BackoffMultiplier: 0}).Validate(), ErrInvalidRetryPolicy)
	assert.ErrorIs(t, (&RetryPolicy{MaxAttempts: 1, BackoffMultiplier: 1, BaseDelay: -1}).Validate(), ErrInvalidRetryPolicy)
}

func TestRetryPolicy_Retryable(t *testing.T) {
	always := &RetryPolicy{}
	assert.True(t, always.retryable(errors.New("anything")))

	onlyTimeouts := &RetryPolicy{RetryOn: func(err error) bool { return err.Error() == "timeout" }}
	assert.True(t, onlyTimeouts.retryable(errors.New("timeout")))
	assert.False(t, onlyTimeouts.retryable(errors.New("other")))
}

func TestAsExponentialBackOff_RespectsMaxAttempts(t *testing.T) {
	rp := &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffMultiplier: 2}
	eb := asExponentialBackOff(rp)

	var attempts int
	for {
		d := eb.NextBackOff()
		if d < 0 {
			break
		}
		attempts++
	}
	assert.Equal(t, 2, attempts, "MaxAttempts-1 retries are available after the initial attempt")
}

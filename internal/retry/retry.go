// Package retry provides the caller-level retry policy for transient
// failures. The execution engine never retries on its own; callers wrap the
// calls they consider retryable with a Policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Policy describes an exponential backoff schedule.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint64
}

// DefaultPolicy retries transient failures for up to 30 seconds.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		MaxRetries:      5,
	}
}

// Retryable reports whether an error is worth retrying: transport failures
// and timeouts are, policy decisions (rejections, halts, validation) are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.IsTradingHalted(err) {
		return false
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeTransportFailure, errors.ErrCodeRequestTimeout, errors.ErrCodeCredentialFetchFailed:
		return true
	default:
		return false
	}
}

// Do runs op under the policy, backing off between attempts. Non-retryable
// errors abort immediately.
func (p Policy) Do(ctx context.Context, op func() error) error {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = p.InitialInterval
	schedule.MaxInterval = p.MaxInterval
	schedule.MaxElapsedTime = p.MaxElapsedTime

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}

		if !Retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(schedule, p.MaxRetries), ctx))
}

// Package occ runs optimistic-concurrency units of work: each attempt gets its
// own store deadline, stale-version failures are retried with exponential
// backoff, and whatever is left is mapped onto the public error codes.
package occ

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/creditpool/creditpool-backend/pkg/db"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

// ErrStale signals that a compare-and-swap lost to a concurrent writer.
var ErrStale = errors.New("occ: stale version")

const (
	DefaultMaxAttempts    = 3
	DefaultBackoff        = 25 * time.Millisecond
	DefaultAttemptTimeout = 3 * time.Second
)

// Policy bounds a retried unit of work.
type Policy struct {
	MaxAttempts    int
	Backoff        time.Duration
	AttemptTimeout time.Duration
	// OnConflict is called after every stale attempt, before the backoff sleep.
	OnConflict func(attempt int)
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultBackoff
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = DefaultAttemptTimeout
	}
	return p
}

// Do runs fn until it succeeds, fails with something other than ErrStale, or
// the attempt budget runs out. Exhaustion surfaces CodeConflict, an expired
// deadline surfaces CodeUnavailable.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	p := policy.normalized()

	backoff := retry.NewExponential(p.Backoff)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(p.MaxAttempts-1), backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if errors.Is(err, ErrStale) {
			if p.OnConflict != nil {
				p.OnConflict(attempt)
			}
			return retry.RetryableError(err)
		}
		return err
	})
	return classify(err, attempt)
}

func classify(err error, attempts int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "concurrent update retries exhausted").
			WithDetails(map[string]any{"attempts": attempts})
	default:
		return db.Classify(err, "store operation failed")
	}
}

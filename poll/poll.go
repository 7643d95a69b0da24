// Package poll blocks until a condition over remote state holds.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
)

// DefaultInterval is the delay between two checks when no interval is given.
const DefaultInterval = 100 * time.Millisecond

// ErrNotReady is returned by Until's internal check when the condition did not hold yet.
var ErrNotReady = errors.New("condition not met")

// Condition reports whether the awaited state has been reached.
// A non-nil error is treated like a false result: it is reported to OnRetry and the check is repeated.
type Condition func(ctx context.Context) (bool, error)

type options struct {
	interval time.Duration
	timeout  time.Duration
	onRetry  func(attempt uint, err error)
}

// Option configures Until.
type Option func(*options)

// WithInterval sets the fixed delay between checks.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithTimeout bounds the total wait. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithOnRetry registers a hook called after every unsuccessful check,
// with the zero-based attempt number and ErrNotReady or the query error.
func WithOnRetry(fn func(attempt uint, err error)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// Until calls cond until it returns true, sleeping the configured interval between calls.
// Query errors never end the wait. Until returns nil once the condition holds,
// or the context error if ctx is cancelled or the timeout elapses first.
func Until(ctx context.Context, cond Condition, opts ...Option) error {
	o := options{interval: DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err := retry.Do(func() error {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotReady
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(o.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if o.onRetry != nil {
				o.onRetry(n, err)
			}
		}),
	)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

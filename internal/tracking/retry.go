package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jcmexdev/grocery-storefront/internal/order"
)

const DefaultRetryAttempts = 3

// Retrying repeats a lookup while it fails with ErrTransient, backing off
// exponentially between attempts. Any other error is returned at once.
type Retrying struct {
	next            Lookup
	attempts        uint
	initialInterval time.Duration
	maxInterval     time.Duration
}

type RetryOption func(*Retrying)

func WithAttempts(n uint) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.attempts = n
		}
	}
}

func WithIntervals(initial, max time.Duration) RetryOption {
	return func(r *Retrying) {
		r.initialInterval = initial
		r.maxInterval = max
	}
}

func NewRetrying(next Lookup, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:            next,
		attempts:        DefaultRetryAttempts,
		initialInterval: 200 * time.Millisecond,
		maxInterval:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval

	attempt := 0
	rec, err := backoff.Retry(ctx, func() (order.Confirmation, error) {
		attempt++
		rec, err := r.next.Track(ctx, req)
		if err != nil && !errors.Is(err, ErrTransient) {
			return rec, backoff.Permanent(err)
		}
		return rec, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.attempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.WarnContext(ctx, "tracking lookup failed, retrying",
				"order_id", req.OrderID, "attempt", attempt, "wait", wait, "error", err)
		}),
	)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrTransient) {
		return order.Confirmation{}, contextErr(ctx)
	}
	return rec, err
}

package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/order"
)

const DefaultTimeout = 10 * time.Second

// Timeout bounds every lookup by a deadline. Running past it yields
// ErrTimedOut regardless of what the wrapped lookup returned.
type Timeout struct {
	next    Lookup
	timeout time.Duration
}

func WithTimeout(next Lookup, d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{next: next, timeout: d}
}

func (t *Timeout) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	rec, err := t.next.Track(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return order.Confirmation{}, ErrTimedOut
	}
	return rec, err
}

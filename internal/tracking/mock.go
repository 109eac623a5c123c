package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

const DefaultMockDelay = 1500 * time.Millisecond

// Mock answers every id of three or more characters with a synthetic
// Processing order after Delay.
type Mock struct {
	Delay time.Duration
	Now   func() time.Time
}

func NewMock() *Mock {
	return &Mock{Delay: DefaultMockDelay, Now: time.Now}
}

func (m *Mock) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	req, err := req.Normalize()
	if err != nil {
		return order.Confirmation{}, err
	}

	timer := time.NewTimer(m.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return order.Confirmation{}, contextErr(ctx)
	case <-timer.C:
	}

	if len(req.OrderID) < 3 {
		return order.Confirmation{}, ErrOrderNotFound
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	price := money.New(80)
	return order.New(order.Confirmation{
		OrderID:           req.OrderID,
		Status:            order.StatusProcessing,
		CustomerName:      "Guest User",
		Phone:             req.Phone,
		ShippingAddress:   "Dhaka, Bangladesh",
		EstimatedDelivery: "2 Days",
		Items: []cart.Item{{
			Product: catalog.Product{
				ID:      "prod-001",
				Title:   "Organic Premium Carrots",
				Price:   price,
				Options: []catalog.ProductOption{{Unit: "500g", Price: price}},
			},
			Quantity: 2,
		}},
		Subtotal:       money.New(160),
		DeliveryCharge: money.New(60),
		DiscountAmount: money.Zero,
		TotalPayable:   money.New(220),
		PaymentMethod:  order.PaymentCashOnDelivery,
		PlacedAt:       now().UTC(),
	})
}

// contextErr converts a finished context into a lookup error.
func contextErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimedOut
	}
	return ctx.Err()
}

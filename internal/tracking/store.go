package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
)

// StoreLookup answers from persisted orders. A phone number that does not
// match the order is reported as not found, so a wrong phone learns nothing about the id.
type StoreLookup struct {
	orders orderstore.OrderReader
}

func NewStoreLookup(orders orderstore.OrderReader) *StoreLookup {
	return &StoreLookup{orders: orders}
}

func (s *StoreLookup) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	req, err := req.Normalize()
	if err != nil {
		return order.Confirmation{}, err
	}

	rec, err := s.orders.FindOrder(ctx, req.OrderID)
	switch {
	case errors.Is(err, orderstore.ErrOrderNotFound):
		return order.Confirmation{}, ErrOrderNotFound
	case err != nil:
		if ctx.Err() != nil {
			return order.Confirmation{}, contextErr(ctx)
		}
		return order.Confirmation{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	if !PhoneMatches(rec.Phone, req.Phone) {
		return order.Confirmation{}, ErrOrderNotFound
	}
	return rec, nil
}

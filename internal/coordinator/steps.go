package coordinator

import (
	"context"
	"fmt"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
)

// OrderWriter is the part of the order store the saga needs.
type OrderWriter interface {
	SaveOrder(ctx context.Context, c order.Confirmation) error
	DeleteOrder(ctx context.Context, id string) error
}

// Publisher announces orders to fulfillment.
type Publisher interface {
	PublishPlaced(ctx context.Context, c order.Confirmation) error
	PublishCancelled(ctx context.Context, orderID, reason string) error
}

// Warmer keeps the tracking cache in step with placed orders.
type Warmer interface {
	Put(ctx context.Context, c order.Confirmation)
	Invalidate(ctx context.Context, orderID string) error
}

// --- PersistOrderStep ---

type PersistOrderStep struct {
	orders OrderWriter
	order  order.Confirmation
}

func NewPersistOrderStep(orders OrderWriter, c order.Confirmation) *PersistOrderStep {
	return &PersistOrderStep{orders: orders, order: c}
}

func (s *PersistOrderStep) Name() string { return "Persist_Order_Step" }

func (s *PersistOrderStep) Execute(ctx context.Context) error {
	if err := s.orders.SaveOrder(ctx, s.order); err != nil {
		return fmt.Errorf("failed to persist order: %w", err)
	}
	return nil
}

func (s *PersistOrderStep) Compensate(ctx context.Context) error {
	return s.orders.DeleteOrder(ctx, s.order.OrderID)
}

// --- PublishOrderStep ---

type PublishOrderStep struct {
	publisher Publisher
	order     order.Confirmation
}

func NewPublishOrderStep(p Publisher, c order.Confirmation) *PublishOrderStep {
	return &PublishOrderStep{publisher: p, order: c}
}

func (s *PublishOrderStep) Name() string { return "Publish_Order_Step" }

func (s *PublishOrderStep) Execute(ctx context.Context) error {
	if err := s.publisher.PublishPlaced(ctx, s.order); err != nil {
		return fmt.Errorf("failed to publish order: %w", err)
	}
	return nil
}

// Compensate cannot unpublish; fulfillment is told to drop the order instead.
func (s *PublishOrderStep) Compensate(ctx context.Context) error {
	return s.publisher.PublishCancelled(ctx, s.order.OrderID, "placement rolled back")
}

// --- WarmCacheStep ---

type WarmCacheStep struct {
	cache Warmer
	order order.Confirmation
}

func NewWarmCacheStep(w Warmer, c order.Confirmation) *WarmCacheStep {
	return &WarmCacheStep{cache: w, order: c}
}

func (s *WarmCacheStep) Name() string { return "Warm_Cache_Step" }

func (s *WarmCacheStep) Execute(ctx context.Context) error {
	s.cache.Put(ctx, s.order)
	return nil
}

func (s *WarmCacheStep) Compensate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, s.order.OrderID)
}

var _ OrderWriter = orderstore.Repository(nil)

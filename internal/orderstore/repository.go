// Package orderstore defines persistence for products, placed orders and the
// status history of each order.
package orderstore

import (
	"context"
	"errors"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/telemetry"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already exists")
)

// Event sources.
const (
	SourceCheckout    = "checkout"
	SourceOperator    = "operator"
	SourceFulfillment = "fulfillment"
)

// Event is one row of an order's append-only status history.
type Event struct {
	ID        int64        `json:"id"`
	OrderID   string       `json:"orderId"`
	Status    order.Status `json:"status"`
	Source    string       `json:"source"`
	Note      string       `json:"note,omitempty"`
	TraceID   string       `json:"traceId,omitempty"`
	SpanID    string       `json:"spanId,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewEvent stamps the event with the span active in ctx.
func NewEvent(ctx context.Context, orderID string, status order.Status, source, note string) Event {
	ti := telemetry.TraceInfoFromContext(ctx)
	return Event{
		OrderID:   orderID,
		Status:    status,
		Source:    source,
		Note:      note,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		CreatedAt: time.Now().UTC(),
	}
}

type OrderReader interface {
	// FindOrder rebuilds the confirmation from stored rows only; later
	// catalog price changes never affect it.
	FindOrder(ctx context.Context, id string) (order.Confirmation, error)
}

type Repository interface {
	OrderReader
	// SaveOrder writes the order and one line per item atomically.
	SaveOrder(ctx context.Context, c order.Confirmation) error
	// UpdateStatus applies a legal transition and records it as an event.
	UpdateStatus(ctx context.Context, id string, next order.Status, source, note string) (order.Confirmation, error)
	DeleteOrder(ctx context.Context, id string) error
	OrderEvents(ctx context.Context, id string) ([]Event, error)
	UpsertProducts(ctx context.Context, products []catalog.Product) error
}

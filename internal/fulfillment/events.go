// Package fulfillment connects the storefront to the warehouse over Kafka:
// placed orders are published, and status changes made by fulfillment are
// consumed and applied to the order store.
package fulfillment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/grocery-storefront/internal/order"
)

const (
	TopicOrderPlaced = "order.placed"
	TopicOrderStatus = "order.status"

	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
)

type PlacedItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// PlacedEvent is published on TopicOrderPlaced, keyed by order id.
type PlacedEvent struct {
	EventID         string          `json:"eventId"`
	Type            string          `json:"type"`
	OrderID         string          `json:"orderId"`
	Status          order.Status    `json:"status,omitempty"`
	CustomerName    string          `json:"customerName,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	Items           []PlacedItem    `json:"items,omitempty"`
	TotalPayable    decimal.Decimal `json:"totalPayable"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

// StatusEvent is consumed from TopicOrderStatus.
type StatusEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

func placedEvent(eventID string, c order.Confirmation, now time.Time) PlacedEvent {
	items := make([]PlacedItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, PlacedItem{ProductID: it.ID, Title: it.Title, Quantity: it.Quantity, Price: it.Price})
	}
	return PlacedEvent{
		EventID:         eventID,
		Type:            EventOrderPlaced,
		OrderID:         c.OrderID,
		Status:          c.Status,
		CustomerName:    c.CustomerName,
		Phone:           c.Phone,
		ShippingAddress: c.ShippingAddress,
		Items:           items,
		TotalPayable:    c.TotalPayable,
		PaymentMethod:   c.PaymentMethod,
		OccurredAt:      now.UTC(),
	}
}

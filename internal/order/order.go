// Package order holds the OrderConfirmation record produced by checkout and
// returned by tracking.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

var (
	ErrTotalMismatch  = errors.New("total payable does not equal subtotal + delivery - discount")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrIllegalTransit = errors.New("illegal status transition")
)

const (
	DefaultEstimatedDelivery = "1 - 7 Days"
	PaymentCashOnDelivery    = "Cash on Delivery"
)

// Confirmation is the immutable record of a placed order.
type Confirmation struct {
	OrderID           string          `json:"orderId"`
	Status            Status          `json:"status"`
	CustomerName      string          `json:"customerName"`
	Phone             string          `json:"phone"`
	ShippingAddress   string          `json:"shippingAddress"`
	EstimatedDelivery string          `json:"estimatedDelivery"`
	Items             []cart.Item     `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DeliveryCharge    decimal.Decimal `json:"deliveryCharge"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	TotalPayable      decimal.Decimal `json:"totalPayable"`
	PaymentMethod     string          `json:"paymentMethod"`
	CouponCode        string          `json:"couponCode,omitempty"`
	PlacedAt          time.Time       `json:"placedAt"`
}

// New validates c and returns a copy that shares no slices with the input.
func New(c Confirmation) (Confirmation, error) {
	if err := c.Validate(); err != nil {
		return Confirmation{}, err
	}
	return c.Clone(), nil
}

// Validate checks the identity, status and total invariants.
func (c Confirmation) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return fmt.Errorf("order: missing id: %w", ErrInvalidOrder)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("order: %q status %q: %w", c.OrderID, c.Status, ErrInvalidStatus)
	}
	want := c.Subtotal.Add(c.DeliveryCharge).Sub(c.DiscountAmount)
	if !c.TotalPayable.Equal(want) {
		return fmt.Errorf("order: %q total %s, expected %s: %w", c.OrderID, c.TotalPayable, want, ErrTotalMismatch)
	}
	return nil
}

// Clone deep-copies the item snapshot.
func (c Confirmation) Clone() Confirmation {
	out := c
	out.Items = cart.CloneItems(c.Items)
	return out
}

// WithStatus returns a copy moved to next, if the transition is legal.
func (c Confirmation) WithStatus(next Status) (Confirmation, error) {
	if !c.Status.CanTransitionTo(next) {
		return c, fmt.Errorf("order: %q %s -> %s: %w", c.OrderID, c.Status, next, ErrIllegalTransit)
	}
	out := c.Clone()
	out.Status = next
	return out, nil
}

func (c Confirmation) DisplayTotal() string    { return money.Format(c.TotalPayable) }
func (c Confirmation) DisplaySubtotal() string { return money.Format(c.Subtotal) }
func (c Confirmation) DisplayDelivery() string { return money.Format(c.DeliveryCharge) }
func (c Confirmation) DisplayDiscount() string { return money.Format(c.DiscountAmount) }

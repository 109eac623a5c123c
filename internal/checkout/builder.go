// Package checkout turns a snapshot of cart items and the shipping form into
// an order confirmation.
package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

// DefaultDeliveryCharge applies whenever an address is entered.
var DefaultDeliveryCharge = money.New(60)

// Form is the user-entered shipping information.
type Form struct {
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Coupon        string `json:"coupon"`
	PaymentMethod string `json:"paymentMethod"`
}

// Quote is the live price breakdown shown while the form is being filled.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Coupon         CouponResult    `json:"coupon"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
}

type Builder struct {
	ids            order.IDGenerator
	coupons        CouponPolicy
	deliveryCharge decimal.Decimal
	now            func() time.Time
}

type Option func(*Builder)

func WithIDGenerator(g order.IDGenerator) Option {
	return func(b *Builder) { b.ids = g }
}

func WithCouponPolicy(p CouponPolicy) Option {
	return func(b *Builder) { b.coupons = p }
}

func WithDeliveryCharge(d decimal.Decimal) Option {
	return func(b *Builder) { b.deliveryCharge = d }
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder defaults to random order ids, the embedded coupon registry and
// the standard delivery charge. With the registry only listed codes earn a
// discount and any other non-empty code is rejected; pass
// WithCouponPolicy(AnyCodeFlat{Amount: money.New(50)}) for the behavior where
// every non-empty code takes a flat amount off.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		ids:            order.RandomIDs,
		deliveryCharge: DefaultDeliveryCharge,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.coupons == nil {
		b.coupons = DefaultRegistry()
	}
	return b
}

// DeliveryCharge is zero until an address has been entered.
func (b *Builder) DeliveryCharge(address string) decimal.Decimal {
	if strings.TrimSpace(address) == "" {
		return decimal.Zero
	}
	return b.deliveryCharge
}

// Quote prices the form without validating it.
func (b *Builder) Quote(items []cart.Item, form Form) Quote {
	subtotal := cart.Subtotal(items)
	delivery := b.DeliveryCharge(form.Address)
	coupon := b.coupons.Evaluate(form.Coupon, subtotal)
	return Quote{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		Coupon:         coupon,
		Discount:       coupon.Discount,
		Total:          subtotal.Add(delivery).Sub(coupon.Discount),
	}
}

// Submit validates the form and builds the confirmation. items is never
// modified.
func (b *Builder) Submit(items []cart.Item, form Form) (order.Confirmation, error) {
	if len(items) == 0 {
		return order.Confirmation{}, ErrEmptyCheckout
	}
	if err := Validate(form); err != nil {
		return order.Confirmation{}, err
	}

	q := b.Quote(items, form)
	if q.Coupon.Outcome == CouponInvalid {
		return order.Confirmation{}, &CouponError{Code: q.Coupon.Code, Reason: q.Coupon.Reason}
	}

	return order.New(order.Confirmation{
		OrderID:           b.ids.NewID(),
		Status:            order.StatusProcessing,
		CustomerName:      strings.TrimSpace(form.FullName),
		Phone:             strings.TrimSpace(form.Phone),
		ShippingAddress:   strings.TrimSpace(form.Address),
		EstimatedDelivery: order.DefaultEstimatedDelivery,
		Items:             items,
		Subtotal:          q.Subtotal,
		DeliveryCharge:    q.DeliveryCharge,
		DiscountAmount:    q.Discount,
		TotalPayable:      q.Total,
		PaymentMethod:     order.PaymentCashOnDelivery,
		CouponCode:        q.Coupon.Code,
		PlacedAt:          b.now().UTC(),
	})
}

// Validate reports every missing required field in form order, plus an
// unsupported payment method.
func Validate(form Form) error {
	var missing []string
	if strings.TrimSpace(form.FullName) == "" {
		missing = append(missing, FieldFullName)
	}
	if strings.TrimSpace(form.Phone) == "" {
		missing = append(missing, FieldPhone)
	}
	if strings.TrimSpace(form.Address) == "" {
		missing = append(missing, FieldAddress)
	}
	if pm := strings.TrimSpace(form.PaymentMethod); pm != "" && !strings.EqualFold(pm, order.PaymentCashOnDelivery) {
		missing = append(missing, FieldPaymentMethod)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

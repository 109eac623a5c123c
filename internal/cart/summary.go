package cart

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

// Cart page estimate: a flat tax rate and shipping fee shown before checkout.
// Checkout computes its own totals and does not charge tax.
var (
	EstimateTaxRate  = decimal.NewFromFloat(0.05)
	EstimateShipping = money.New(60)
)

// Summary is the cart page's price breakdown.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize estimates totals for the cart page. An empty cart costs nothing.
func Summarize(items []Item) Summary {
	subtotal := Subtotal(items)
	if len(items) == 0 {
		return Summary{Subtotal: subtotal, Tax: decimal.Zero, Shipping: decimal.Zero, Total: decimal.Zero}
	}
	tax := subtotal.Mul(EstimateTaxRate).Round(2)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: EstimateShipping,
		Total:    subtotal.Add(tax).Add(EstimateShipping),
	}
}

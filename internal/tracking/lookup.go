// Package tracking looks placed orders up by id and phone number. Lookups are
// composed from a source (mock, store, HTTP, gRPC) wrapped in decorators for
// retry, timeout and caching.
package tracking

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/jcmexdev/grocery-storefront/internal/order"
)

var (
	ErrMalformedInput = errors.New("order id and phone are required")
	ErrOrderNotFound  = errors.New("order not found")
	ErrTimedOut       = errors.New("tracking lookup timed out")
	ErrTransient      = errors.New("tracking service unavailable")
)

type Request struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
}

// Normalize trims both fields and rejects empty ones.
func (r Request) Normalize() (Request, error) {
	out := Request{OrderID: strings.TrimSpace(r.OrderID), Phone: strings.TrimSpace(r.Phone)}
	if out.OrderID == "" || out.Phone == "" {
		return out, ErrMalformedInput
	}
	return out, nil
}

type Lookup interface {
	Track(ctx context.Context, req Request) (order.Confirmation, error)
}

type LookupFunc func(ctx context.Context, req Request) (order.Confirmation, error)

func (f LookupFunc) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	return f(ctx, req)
}

// NormalizePhone keeps digits only, so "+880 1711-000000" and "8801711000000"
// compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneMatches compares two phone numbers by their digits. A local number
// such as 01711000000 also matches its country-prefixed form 8801711000000.
func PhoneMatches(a, b string) bool {
	da, db := NormalizePhone(a), NormalizePhone(b)
	if da == "" || db == "" {
		return false
	}
	return da == db || withCountryCode(da) == withCountryCode(db)
}

const countryCode = "880"

// withCountryCode rewrites a local 0-prefixed number to its 880 form.
func withCountryCode(digits string) string {
	if strings.HasPrefix(digits, countryCode) {
		return digits
	}
	if strings.HasPrefix(digits, "0") {
		return countryCode + strings.TrimPrefix(digits, "0")
	}
	return digits
}

// Message maps a lookup error to the text shown to the customer.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedInput):
		return "Please enter both your order ID and phone number."
	case errors.Is(err, ErrOrderNotFound):
		return "Order ID not found. Please check and try again."
	case errors.Is(err, ErrTimedOut):
		return "Tracking timed out. Please try again."
	default:
		return "Could not reach the tracking service. Please try again."
	}
}

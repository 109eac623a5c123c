package checkout

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCheckout = errors.New("checkout has no items")
	ErrValidation    = errors.New("checkout form is incomplete")
	ErrInvalidCoupon = errors.New("coupon code is not valid")
)

// Form field names, in the order they are reported.
const (
	FieldFullName      = "fullName"
	FieldPhone         = "phone"
	FieldAddress       = "address"
	FieldPaymentMethod = "paymentMethod"
)

// ValidationError lists the form fields that are missing or unacceptable.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "checkout: missing or invalid fields: " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// CouponError carries the reason a coupon was refused.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string {
	return "checkout: coupon " + e.Code + ": " + e.Reason
}

func (e *CouponError) Is(target error) bool { return target == ErrInvalidCoupon }

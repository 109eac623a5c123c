// Package money holds the canonical monetary representation used across the
// storefront. Amounts are fixed-point decimals; display strings such as
// "৳80" are derived with Format and never used as the source of truth.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the Bangladeshi taka glyph prefixed to every display price.
const Symbol = "৳"

// minorUnits is the number of paisa in one taka.
const minorUnits = 100

var ErrInvalidAmount = errors.New("invalid amount")

// Zero is a convenience alias for decimal.Zero.
var Zero = decimal.Zero

// New returns a whole-taka amount.
func New(taka int64) decimal.Decimal {
	return decimal.NewFromInt(taka)
}

// Format renders an amount for display: whole amounts without decimals
// ("৳80"), fractional ones with two ("৳80.50").
func Format(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return Symbol + d.StringFixed(0)
	}
	return Symbol + d.StringFixed(2)
}

// Parse reads a display price such as "৳80" or "৳ 1,250.50". It exists for
// legacy display strings; catalog data carries numeric prices.
func Parse(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, Symbol)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, ErrInvalidAmount)
	}
	return d, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ToMinor converts to integer paisa, rounding half away from zero.
func ToMinor(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(minorUnits)).Round(0).IntPart()
}

// FromMinor converts integer paisa back to an amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

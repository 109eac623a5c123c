package checkout

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

//go:embed coupons.yaml
var defaultCoupons string

// Outcome distinguishes "no code entered" from a rejected code.
type Outcome int

const (
	CouponNone Outcome = iota
	CouponApplied
	CouponInvalid
)

func (o Outcome) String() string {
	switch o {
	case CouponApplied:
		return "applied"
	case CouponInvalid:
		return "invalid"
	default:
		return "none"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// CouponResult is the evaluation of a coupon against a subtotal.
type CouponResult struct {
	Outcome  Outcome         `json:"outcome"`
	Code     string          `json:"code,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Reason   string          `json:"reason,omitempty"`
}

// CouponPolicy decides the discount for a code.
type CouponPolicy interface {
	Evaluate(code string, subtotal decimal.Decimal) CouponResult
}

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AnyCodeFlat accepts any non-empty code for a fixed discount.
type AnyCodeFlat struct {
	Amount decimal.Decimal
}

func (p AnyCodeFlat) Evaluate(code string, subtotal decimal.Decimal) CouponResult {
	code = NormalizeCode(code)
	if code == "" {
		return CouponResult{Outcome: CouponNone, Discount: decimal.Zero}
	}
	return CouponResult{Outcome: CouponApplied, Code: code, Discount: capDiscount(p.Amount, subtotal)}
}

type RuleKind string

const (
	RuleFlat    RuleKind = "flat"
	RulePercent RuleKind = "percent"
)

// Rule describes one registered coupon. Zero ValidFrom/ValidUntil mean unbounded.
type Rule struct {
	Kind        RuleKind
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  time.Time
}

// Registry looks codes up in a fixed table.
type Registry struct {
	rules map[string]Rule
	now   func() time.Time
}

// NewRegistry indexes rules by normalized code. now defaults to time.Now.
func NewRegistry(rules map[string]Rule, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	r := &Registry{rules: make(map[string]Rule, len(rules)), now: now}
	for code, rule := range rules {
		r.rules[NormalizeCode(code)] = rule
	}
	return r
}

func (r *Registry) Evaluate(code string, subtotal decimal.Decimal) CouponResult {
	code = NormalizeCode(code)
	if code == "" {
		return CouponResult{Outcome: CouponNone, Discount: decimal.Zero}
	}
	invalid := func(reason string) CouponResult {
		return CouponResult{Outcome: CouponInvalid, Code: code, Discount: decimal.Zero, Reason: reason}
	}

	rule, ok := r.rules[code]
	if !ok {
		return invalid("unknown code")
	}
	now := r.now()
	if !rule.ValidFrom.IsZero() && now.Before(rule.ValidFrom) {
		return invalid("not yet valid")
	}
	if !rule.ValidUntil.IsZero() && now.After(rule.ValidUntil) {
		return invalid("expired")
	}
	if subtotal.LessThan(rule.MinSubtotal) {
		return invalid("minimum order is " + money.Format(rule.MinSubtotal))
	}

	var discount decimal.Decimal
	switch rule.Kind {
	case RulePercent:
		discount = subtotal.Mul(rule.Value).Div(decimal.NewFromInt(100)).Round(2)
	default:
		discount = rule.Value
	}
	return CouponResult{Outcome: CouponApplied, Code: code, Discount: capDiscount(discount, subtotal)}
}

// Codes lists the registered codes.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.rules))
	for c := range r.rules {
		out = append(out, c)
	}
	return out
}

func capDiscount(d, subtotal decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return money.Min(d, subtotal)
}

type couponsDoc struct {
	Coupons []struct {
		Code        string    `yaml:"code"`
		Kind        RuleKind  `yaml:"kind"`
		Value       string    `yaml:"value"`
		MinSubtotal string    `yaml:"minSubtotal"`
		ValidFrom   time.Time `yaml:"validFrom"`
		ValidUntil  time.Time `yaml:"validUntil"`
	} `yaml:"coupons"`
}

// LoadRegistry reads coupon rules from YAML.
func LoadRegistry(r io.Reader, now func() time.Time) (*Registry, error) {
	var doc couponsDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("checkout: decode coupons: %w", err)
	}
	rules := make(map[string]Rule, len(doc.Coupons))
	for _, c := range doc.Coupons {
		if NormalizeCode(c.Code) == "" {
			return nil, fmt.Errorf("checkout: coupon without code")
		}
		if c.Kind != RuleFlat && c.Kind != RulePercent {
			return nil, fmt.Errorf("checkout: coupon %q kind %q", c.Code, c.Kind)
		}
		value, err := decimal.NewFromString(c.Value)
		if err != nil || value.IsNegative() {
			return nil, fmt.Errorf("checkout: coupon %q value %q", c.Code, c.Value)
		}
		minSubtotal := decimal.Zero
		if c.MinSubtotal != "" {
			if minSubtotal, err = decimal.NewFromString(c.MinSubtotal); err != nil {
				return nil, fmt.Errorf("checkout: coupon %q minSubtotal %q: %w", c.Code, c.MinSubtotal, err)
			}
		}
		rules[c.Code] = Rule{
			Kind:        c.Kind,
			Value:       value,
			MinSubtotal: minSubtotal,
			ValidFrom:   c.ValidFrom,
			ValidUntil:  c.ValidUntil,
		}
	}
	return NewRegistry(rules, now), nil
}

// DefaultRegistry returns the coupons embedded in the binary.
func DefaultRegistry() *Registry {
	r, err := LoadRegistry(strings.NewReader(defaultCoupons), nil)
	if err != nil {
		panic(err)
	}
	return r
}

package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

// ProductOption is one purchasable unit of a product (e.g. "500g", "1 KG").
type ProductOption struct {
	Unit          string           `json:"unit"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
}

type ProductReview struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Initials string `json:"initials" yaml:"initials"`
	Rating   int    `json:"rating" yaml:"rating"`
	Text     string `json:"text" yaml:"text"`
	IsNew    bool   `json:"isNew,omitempty" yaml:"isNew"`
}

type ProductQuestion struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Product is an immutable catalog entry. Price always equals the price of
// the first option, which is the default selection.
type Product struct {
	ID                string            `json:"id"`
	Category          string            `json:"category,omitempty"`
	ImageSrc          string            `json:"imageSrc,omitempty"`
	ImageAlt          string            `json:"imageAlt,omitempty"`
	Title             string            `json:"title"`
	TitleBn           string            `json:"titleBn,omitempty"`
	Description       string            `json:"description,omitempty"`
	DescriptionBn     string            `json:"descriptionBn,omitempty"`
	FullDescription   string            `json:"fullDescription,omitempty"`
	FullDescriptionBn string            `json:"fullDescriptionBn,omitempty"`
	Features          []string          `json:"features,omitempty"`
	Price             decimal.Decimal   `json:"price"`
	OriginalPrice     *decimal.Decimal  `json:"originalPrice,omitempty"`
	DiscountText      string            `json:"discountText,omitempty"`
	Options           []ProductOption   `json:"options"`
	Reviews           []ProductReview   `json:"reviews,omitempty"`
	Questions         []ProductQuestion `json:"questions,omitempty"`
}

// DisplayPrice renders the current price, e.g. "৳80".
func (p Product) DisplayPrice() string {
	return money.Format(p.Price)
}

// DisplayOriginalPrice renders the pre-discount price, or "" when there is none.
func (p Product) DisplayOriginalPrice() string {
	if p.OriginalPrice == nil {
		return ""
	}
	return money.Format(*p.OriginalPrice)
}

// DefaultOption returns the first option. Catalog validation guarantees it exists.
func (p Product) DefaultOption() ProductOption {
	return p.Options[0]
}

// LocalizedTitle returns the Bengali title when lang is "bn" and one exists.
func (p Product) LocalizedTitle(lang string) string {
	if lang == "bn" && p.TitleBn != "" {
		return p.TitleBn
	}
	return p.Title
}

// AverageRating is 0 for a product without reviews.
func (p Product) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews))
}

// Clone returns a deep copy so callers can never alias catalog slices.
func (p Product) Clone() Product {
	out := p
	out.Features = append([]string(nil), p.Features...)
	out.Options = append([]ProductOption(nil), p.Options...)
	out.Reviews = append([]ProductReview(nil), p.Reviews...)
	out.Questions = append([]ProductQuestion(nil), p.Questions...)
	return out
}

// Package catalog loads the static set of purchasable products. The catalog
// is read once at startup and never mutated afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultCatalog string

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

// Catalog is an ordered, read-only product list.
type Catalog struct {
	products []Product
	index    map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(strings.NewReader(defaultCatalog))
}

// Load parses and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(doc.toProducts())
}

// New builds a catalog from already-decoded products.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product %q: %w", p.ID, ErrInvalidCatalog)
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p.Clone())
	}
	return c, nil
}

// All returns every product in catalog order.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

func (c *Catalog) Len() int { return len(c.products) }

// Get looks a product up by id.
func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, fmt.Errorf("catalog: get %q: %w", id, ErrProductNotFound)
	}
	return c.products[i].Clone(), nil
}

// Related returns up to limit other products, same category first.
func (c *Catalog) Related(id string, limit int) []Product {
	self, err := c.Get(id)
	if err != nil || limit <= 0 {
		return nil
	}
	var same, other []Product
	for _, p := range c.products {
		if p.ID == id {
			continue
		}
		if self.Category != "" && p.Category == self.Category {
			same = append(same, p.Clone())
		} else {
			other = append(other, p.Clone())
		}
	}
	out := append(same, other...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func validate(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("catalog: product without id: %w", ErrInvalidCatalog)
	}
	if len(p.Options) == 0 {
		return fmt.Errorf("catalog: product %q has no options: %w", p.ID, ErrInvalidCatalog)
	}
	if !p.Price.Equal(p.Options[0].Price) {
		return fmt.Errorf("catalog: product %q price %s differs from default option %s: %w",
			p.ID, p.Price, p.Options[0].Price, ErrInvalidCatalog)
	}
	for _, o := range p.Options {
		if o.Price.IsNegative() || (o.OriginalPrice != nil && o.OriginalPrice.IsNegative()) {
			return fmt.Errorf("catalog: product %q option %q has invalid price: %w", p.ID, o.Unit, ErrInvalidCatalog)
		}
	}
	for _, r := range p.Reviews {
		if r.Rating < 1 || r.Rating > 5 {
			return fmt.Errorf("catalog: product %q review %q rating %d: %w", p.ID, r.ID, r.Rating, ErrInvalidCatalog)
		}
	}
	return nil
}

// catalogDoc mirrors products.yaml. Prices are strings so that they decode
// exactly into decimals.
type catalogDoc struct {
	Products []productDoc `yaml:"products"`
}

type productDoc struct {
	ID                string            `yaml:"id"`
	Category          string            `yaml:"category"`
	ImageSrc          string            `yaml:"imageSrc"`
	ImageAlt          string            `yaml:"imageAlt"`
	Title             string            `yaml:"title"`
	TitleBn           string            `yaml:"titleBn"`
	Description       string            `yaml:"description"`
	DescriptionBn     string            `yaml:"descriptionBn"`
	FullDescription   string            `yaml:"fullDescription"`
	FullDescriptionBn string            `yaml:"fullDescriptionBn"`
	Features          []string          `yaml:"features"`
	DiscountText      string            `yaml:"discountText"`
	Options           []optionDoc       `yaml:"options"`
	Reviews           []ProductReview   `yaml:"reviews"`
	Questions         []ProductQuestion `yaml:"questions"`
}

type optionDoc struct {
	Unit          string `yaml:"unit"`
	Price         string `yaml:"price"`
	OriginalPrice string `yaml:"originalPrice"`
}

func (d catalogDoc) toProducts() []Product {
	out := make([]Product, 0, len(d.Products))
	for _, pd := range d.Products {
		p := Product{
			ID:                pd.ID,
			Category:          pd.Category,
			ImageSrc:          pd.ImageSrc,
			ImageAlt:          pd.ImageAlt,
			Title:             pd.Title,
			TitleBn:           pd.TitleBn,
			Description:       pd.Description,
			DescriptionBn:     pd.DescriptionBn,
			FullDescription:   pd.FullDescription,
			FullDescriptionBn: pd.FullDescriptionBn,
			Features:          pd.Features,
			DiscountText:      pd.DiscountText,
			Reviews:           pd.Reviews,
			Questions:         pd.Questions,
		}
		for _, od := range pd.Options {
			opt := ProductOption{Unit: od.Unit, Price: parsePrice(od.Price)}
			if od.OriginalPrice != "" {
				orig := parsePrice(od.OriginalPrice)
				opt.OriginalPrice = &orig
			}
			p.Options = append(p.Options, opt)
		}
		if len(p.Options) > 0 {
			p.Price = p.Options[0].Price
			p.OriginalPrice = p.Options[0].OriginalPrice
		}
		out = append(out, p)
	}
	return out
}

// parsePrice yields -1 on garbage so validation rejects the product.
func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NewFromInt(-1)
	}
	return d
}

// Package cart implements the cart manager. A Cart is an immutable value:
// every mutation returns a new Cart and leaves the receiver untouched, so a
// cart can be snapshotted simply by keeping a reference to it.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not in cart")
)

// Item is a product paired with the selected quantity. Quantity is always >= 1.
type Item struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) clone() Item {
	return Item{Product: i.Product.Clone(), Quantity: i.Quantity}
}

// Cart holds items in insertion order, unique by product id.
type Cart struct {
	items []Item
}

// New returns a cart holding a copy of items. Lines with the same product id
// are merged; quantities below 1 are rejected.
func New(items ...Item) (Cart, error) {
	var c Cart
	for _, it := range items {
		var err error
		if c, err = c.Add(it.Product, it.Quantity); err != nil {
			return Cart{}, err
		}
	}
	return c, nil
}

// Add increments the quantity of an existing line or appends a new one.
// No upper bound is enforced.
func (c Cart) Add(p catalog.Product, quantity int) (Cart, error) {
	if quantity < 1 {
		return c, fmt.Errorf("cart: add %q x%d: %w", p.ID, quantity, ErrInvalidQuantity)
	}
	next := c.copyItems()
	for i := range next {
		if next[i].ID == p.ID {
			next[i].Quantity += quantity
			return Cart{items: next}, nil
		}
	}
	next = append(next, Item{Product: p.Clone(), Quantity: quantity})
	return Cart{items: next}, nil
}

// UpdateQuantity applies delta and floors the result at 1. Reaching the floor
// never removes the line; use Remove for that.
func (c Cart) UpdateQuantity(id string, delta int) (Cart, error) {
	next := c.copyItems()
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = ClampQuantity(next[i].Quantity + delta)
			return Cart{items: next}, nil
		}
	}
	return c, fmt.Errorf("cart: update %q: %w", id, ErrItemNotFound)
}

// Remove deletes the line for id. Removing an absent id is a no-op.
func (c Cart) Remove(id string) Cart {
	next := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if it.ID != id {
			next = append(next, it.clone())
		}
	}
	return Cart{items: next}
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart {
	return Cart{}
}

// Items returns a copy of the lines in insertion order.
func (c Cart) Items() []Item {
	return c.copyItems()
}

func (c Cart) Len() int { return len(c.items) }

func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

// Quantity returns the quantity for id, or 0 when absent.
func (c Cart) Quantity(id string) int {
	for _, it := range c.items {
		if it.ID == id {
			return it.Quantity
		}
	}
	return 0
}

// Units is the total number of units across all lines.
func (c Cart) Units() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums price times quantity over all lines.
func (c Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.items)
}

func (c Cart) copyItems() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// Subtotal sums price times quantity over items.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// SubtotalFromDisplay recomputes the subtotal from each item's display price
// string. It mirrors how prices used to be derived and is only useful to
// cross-check imported data against the numeric prices.
func SubtotalFromDisplay(items []Item) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range items {
		price, err := money.Parse(it.DisplayPrice())
		if err != nil {
			return decimal.Zero, fmt.Errorf("cart: display price of %q: %w", it.ID, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total, nil
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

// ClampQuantity floors a quantity at 1.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// MarshalJSON encodes the cart as its list of lines.
func (c Cart) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

// Package navigation is the page controller of the storefront. It owns the
// current page, the cart and the checkout snapshot of one shopper, and moves
// between pages only through explicit events.
package navigation

import (
	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
)

type Page string

const (
	PageHome              Page = "home"
	PageProductDetails    Page = "productDetails"
	PageCart              Page = "cart"
	PageCheckout          Page = "checkout"
	PageOrderConfirmation Page = "orderConfirmation"
	PageTrackOrder        Page = "trackOrder"
)

// View is what a renderer should draw. It is the page itself unless the page
// lacks the data it needs, in which case it is ViewBlank.
type View string

const ViewBlank View = "blank"

// State is an immutable snapshot. Values reachable through its pointers and
// slices are never modified after the snapshot is published.
type State struct {
	Page          Page                `json:"page"`
	ActiveProduct *catalog.Product    `json:"activeProduct,omitempty"`
	Cart          cart.Cart           `json:"cart"`
	CheckoutItems []cart.Item         `json:"checkoutItems,omitempty"`
	Order         *order.Confirmation `json:"order,omitempty"`
	TrackingError string              `json:"trackingError,omitempty"`
	IsLoading     bool                `json:"isLoading"`
	Version       uint64              `json:"version"`
}

// View applies the render guards.
func (s State) View() View {
	switch {
	case s.Page == PageCheckout && len(s.CheckoutItems) == 0:
		return ViewBlank
	case s.Page == PageOrderConfirmation && s.Order == nil:
		return ViewBlank
	case s.Page == PageProductDetails && s.ActiveProduct == nil:
		return ViewBlank
	default:
		return View(s.Page)
	}
}

// Clone returns a snapshot sharing nothing mutable with s.
func (s State) Clone() State {
	out := s
	if s.ActiveProduct != nil {
		p := s.ActiveProduct.Clone()
		out.ActiveProduct = &p
	}
	out.CheckoutItems = cart.CloneItems(s.CheckoutItems)
	if s.Order != nil {
		o := s.Order.Clone()
		out.Order = &o
	}
	return out
}

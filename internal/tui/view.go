package tui

import (
	"fmt"
	"strings"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

func (m *Model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grocery Storefront  [cart: %d]\n\n", m.state.Cart.Units())

	switch m.state.View() {
	case navigation.View(navigation.PageHome):
		m.viewHome(&b)
	case navigation.View(navigation.PageProductDetails):
		m.viewDetails(&b)
	case navigation.View(navigation.PageCart):
		m.viewCart(&b)
	case navigation.View(navigation.PageCheckout):
		m.viewCheckout(&b)
	case navigation.View(navigation.PageOrderConfirmation):
		viewOrder(&b, *m.state.Order)
		b.WriteString("\nenter: continue shopping\n")
	case navigation.View(navigation.PageTrackOrder):
		m.viewTracking(&b)
	default:
		b.WriteString("\nesc: back\n")
	}

	if m.status != "" {
		fmt.Fprintf(&b, "\n%s\n", m.status)
	}
	return b.String()
}

func (m *Model) viewHome(b *strings.Builder) {
	for i, p := range m.products {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		fmt.Fprintf(b, "%s %-32s %8s", cursor, p.Title, p.DisplayPrice())
		if orig := p.DisplayOriginalPrice(); orig != "" {
			fmt.Fprintf(b, "  (was %s)", orig)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nenter: details  c: cart  t: track order  q: quit\n")
}

func (m *Model) viewDetails(b *strings.Builder) {
	p := m.state.ActiveProduct
	fmt.Fprintf(b, "%s\n%s\n\n", p.Title, p.TitleBn)
	fmt.Fprintf(b, "Price: %s", p.DisplayPrice())
	if p.DiscountText != "" {
		fmt.Fprintf(b, "  %s", p.DiscountText)
	}
	b.WriteString("\n")
	if p.Description != "" {
		fmt.Fprintf(b, "%s\n", p.Description)
	}
	for _, f := range p.Features {
		fmt.Fprintf(b, "  * %s\n", f)
	}
	if n := len(p.Reviews); n > 0 {
		fmt.Fprintf(b, "Rating: %.1f (%d reviews)\n", p.AverageRating(), n)
	}
	fmt.Fprintf(b, "\nQuantity: %d\n", m.qty)
	b.WriteString("\n+/-: quantity  a: add to cart  b: buy now  c: cart  esc: home\n")
}

func (m *Model) viewCart(b *strings.Builder) {
	items := m.state.Cart.Items()
	if len(items) == 0 {
		b.WriteString("Your cart is empty.\n\nesc: home\n")
		return
	}
	for i, it := range items {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		fmt.Fprintf(b, "%s %-32s x%-3d %8s\n", cursor, it.Title, it.Quantity, money.Format(it.LineTotal()))
	}
	s := cart.Summarize(items)
	fmt.Fprintf(b, "\nSubtotal %s  Tax %s  Shipping %s  Total %s\n",
		money.Format(s.Subtotal), money.Format(s.Tax), money.Format(s.Shipping), money.Format(s.Total))
	b.WriteString("\n+/-: quantity  d: remove  enter: checkout  esc: home\n")
}

func (m *Model) viewCheckout(b *strings.Builder) {
	for _, it := range m.state.CheckoutItems {
		fmt.Fprintf(b, "  %-32s x%-3d %8s\n", it.Title, it.Quantity, money.Format(it.LineTotal()))
	}
	b.WriteString("\n")
	values := []string{m.form.FullName, m.form.Phone, m.form.Address, m.form.Coupon}
	writeFields(b, checkoutFields, values, m.inputField)

	if q, err := m.ctrl.Quote(m.form); err == nil {
		fmt.Fprintf(b, "\nSubtotal %s  Delivery %s  Discount %s\nTotal payable %s  (Cash on Delivery)\n",
			money.Format(q.Subtotal), money.Format(q.DeliveryCharge), money.Format(q.Discount), money.Format(q.Total))
		if q.Coupon.Reason != "" {
			fmt.Fprintf(b, "Coupon: %s\n", q.Coupon.Reason)
		}
	}
	b.WriteString("\ntab: next field  enter: place order  esc: back to cart\n")
}

func (m *Model) viewTracking(b *strings.Builder) {
	writeFields(b, trackFields, m.trackForm[:], m.inputField)
	switch {
	case m.state.IsLoading:
		b.WriteString("\nLooking up your order...\n")
	case m.state.TrackingError != "":
		fmt.Fprintf(b, "\n%s\n", m.state.TrackingError)
	}
	b.WriteString("\ntab: next field  enter: track  esc: home\n")
}

func viewOrder(b *strings.Builder, o order.Confirmation) {
	fmt.Fprintf(b, "Order %s  %s\n", o.OrderID, o.Status)
	b.WriteString(progressBar(o.Status))
	fmt.Fprintf(b, "\n%s, %s\n%s\nEstimated delivery: %s\n\n", o.CustomerName, o.Phone, o.ShippingAddress, o.EstimatedDelivery)
	for _, it := range o.Items {
		fmt.Fprintf(b, "  %-32s x%-3d %8s\n", it.Title, it.Quantity, money.Format(it.LineTotal()))
	}
	fmt.Fprintf(b, "\nSubtotal %s  Delivery %s  Discount %s\nTotal payable %s  (%s)\n",
		o.DisplaySubtotal(), o.DisplayDelivery(), o.DisplayDiscount(), o.DisplayTotal(), o.PaymentMethod)
}

func progressBar(s order.Status) string {
	if s == order.StatusCancelled {
		return "[cancelled]\n"
	}
	var parts []string
	for _, st := range order.Statuses() {
		if st == order.StatusCancelled {
			continue
		}
		mark := " "
		if st.ProgressIndex() <= s.ProgressIndex() {
			mark = "x"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", mark, st))
	}
	return strings.Join(parts, " - ") + "\n"
}

func writeFields(b *strings.Builder, labels, values []string, active int) {
	for i, label := range labels {
		cursor := " "
		if i == active {
			cursor = ">"
		}
		fmt.Fprintf(b, "%s %-10s %s\n", cursor, label+":", values[i])
	}
}

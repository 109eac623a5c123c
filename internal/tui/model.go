// Package tui is a terminal storefront. It renders navigation snapshots and
// turns key presses into controller events; it holds no shopping state of
// its own beyond cursors and half-typed form input.
package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/checkout"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

// stateMsg carries a snapshot published by the controller outside of a key
// press, such as a finished tracking lookup.
type stateMsg navigation.State

type Model struct {
	ctrl     *navigation.Controller
	products []catalog.Product
	// updates holds at most the newest unrendered snapshot.
	updates   chan navigation.State
	publishMu sync.Mutex

	state  navigation.State
	cursor int
	qty    int
	status string

	form       checkout.Form
	trackForm  [2]string
	inputField int
}

// New subscribes to ctrl; call Close when the program ends.
func New(ctrl *navigation.Controller, cat *catalog.Catalog) *Model {
	m := &Model{
		ctrl:     ctrl,
		products: cat.All(),
		updates:  make(chan navigation.State, 1),
		state:    ctrl.State(),
		qty:      1,
	}
	ctrl.Subscribe(m.publish)
	return m
}

// publish replaces any pending snapshot with the newer of the two.
func (m *Model) publish(s navigation.State) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()
	select {
	case pending := <-m.updates:
		if pending.Version > s.Version {
			s = pending
		}
	default:
	}
	m.updates <- s
}

func (m *Model) Init() tea.Cmd {
	return m.waitForState()
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-m.updates)
	}
}

// Close abandons any running lookup.
func (m *Model) Close() { m.ctrl.Close() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if msg.Version >= m.state.Version {
			m.state = navigation.State(msg)
		}
		return m, m.waitForState()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing() {
			m.handleInput(msg)
		} else if msg.String() == "q" {
			return m, tea.Quit
		} else {
			m.handleKey(msg.String())
		}
		m.state = m.ctrl.State()
	}
	return m, nil
}

// editing reports whether key presses go to a text field.
func (m *Model) editing() bool {
	return m.state.Page == navigation.PageCheckout || m.state.Page == navigation.PageTrackOrder
}

func (m *Model) handleKey(key string) {
	m.status = ""
	switch m.state.Page {
	case navigation.PageHome:
		m.homeKey(key)
	case navigation.PageProductDetails:
		m.detailsKey(key)
	case navigation.PageCart:
		m.cartKey(key)
	case navigation.PageOrderConfirmation:
		if key == "enter" || key == "esc" {
			m.report(m.ctrl.CloseConfirmation())
		}
	}
}

func (m *Model) homeKey(key string) {
	switch key {
	case "up", "k":
		m.moveCursor(-1, len(m.products))
	case "down", "j":
		m.moveCursor(1, len(m.products))
	case "enter":
		if len(m.products) > 0 {
			m.qty = 1
			m.report(m.ctrl.SelectProduct(m.products[m.cursor]))
		}
	case "c":
		m.cursor = 0
		m.report(m.ctrl.ViewCart())
	case "t":
		m.trackForm = [2]string{}
		m.inputField = 0
		m.report(m.ctrl.NavigateToTracking())
	}
}

func (m *Model) detailsKey(key string) {
	p := m.state.ActiveProduct
	switch key {
	case "+", "=":
		m.qty++
	case "-":
		m.qty--
	case "a":
		if p != nil {
			m.report(m.ctrl.AddToCart(*p, m.qty))
			m.status = "Added to cart"
		}
	case "b":
		if p != nil {
			m.cursor = 0
			m.report(m.ctrl.BuyNow(*p, m.qty))
		}
	case "c":
		m.cursor = 0
		m.report(m.ctrl.ViewCart())
	case "esc":
		m.report(m.ctrl.GoHome())
	}
	if m.qty < 1 {
		m.qty = 1
	}
}

func (m *Model) cartKey(key string) {
	items := m.state.Cart.Items()
	switch key {
	case "up", "k":
		m.moveCursor(-1, len(items))
	case "down", "j":
		m.moveCursor(1, len(items))
	case "+", "=":
		if len(items) > 0 {
			m.report(m.ctrl.UpdateCartQuantity(items[m.cursor].ID, 1))
		}
	case "-":
		if len(items) > 0 {
			m.report(m.ctrl.UpdateCartQuantity(items[m.cursor].ID, -1))
		}
	case "d":
		if len(items) > 0 {
			m.report(m.ctrl.RemoveFromCart(items[m.cursor].ID))
			m.moveCursor(0, len(items)-1)
		}
	case "enter":
		if len(items) == 0 {
			m.status = "Your cart is empty"
			return
		}
		m.form = checkout.Form{}
		m.inputField = 0
		m.report(m.ctrl.CheckoutCart())
	case "esc":
		m.report(m.ctrl.GoHome())
	}
}

var checkoutFields = []string{"Full name", "Phone", "Address", "Coupon"}

var trackFields = []string{"Order ID", "Phone"}

func (m *Model) handleInput(msg tea.KeyMsg) {
	fields := len(checkoutFields)
	if m.state.Page == navigation.PageTrackOrder {
		fields = len(trackFields)
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.status = ""
		if m.state.Page == navigation.PageCheckout {
			m.report(m.ctrl.BackToCart())
		} else {
			m.report(m.ctrl.GoHome())
		}
	case tea.KeyTab, tea.KeyDown:
		m.inputField = (m.inputField + 1) % fields
	case tea.KeyShiftTab, tea.KeyUp:
		m.inputField = (m.inputField + fields - 1) % fields
	case tea.KeyBackspace:
		if f := m.field(); len(*f) > 0 {
			r := []rune(*f)
			*f = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		*m.field() += " "
	case tea.KeyRunes:
		*m.field() += string(msg.Runes)
	case tea.KeyEnter:
		m.submit()
	}
}

func (m *Model) field() *string {
	if m.state.Page == navigation.PageTrackOrder {
		return &m.trackForm[m.inputField]
	}
	switch m.inputField {
	case 0:
		return &m.form.FullName
	case 1:
		return &m.form.Phone
	case 2:
		return &m.form.Address
	default:
		return &m.form.Coupon
	}
}

func (m *Model) submit() {
	m.status = ""
	if m.state.Page == navigation.PageTrackOrder {
		_, err := m.ctrl.TrackOrder(context.Background(), m.trackForm[0], m.trackForm[1])
		if errors.Is(err, navigation.ErrLookupInFlight) {
			m.status = "Still looking up your order"
		}
		return
	}
	_, _, err := m.ctrl.PlaceOrder(context.Background(), m.form)
	var verr *checkout.ValidationError
	var cerr *checkout.CouponError
	switch {
	case errors.As(err, &verr):
		m.status = "Please fill in all required fields"
	case errors.As(err, &cerr):
		m.status = "Coupon " + cerr.Code + ": " + cerr.Reason
	case err != nil:
		m.status = "Could not place the order: " + err.Error()
	}
}

func (m *Model) report(_ navigation.State, err error) {
	if err != nil && !errors.Is(err, tracking.ErrMalformedInput) {
		m.status = err.Error()
	}
}

func (m *Model) moveCursor(delta, n int) {
	m.cursor += delta
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

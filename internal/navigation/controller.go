package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/checkout"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

var (
	ErrInvalidTransition = errors.New("event not allowed on this page")
	ErrLookupInFlight    = errors.New("a tracking lookup is already in progress")
)

const (
	DefaultHistoryLimit    = 64
	DefaultTrackingTimeout = 10 * time.Second
)

// OrderSink receives every order confirmed at checkout before the shopper
// sees the confirmation page.
type OrderSink interface {
	Place(ctx context.Context, c order.Confirmation) error
}

// Controller serializes the events of one shopper session. Every accepted
// event publishes a new State; a rejected event leaves the state untouched.
type Controller struct {
	mu        sync.Mutex
	state     State
	history   []State
	listeners map[int]func(State)
	nextSub   int

	builder         *checkout.Builder
	sink            OrderSink
	lookup          tracking.Lookup
	trackingTimeout time.Duration
	historyLimit    int

	task   *tracking.Task
	taskID uint64
}

type Option func(*Controller)

func WithBuilder(b *checkout.Builder) Option {
	return func(c *Controller) { c.builder = b }
}

func WithOrderSink(s OrderSink) Option {
	return func(c *Controller) { c.sink = s }
}

func WithLookup(l tracking.Lookup) Option {
	return func(c *Controller) { c.lookup = l }
}

func WithTrackingTimeout(d time.Duration) Option {
	return func(c *Controller) { c.trackingTimeout = d }
}

func WithHistoryLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// New starts on the home page with an empty cart.
func New(opts ...Option) *Controller {
	c := &Controller{
		state:           State{Page: PageHome},
		listeners:       map[int]func(State){},
		trackingTimeout: DefaultTrackingTimeout,
		historyLimit:    DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.builder == nil {
		c.builder = checkout.NewBuilder()
	}
	if c.lookup == nil {
		c.lookup = tracking.NewMock()
	}
	c.history = []State{c.state}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// History returns past snapshots, oldest first, up to the history limit.
func (c *Controller) History() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]State, len(c.history))
	for i, s := range c.history {
		out[i] = s.Clone()
	}
	return out
}

// Subscribe registers fn to receive every new snapshot. fn runs outside the
// controller lock and may call back into the controller. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// SelectProduct opens the details page of p.
func (c *Controller) SelectProduct(p catalog.Product) (State, error) {
	return c.apply(func(s State) (State, error) {
		prod := p.Clone()
		s.Page = PageProductDetails
		s.ActiveProduct = &prod
		return s, nil
	})
}

// GoHome clears the active product, the checkout snapshot and the order
// record, and abandons any tracking lookup. The cart is kept.
func (c *Controller) GoHome() (State, error) {
	return c.apply(func(s State) (State, error) {
		c.cancelTrackingLocked()
		s.Page = PageHome
		s.ActiveProduct = nil
		s.CheckoutItems = nil
		s.Order = nil
		s.TrackingError = ""
		s.IsLoading = false
		return s, nil
	})
}

func (c *Controller) AddToCart(p catalog.Product, quantity int) (State, error) {
	return c.apply(func(s State) (State, error) {
		next, err := s.Cart.Add(p, quantity)
		if err != nil {
			return s, err
		}
		s.Cart = next
		return s, nil
	})
}

// BuyNow adds p and opens the cart.
func (c *Controller) BuyNow(p catalog.Product, quantity int) (State, error) {
	return c.apply(func(s State) (State, error) {
		next, err := s.Cart.Add(p, quantity)
		if err != nil {
			return s, err
		}
		s.Cart = next
		s.Page = PageCart
		return s, nil
	})
}

func (c *Controller) UpdateCartQuantity(productID string, delta int) (State, error) {
	return c.apply(func(s State) (State, error) {
		next, err := s.Cart.UpdateQuantity(productID, delta)
		if err != nil {
			return s, err
		}
		s.Cart = next
		return s, nil
	})
}

func (c *Controller) RemoveFromCart(productID string) (State, error) {
	return c.apply(func(s State) (State, error) {
		s.Cart = s.Cart.Remove(productID)
		return s, nil
	})
}

func (c *Controller) ViewCart() (State, error) {
	return c.apply(func(s State) (State, error) {
		s.Page = PageCart
		return s, nil
	})
}

// GoToCheckout snapshots items and opens checkout. Only allowed from the
// cart. An empty snapshot still opens checkout, which then renders blank.
func (c *Controller) GoToCheckout(items []cart.Item) (State, error) {
	return c.apply(func(s State) (State, error) {
		if s.Page != PageCart {
			return s, invalid("go to checkout", s.Page)
		}
		s.Page = PageCheckout
		s.CheckoutItems = cart.CloneItems(items)
		return s, nil
	})
}

// CheckoutCart is GoToCheckout with the current cart contents.
func (c *Controller) CheckoutCart() (State, error) {
	return c.apply(func(s State) (State, error) {
		if s.Page != PageCart {
			return s, invalid("go to checkout", s.Page)
		}
		s.Page = PageCheckout
		s.CheckoutItems = s.Cart.Items()
		return s, nil
	})
}

// BackToCart discards the checkout snapshot.
func (c *Controller) BackToCart() (State, error) {
	return c.apply(func(s State) (State, error) {
		if s.Page != PageCheckout {
			return s, invalid("back to cart", s.Page)
		}
		s.Page = PageCart
		s.CheckoutItems = nil
		return s, nil
	})
}

// ConfirmOrder shows o and empties the cart. It requires a non-empty
// checkout snapshot and a record that passes order validation.
func (c *Controller) ConfirmOrder(o order.Confirmation) (State, error) {
	return c.apply(func(s State) (State, error) {
		return confirm(s, o)
	})
}

func confirm(s State, o order.Confirmation) (State, error) {
	if s.Page != PageCheckout || len(s.CheckoutItems) == 0 {
		return s, invalid("confirm order", s.Page)
	}
	rec, err := order.New(o)
	if err != nil {
		return s, fmt.Errorf("navigation: confirm order: %w", err)
	}
	s.Page = PageOrderConfirmation
	s.Order = &rec
	s.Cart = s.Cart.Clear()
	s.CheckoutItems = nil
	return s, nil
}

// PlaceOrder builds the order from the checkout snapshot and form, hands it
// to the order sink and confirms it. Validation, coupon and sink errors are
// returned without a transition. The session is locked for the duration.
func (c *Controller) PlaceOrder(ctx context.Context, form checkout.Form) (order.Confirmation, State, error) {
	var placed order.Confirmation
	s, err := c.apply(func(s State) (State, error) {
		if s.Page != PageCheckout {
			return s, invalid("place order", s.Page)
		}
		o, err := c.builder.Submit(s.CheckoutItems, form)
		if err != nil {
			return s, err
		}
		if c.sink != nil {
			if err := c.sink.Place(ctx, o); err != nil {
				return s, fmt.Errorf("navigation: place order %q: %w", o.OrderID, err)
			}
		}
		placed = o
		return confirm(s, o)
	})
	return placed, s, err
}

// Quote prices the checkout snapshot for live display.
func (c *Controller) Quote(form checkout.Form) (checkout.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Page != PageCheckout {
		return checkout.Quote{}, invalid("quote", c.state.Page)
	}
	return c.builder.Quote(c.state.CheckoutItems, form), nil
}

// CloseConfirmation leaves the confirmation page for home.
func (c *Controller) CloseConfirmation() (State, error) {
	return c.apply(func(s State) (State, error) {
		if s.Page != PageOrderConfirmation {
			return s, invalid("close confirmation", s.Page)
		}
		s.Page = PageHome
		s.Order = nil
		return s, nil
	})
}

// NavigateToTracking opens an empty tracking form, abandoning any lookup.
func (c *Controller) NavigateToTracking() (State, error) {
	return c.apply(func(s State) (State, error) {
		c.cancelTrackingLocked()
		s.Page = PageTrackOrder
		s.Order = nil
		s.TrackingError = ""
		s.IsLoading = false
		return s, nil
	})
}

// Back is the generic back action of a renderer.
func (c *Controller) Back() (State, error) {
	switch c.State().Page {
	case PageCheckout:
		return c.BackToCart()
	case PageOrderConfirmation:
		return c.CloseConfirmation()
	case PageHome:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.state.Clone(), invalid("back", PageHome)
	default:
		return c.GoHome()
	}
}

// TrackOrder starts an asynchronous lookup. Blank input is rejected at once
// with tracking.ErrMalformedInput and shown as the tracking error. While a
// lookup is running further submissions return ErrLookupInFlight.
func (c *Controller) TrackOrder(ctx context.Context, orderID, phone string) (State, error) {
	return c.apply(func(s State) (State, error) {
		if s.Page != PageTrackOrder {
			return s, invalid("track order", s.Page)
		}
		if s.IsLoading {
			return s, ErrLookupInFlight
		}
		req, err := tracking.Request{OrderID: orderID, Phone: phone}.Normalize()
		if err != nil {
			s.TrackingError = tracking.Message(err)
			return s, errAccepted{err}
		}

		c.taskID++
		id := c.taskID
		c.task = tracking.StartTask(context.WithoutCancel(ctx), c.lookup, req, c.trackingTimeout,
			func(t *tracking.Task) { c.finishTracking(id, t) })

		s.IsLoading = true
		s.TrackingError = ""
		return s, nil
	})
}

// WaitTracking blocks until the running lookup, if any, has been applied.
func (c *Controller) WaitTracking(ctx context.Context) error {
	c.mu.Lock()
	t := c.task
	c.mu.Unlock()
	if t == nil {
		return nil
	}
	select {
	case <-t.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close abandons any running lookup.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTrackingLocked()
}

func (c *Controller) finishTracking(id uint64, t *tracking.Task) {
	_, _ = c.apply(func(s State) (State, error) {
		if id != c.taskID || c.task != t {
			return s, errStale
		}
		c.task = nil
		if t.State() == tracking.TaskCancelled || s.Page != PageTrackOrder {
			s.IsLoading = false
			return s, nil
		}

		rec, err := t.Result()
		s.IsLoading = false
		if err != nil {
			slog.Info("order tracking failed", "error", err)
			s.TrackingError = tracking.Message(err)
			return s, nil
		}
		s.Page = PageOrderConfirmation
		s.Order = &rec
		s.TrackingError = ""
		return s, nil
	})
}

// cancelTrackingLocked must be called with c.mu held.
func (c *Controller) cancelTrackingLocked() {
	if c.task == nil {
		return
	}
	c.task.Cancel()
	c.task = nil
	c.taskID++
}

var errStale = errors.New("stale tracking result")

// errAccepted wraps an error whose state change must still be published.
type errAccepted struct{ err error }

func (e errAccepted) Error() string { return e.err.Error() }
func (e errAccepted) Unwrap() error { return e.err }

// apply runs fn on the current state under the lock. A nil error publishes
// the returned state; errAccepted publishes it and still reports the error.
func (c *Controller) apply(fn func(State) (State, error)) (State, error) {
	c.mu.Lock()
	next, err := fn(c.state)

	var accepted errAccepted
	if err != nil && !errors.As(err, &accepted) {
		current := c.state.Clone()
		c.mu.Unlock()
		return current, err
	}
	if err != nil {
		err = accepted.err
	}

	next.Version = c.state.Version + 1
	c.state = next
	c.history = append(c.history, next)
	if len(c.history) > c.historyLimit {
		c.history = append([]State(nil), c.history[len(c.history)-c.historyLimit:]...)
	}
	listeners := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	snapshot := next.Clone()
	c.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.Clone())
	}
	return snapshot, err
}

func invalid(event string, page Page) error {
	return fmt.Errorf("navigation: %s from %s: %w", event, page, ErrInvalidTransition)
}

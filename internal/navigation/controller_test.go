package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/checkout"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

func prod(id string, price int64) catalog.Product {
	p := money.New(price)
	return catalog.Product{ID: id, Title: "Product " + id, Price: p,
		Options: []catalog.ProductOption{{Unit: "1 KG", Price: p}}}
}

func validForm() checkout.Form {
	return checkout.Form{FullName: "Rahim Uddin", Phone: "01711111111", Address: "Dhaka"}
}

func newTestController(opts ...Option) *Controller {
	base := []Option{
		WithBuilder(checkout.NewBuilder(
			checkout.WithIDGenerator(order.IDGeneratorFunc(func() string { return "ORD-NAV" })),
			checkout.WithCouponPolicy(checkout.AnyCodeFlat{Amount: money.New(50)}),
		)),
		WithLookup(&tracking.Mock{Delay: 5 * time.Millisecond}),
		WithTrackingTimeout(time.Second),
	}
	return New(append(base, opts...)...)
}

// toCheckout fills the cart with ৳80 x2 and ৳40 x1 and enters checkout.
func toCheckout(t *testing.T, c *Controller) {
	t.Helper()
	_, err := c.AddToCart(prod("prod-001", 80), 2)
	require.NoError(t, err)
	_, err = c.BuyNow(prod("prod-002", 40), 1)
	require.NoError(t, err)
	s, err := c.CheckoutCart()
	require.NoError(t, err)
	require.Equal(t, PageCheckout, s.Page)
	require.Len(t, s.CheckoutItems, 2)
}

func TestInitialState(t *testing.T) {
	s := New().State()
	assert.Equal(t, PageHome, s.Page)
	assert.True(t, s.Cart.IsEmpty())
	assert.Equal(t, View(PageHome), s.View())
}

func TestSelectProductAndGoHome(t *testing.T) {
	c := newTestController()
	s, err := c.SelectProduct(prod("prod-003", 10))
	require.NoError(t, err)
	assert.Equal(t, PageProductDetails, s.Page)
	require.NotNil(t, s.ActiveProduct)
	assert.Equal(t, "prod-003", s.ActiveProduct.ID)

	s, err = c.GoHome()
	require.NoError(t, err)
	assert.Equal(t, PageHome, s.Page)
	assert.Nil(t, s.ActiveProduct)
}

func TestAddToCartKeepsPage(t *testing.T) {
	c := newTestController()
	_, err := c.SelectProduct(prod("prod-001", 80))
	require.NoError(t, err)

	s, err := c.AddToCart(prod("prod-001", 80), 3)
	require.NoError(t, err)
	assert.Equal(t, PageProductDetails, s.Page)
	assert.Equal(t, 3, s.Cart.Quantity("prod-001"))

	_, err = c.AddToCart(prod("prod-001", 80), 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestCartEditing(t *testing.T) {
	c := newTestController()
	_, err := c.BuyNow(prod("a", 10), 2)
	require.NoError(t, err)

	s, err := c.UpdateCartQuantity("a", -5)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Cart.Quantity("a"))

	_, err = c.UpdateCartQuantity("zzz", 1)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	s, err = c.RemoveFromCart("a")
	require.NoError(t, err)
	assert.True(t, s.Cart.IsEmpty())
}

func TestGoToCheckoutOnlyFromCart(t *testing.T) {
	c := newTestController()
	_, err := c.GoToCheckout([]cart.Item{{Product: prod("a", 1), Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PageHome, c.State().Page)
}

func TestEmptyCheckoutRendersBlank(t *testing.T) {
	c := newTestController()
	_, err := c.ViewCart()
	require.NoError(t, err)

	s, err := c.GoToCheckout(nil)
	require.NoError(t, err)
	assert.Equal(t, PageCheckout, s.Page)
	assert.Equal(t, ViewBlank, s.View())

	_, _, err = c.PlaceOrder(context.Background(), validForm())
	assert.ErrorIs(t, err, checkout.ErrEmptyCheckout)
	_, err = c.ConfirmOrder(order.Confirmation{OrderID: "X"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckoutSnapshotIsDecoupledFromCart(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)

	_, err := c.AddToCart(prod("prod-009", 5), 1)
	require.NoError(t, err)
	s := c.State()
	assert.Len(t, s.CheckoutItems, 2)
	assert.Equal(t, 3, s.Cart.Len())
}

func TestBackToCartDiscardsSnapshot(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)

	s, err := c.BackToCart()
	require.NoError(t, err)
	assert.Equal(t, PageCart, s.Page)
	assert.Nil(t, s.CheckoutItems)
	assert.Equal(t, 2, s.Cart.Len())
}

func TestPlaceOrderValidationFailsWithoutTransition(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)
	before := c.State()

	_, s, err := c.PlaceOrder(context.Background(), checkout.Form{FullName: "Rahim"})
	assert.ErrorIs(t, err, checkout.ErrValidation)
	assert.Equal(t, PageCheckout, s.Page)
	assert.Equal(t, before.Version, s.Version)
	assert.Equal(t, 2, s.Cart.Len())
}

type recordingSink struct {
	placed []order.Confirmation
	err    error
}

func (r *recordingSink) Place(_ context.Context, o order.Confirmation) error {
	r.placed = append(r.placed, o)
	return r.err
}

func TestPlaceOrderConfirmsAndClearsCart(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(WithOrderSink(sink))
	toCheckout(t, c)

	o, s, err := c.PlaceOrder(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, PageOrderConfirmation, s.Page)
	assert.Equal(t, View(PageOrderConfirmation), s.View())
	assert.True(t, s.Cart.IsEmpty())
	assert.Empty(t, s.CheckoutItems)
	require.NotNil(t, s.Order)
	assert.Equal(t, "ORD-NAV", s.Order.OrderID)
	assert.Equal(t, "260", o.TotalPayable.String())
	require.Len(t, sink.placed, 1)
	assert.Equal(t, "ORD-NAV", sink.placed[0].OrderID)
}

func TestPlaceOrderWithCoupon(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)

	form := validForm()
	form.Coupon = "ANY"
	o, _, err := c.PlaceOrder(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "210", o.TotalPayable.String())
}

func TestPlaceOrderSinkFailureKeepsCheckout(t *testing.T) {
	c := newTestController(WithOrderSink(&recordingSink{err: errors.New("db down")}))
	toCheckout(t, c)

	_, s, err := c.PlaceOrder(context.Background(), validForm())
	require.Error(t, err)
	assert.Equal(t, PageCheckout, s.Page)
	assert.Equal(t, 2, s.Cart.Len())
}

func TestConfirmOrderDirectly(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)

	s, err := c.ConfirmOrder(order.Confirmation{OrderID: "ORD-EXT", Status: order.StatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, PageOrderConfirmation, s.Page)
	assert.True(t, s.Cart.IsEmpty())
	assert.Empty(t, s.CheckoutItems)

	s, err = c.CloseConfirmation()
	require.NoError(t, err)
	assert.Equal(t, PageHome, s.Page)
	assert.Nil(t, s.Order)

	_, err = c.CloseConfirmation()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmOrderRejectsInvalidRecord(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)
	before := c.State()

	_, err := c.ConfirmOrder(order.Confirmation{
		OrderID:        "BAD",
		Status:         order.StatusProcessing,
		Subtotal:       money.New(200),
		DeliveryCharge: money.New(60),
		TotalPayable:   money.New(1),
	})
	assert.ErrorIs(t, err, order.ErrTotalMismatch)

	_, err = c.ConfirmOrder(order.Confirmation{OrderID: "BAD", Status: "Shipped"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	s := c.State()
	assert.Equal(t, PageCheckout, s.Page)
	assert.Equal(t, before.Version, s.Version)
	assert.Nil(t, s.Order)
	assert.Equal(t, 2, s.Cart.Len())
}

func TestTrackOrderRequiresTrackingPage(t *testing.T) {
	c := newTestController()
	_, err := c.TrackOrder(context.Background(), "ORD-1", "017")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTrackOrderMalformedInputIsSynchronous(t *testing.T) {
	c := newTestController()
	_, err := c.NavigateToTracking()
	require.NoError(t, err)

	s, err := c.TrackOrder(context.Background(), "  ", "017")
	assert.ErrorIs(t, err, tracking.ErrMalformedInput)
	assert.Equal(t, PageTrackOrder, s.Page)
	assert.False(t, s.IsLoading)
	assert.NotEmpty(t, s.TrackingError)
}

func TestTrackOrderShortIDFails(t *testing.T) {
	c := newTestController()
	_, err := c.NavigateToTracking()
	require.NoError(t, err)

	s, err := c.TrackOrder(context.Background(), "AB", "017")
	require.NoError(t, err)
	assert.True(t, s.IsLoading)

	require.NoError(t, c.WaitTracking(context.Background()))
	s = c.State()
	assert.Equal(t, PageTrackOrder, s.Page)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "Order ID not found. Please check and try again.", s.TrackingError)
}

func TestTrackOrderSuccess(t *testing.T) {
	c := newTestController()
	_, err := c.AddToCart(prod("keep", 10), 1)
	require.NoError(t, err)
	_, err = c.NavigateToTracking()
	require.NoError(t, err)

	_, err = c.TrackOrder(context.Background(), "ORD-XYZ", "017")
	require.NoError(t, err)
	require.NoError(t, c.WaitTracking(context.Background()))

	s := c.State()
	assert.Equal(t, PageOrderConfirmation, s.Page)
	require.NotNil(t, s.Order)
	assert.Equal(t, "ORD-XYZ", s.Order.OrderID)
	assert.Empty(t, s.TrackingError)
	assert.Equal(t, 1, s.Cart.Len())
}

func TestTrackOrderIgnoresSecondSubmission(t *testing.T) {
	c := newTestController(WithLookup(&tracking.Mock{Delay: 100 * time.Millisecond}))
	_, err := c.NavigateToTracking()
	require.NoError(t, err)

	_, err = c.TrackOrder(context.Background(), "ORD-1", "017")
	require.NoError(t, err)
	s, err := c.TrackOrder(context.Background(), "ORD-2", "017")
	assert.ErrorIs(t, err, ErrLookupInFlight)
	assert.True(t, s.IsLoading)

	require.NoError(t, c.WaitTracking(context.Background()))
	assert.Equal(t, "ORD-1", c.State().Order.OrderID)
}

func TestTrackOrderTimesOut(t *testing.T) {
	c := newTestController(
		WithLookup(&tracking.Mock{Delay: time.Second}),
		WithTrackingTimeout(10*time.Millisecond),
	)
	_, err := c.NavigateToTracking()
	require.NoError(t, err)
	_, err = c.TrackOrder(context.Background(), "ORD-1", "017")
	require.NoError(t, err)

	require.NoError(t, c.WaitTracking(context.Background()))
	s := c.State()
	assert.Equal(t, PageTrackOrder, s.Page)
	assert.Equal(t, "Tracking timed out. Please try again.", s.TrackingError)
}

func TestNavigatingAwayCancelsTracking(t *testing.T) {
	c := newTestController(WithLookup(&tracking.Mock{Delay: time.Second}))
	_, err := c.NavigateToTracking()
	require.NoError(t, err)
	_, err = c.TrackOrder(context.Background(), "ORD-1", "017")
	require.NoError(t, err)

	s, err := c.GoHome()
	require.NoError(t, err)
	assert.False(t, s.IsLoading)

	require.NoError(t, c.WaitTracking(context.Background()))
	time.Sleep(20 * time.Millisecond)
	s = c.State()
	assert.Equal(t, PageHome, s.Page)
	assert.Nil(t, s.Order)
}

func TestNavigateToTrackingClearsOrderAndError(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)
	_, _, err := c.PlaceOrder(context.Background(), validForm())
	require.NoError(t, err)

	s, err := c.NavigateToTracking()
	require.NoError(t, err)
	assert.Equal(t, PageTrackOrder, s.Page)
	assert.Nil(t, s.Order)
	assert.Empty(t, s.TrackingError)
}

func TestBack(t *testing.T) {
	c := newTestController()
	_, err := c.Back()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	toCheckout(t, c)
	s, err := c.Back()
	require.NoError(t, err)
	assert.Equal(t, PageCart, s.Page)

	s, err = c.Back()
	require.NoError(t, err)
	assert.Equal(t, PageHome, s.Page)
}

func TestStateSnapshotsAreImmutable(t *testing.T) {
	c := newTestController()
	toCheckout(t, c)

	s := c.State()
	s.CheckoutItems[0].Quantity = 99
	s.Page = PageHome
	assert.Equal(t, 2, c.State().CheckoutItems[0].Quantity)
	assert.Equal(t, PageCheckout, c.State().Page)
}

func TestHistoryAndVersions(t *testing.T) {
	c := newTestController(WithHistoryLimit(3))
	for i := 0; i < 5; i++ {
		_, err := c.ViewCart()
		require.NoError(t, err)
	}
	h := c.History()
	require.Len(t, h, 3)
	assert.Equal(t, uint64(5), h[2].Version)
	assert.Equal(t, uint64(3), h[0].Version)
}

func TestSubscribe(t *testing.T) {
	c := newTestController()
	var mu sync.Mutex
	var pages []Page
	unsubscribe := c.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		pages = append(pages, s.Page)
	})

	_, err := c.ViewCart()
	require.NoError(t, err)
	_, err = c.GoHome()
	require.NoError(t, err)
	unsubscribe()
	_, err = c.ViewCart()
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Page{PageCart, PageHome}, pages)
}

func TestViewGuards(t *testing.T) {
	assert.Equal(t, ViewBlank, State{Page: PageOrderConfirmation}.View())
	assert.Equal(t, ViewBlank, State{Page: PageProductDetails}.View())
	assert.Equal(t, View(PageTrackOrder), State{Page: PageTrackOrder}.View())
}

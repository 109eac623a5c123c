package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/checkout"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/metrics"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

type fakeAdmin struct {
	orders map[string]order.Status
	events []orderstore.Event
}

func (f *fakeAdmin) UpdateStatus(_ context.Context, id string, next order.Status, source, note string) (order.Confirmation, error) {
	current, ok := f.orders[id]
	if !ok {
		return order.Confirmation{}, orderstore.ErrOrderNotFound
	}
	if !current.CanTransitionTo(next) {
		return order.Confirmation{}, order.ErrIllegalTransit
	}
	f.orders[id] = next
	f.events = append(f.events, orderstore.Event{OrderID: id, Status: next, Source: source, Note: note})
	return order.Confirmation{OrderID: id, Status: next}, nil
}

func (f *fakeAdmin) OrderEvents(_ context.Context, id string) ([]orderstore.Event, error) {
	var out []orderstore.Event
	for _, e := range f.events {
		if e.OrderID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeInvalidator struct{ ids []string }

func (f *fakeInvalidator) Invalidate(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return nil
}

type testServer struct {
	router      http.Handler
	admin       *fakeAdmin
	invalidator *fakeInvalidator
	metrics     *metrics.ServerMetrics
}

func newTestServer(t *testing.T, lookup tracking.Lookup, opts ...HandlerOption) *testServer {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	sessions := NewSessions(func() *navigation.Controller {
		return navigation.New(
			navigation.WithLookup(&tracking.Mock{Delay: time.Millisecond}),
			navigation.WithBuilder(checkout.NewBuilder(
				checkout.WithIDGenerator(order.IDGeneratorFunc(func() string { return "ORD-HTTP" })),
			)),
		)
	}, time.Hour)
	t.Cleanup(sessions.Close)

	ts := &testServer{
		admin:       &fakeAdmin{orders: map[string]order.Status{"ORD-1": order.StatusTaken}},
		invalidator: &fakeInvalidator{},
		metrics:     metrics.NewServerMetrics("test"),
	}
	opts = append([]HandlerOption{
		WithStatusAdmin(ts.admin),
		WithInvalidator(ts.invalidator),
		WithMetrics(ts.metrics),
	}, opts...)
	ts.router = NewRouter(NewHandler(cat, lookup, sessions, opts...))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// sessionBody mirrors SessionResponse with the parts the tests inspect.
type sessionBody struct {
	ID    string `json:"id"`
	View  string `json:"view"`
	State struct {
		Page          string          `json:"page"`
		Cart          []cartLine      `json:"cart"`
		CheckoutItems []cartLine      `json:"checkoutItems"`
		Order         *orderSummary   `json:"order"`
		TrackingError string          `json:"trackingError"`
		IsLoading     bool            `json:"isLoading"`
		ActiveProduct json.RawMessage `json:"activeProduct"`
	} `json:"state"`
}

type cartLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type orderSummary struct {
	OrderID      string `json:"orderId"`
	TotalPayable string `json:"totalPayable"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, tracking.NewMock())
	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	failing := newTestServer(t, tracking.NewMock(), WithHealthCheck("db", func(context.Context) error {
		return errors.New("locked")
	}))
	rec = failing.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "locked", decode[HealthResponse](t, rec).Checks["db"])
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t, tracking.NewMock())

	rec := ts.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]json.RawMessage](t, rec), 11)

	rec = ts.do(t, http.MethodGet, "/api/v1/products?category=dairy", nil)
	assert.Len(t, decode[[]json.RawMessage](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/prod-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Product struct {
			Title string `json:"title"`
		} `json:"product"`
		Related []json.RawMessage `json:"related"`
	}](t, rec)
	assert.Equal(t, "Organic Premium Carrots", body.Product.Title)
	assert.Len(t, body.Related, RelatedLimit)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/prod-999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product_not_found", decode[ErrorResponse](t, rec).Error)
}

func TestTrackOrderEndpoint(t *testing.T) {
	ts := newTestServer(t, &tracking.Mock{Delay: time.Millisecond})

	rec := ts.do(t, http.MethodPost, "/api/v1/orders/track", TrackOrderRequest{OrderID: "ORD-123", Phone: "017"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ORD-123", decode[orderSummary](t, rec).OrderID)

	rec = ts.do(t, http.MethodPost, "/api/v1/orders/track", TrackOrderRequest{OrderID: "AB", Phone: "017"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order ID not found. Please check and try again.", decode[ErrorResponse](t, rec).Message)

	rec = ts.do(t, http.MethodPost, "/api/v1/orders/track", TrackOrderRequest{OrderID: "ORD-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/orders/track", map[string]string{"unknown": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decode[ErrorResponse](t, rec).Error)
}

func TestTrackOrderUpstreamFailures(t *testing.T) {
	cases := map[error]int{
		tracking.ErrTimedOut:  http.StatusGatewayTimeout,
		tracking.ErrTransient: http.StatusBadGateway,
		errors.New("boom"):    http.StatusInternalServerError,
	}
	for lookupErr, want := range cases {
		ts := newTestServer(t, tracking.LookupFunc(func(context.Context, tracking.Request) (order.Confirmation, error) {
			return order.Confirmation{}, lookupErr
		}))
		rec := ts.do(t, http.MethodPost, "/api/v1/orders/track", TrackOrderRequest{OrderID: "ORD-1", Phone: "017"})
		assert.Equal(t, want, rec.Code, lookupErr.Error())
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ts := newTestServer(t, tracking.NewMock())

	rec := ts.do(t, http.MethodPatch, "/api/v1/orders/ORD-1/status", UpdateStatusRequest{Status: "packed", Note: "boxed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, order.StatusPacked, ts.admin.orders["ORD-1"])
	assert.Equal(t, []string{"ORD-1"}, ts.invalidator.ids)

	rec = ts.do(t, http.MethodPatch, "/api/v1/orders/ORD-1/status", UpdateStatusRequest{Status: "Taken"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/orders/ORD-1/status", UpdateStatusRequest{Status: "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/orders/ORD-404/status", UpdateStatusRequest{Status: "Packed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/orders/ORD-1/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[EventsResponse](t, rec)
	require.Len(t, events.Events, 1)
	assert.Equal(t, orderstore.SourceOperator, events.Events[0].Source)
	assert.Equal(t, "boxed", events.Events[0].Note)
}

func TestUpdateOrderStatusWithoutStore(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	router := NewRouter(NewHandler(cat, tracking.NewMock(), NewSessions(func() *navigation.Controller { return navigation.New() }, 0)))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/ORD-1/status", strings.NewReader(`{"status":"Packed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionCheckoutFlow(t *testing.T) {
	ts := newTestServer(t, tracking.NewMock())

	rec := ts.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sid := decode[sessionBody](t, rec).ID
	base := "/api/v1/sessions/" + sid

	rec = ts.do(t, http.MethodPost, base+"/products/prod-001/select", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "productDetails", decode[sessionBody](t, rec).State.Page)

	rec = ts.do(t, http.MethodPost, base+"/cart/items", AddItemRequest{ProductID: "prod-001", Quantity: intPtr(2)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "productDetails", decode[sessionBody](t, rec).State.Page)

	rec = ts.do(t, http.MethodPost, base+"/cart/items", AddItemRequest{ProductID: "prod-003", BuyNow: true})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[sessionBody](t, rec)
	assert.Equal(t, "cart", body.State.Page)
	require.Len(t, body.State.Cart, 2)

	rec = ts.do(t, http.MethodDelete, base+"/cart/items/prod-003", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sessionBody](t, rec).State.Cart, 1)

	rec = ts.do(t, http.MethodPatch, base+"/cart/items/prod-001", UpdateItemRequest{Delta: -10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[sessionBody](t, rec).State.Cart[0].Quantity)
	rec = ts.do(t, http.MethodPatch, base+"/cart/items/prod-001", UpdateItemRequest{Delta: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[sessionBody](t, rec)
	assert.Equal(t, "checkout", body.View)
	require.Len(t, body.State.CheckoutItems, 1)

	rec = ts.do(t, http.MethodPost, base+"/checkout/quote", checkout.Form{Address: "Dhaka"})
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode[struct {
		Total string `json:"total"`
	}](t, rec)
	assert.Equal(t, "220", quote.Total)

	rec = ts.do(t, http.MethodPost, base+"/checkout/confirm", checkout.Form{FullName: "Rahim"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{checkout.FieldPhone, checkout.FieldAddress}, decode[ErrorResponse](t, rec).Missing)

	rec = ts.do(t, http.MethodPost, base+"/checkout/confirm", checkout.Form{FullName: "Rahim", Phone: "01711111111", Address: "Dhaka"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body = decode[sessionBody](t, rec)
	assert.Equal(t, "orderConfirmation", body.State.Page)
	assert.Empty(t, body.State.Cart)
	assert.Empty(t, body.State.CheckoutItems)
	require.NotNil(t, body.State.Order)
	assert.Equal(t, "ORD-HTTP", body.State.Order.OrderID)
	assert.Equal(t, "220", body.State.Order.TotalPayable)

	rec = ts.do(t, http.MethodPost, base+"/confirmation/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", decode[sessionBody](t, rec).State.Page)

	rec = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_test_orders_total{outcome="placed"} 1`)
	assert.Contains(t, rec.Body.String(), `storefront_test_orders_total{outcome="rejected"} 1`)
}

func TestSessionRejectsInvalidTransitions(t *testing.T) {
	ts := newTestServer(t, tracking.NewMock())
	sid := decode[sessionBody](t, ts.do(t, http.MethodPost, "/api/v1/sessions", nil)).ID
	base := "/api/v1/sessions/" + sid

	rec := ts.do(t, http.MethodPost, base+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, base+"/navigate", NavigateRequest{To: "nowhere"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/cart/items", AddItemRequest{ProductID: "prod-001", Quantity: intPtr(-1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/cart/items", AddItemRequest{ProductID: "prod-001", Quantity: intPtr(0)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_quantity", decode[ErrorResponse](t, rec).Error)
	assert.Empty(t, decode[sessionBody](t, ts.do(t, http.MethodGet, base, nil)).State.Cart)

	rec = ts.do(t, http.MethodPatch, base+"/cart/items/prod-001", UpdateItemRequest{Delta: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionTracking(t *testing.T) {
	ts := newTestServer(t, tracking.NewMock())
	sid := decode[sessionBody](t, ts.do(t, http.MethodPost, "/api/v1/sessions", nil)).ID
	base := "/api/v1/sessions/" + sid

	rec := ts.do(t, http.MethodPost, base+"/navigate", NavigateRequest{To: "track"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/track", TrackOrderRequest{OrderID: "", Phone: "017"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter both your order ID and phone number.", decode[sessionBody](t, rec).State.TrackingError)

	rec = ts.do(t, http.MethodPost, base+"/track", TrackOrderRequest{OrderID: "AB", Phone: "017"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decode[sessionBody](t, rec).State.IsLoading)

	var body sessionBody
	require.Eventually(t, func() bool {
		body = decode[sessionBody](t, ts.do(t, http.MethodGet, base, nil))
		return !body.State.IsLoading
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "trackOrder", body.State.Page)
	assert.Equal(t, "Order ID not found. Please check and try again.", body.State.TrackingError)

	rec = ts.do(t, http.MethodPost, base+"/track", TrackOrderRequest{OrderID: "ORD-555", Phone: "017"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool {
		body = decode[sessionBody](t, ts.do(t, http.MethodGet, base, nil))
		return body.State.Page == "orderConfirmation"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ORD-555", body.State.Order.OrderID)
	assert.Empty(t, body.State.TrackingError)
}

func TestSessionsEvictIdle(t *testing.T) {
	s := NewSessions(func() *navigation.Controller { return navigation.New() }, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	id, _ := s.Create()
	now = now.Add(2 * time.Minute)
	_, _ = s.Create()

	_, err := s.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, s.Len())
}

func intPtr(n int) *int { return &n }

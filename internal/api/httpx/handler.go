// Package httpx is the HTTP/JSON surface of the storefront: the catalog, the
// tracking endpoint, the operator status endpoint and the shopper sessions.
package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/metrics"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

// RelatedLimit is how many related products accompany a product.
const RelatedLimit = 4

// StatusAdmin is the operator side of the order store.
type StatusAdmin interface {
	UpdateStatus(ctx context.Context, id string, next order.Status, source, note string) (order.Confirmation, error)
	OrderEvents(ctx context.Context, id string) ([]orderstore.Event, error)
}

// Invalidator drops cached tracking records.
type Invalidator interface {
	Invalidate(ctx context.Context, orderID string) error
}

type HealthCheck func(ctx context.Context) error

// Handler serves every endpoint. Optional dependencies left nil disable the
// endpoints that need them.
type Handler struct {
	catalog     *catalog.Catalog
	lookup      tracking.Lookup
	sessions    *Sessions
	admin       StatusAdmin
	invalidator Invalidator
	metrics     *metrics.ServerMetrics
	checks      map[string]HealthCheck
}

type HandlerOption func(*Handler)

func WithStatusAdmin(a StatusAdmin) HandlerOption {
	return func(h *Handler) { h.admin = a }
}

func WithInvalidator(i Invalidator) HandlerOption {
	return func(h *Handler) { h.invalidator = i }
}

func WithMetrics(m *metrics.ServerMetrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *Handler) { h.checks[name] = check }
}

func NewHandler(cat *catalog.Catalog, lookup tracking.Lookup, sessions *Sessions, opts ...HandlerOption) *Handler {
	h := &Handler{
		catalog:  cat,
		lookup:   lookup,
		sessions: sessions,
		checks:   map[string]HealthCheck{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "health check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// ListProducts returns the catalog, optionally filtered by ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	products := h.catalog.All()
	if category != "" {
		filtered := products[:0]
		for _, p := range products {
			if strings.EqualFold(p.Category, category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.catalog.Get(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	related := h.catalog.Related(id, RelatedLimit)
	if related == nil {
		related = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ProductResponse{Product: p, Related: related})
}

// TrackOrder answers a single lookup synchronously.
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	var req TrackOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	rec, err := h.lookup.Track(r.Context(), tracking.Request{OrderID: req.OrderID, Phone: req.Phone})
	if err != nil {
		slog.InfoContext(r.Context(), "track order failed",
			"order_id", req.OrderID,
			"request_id", interceptors.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateOrderStatus is the operator action that advances an order.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if h.admin == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "order store is not configured")
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	next, err := order.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	rec, err := h.admin.UpdateStatus(r.Context(), id, next, orderstore.SourceOperator, req.Note)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if h.invalidator != nil {
		if err := h.invalidator.Invalidate(r.Context(), id); err != nil {
			slog.WarnContext(r.Context(), "tracking cache invalidation failed", "order_id", id, "error", err)
		}
	}
	slog.InfoContext(r.Context(), "order status updated", "order_id", id, "status", next)
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) OrderEvents(w http.ResponseWriter, r *http.Request) {
	if h.admin == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "order store is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	events, err := h.admin.OrderEvents(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusNotFound, "order_not_found", "no events for order "+id)
		return
	}
	writeJSON(w, http.StatusOK, EventsResponse{OrderID: id, Events: events})
}

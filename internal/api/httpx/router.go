package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/interceptors"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(interceptors.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if handler.metrics != nil {
		r.Use(handler.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", handler.metrics.Handler())
	}

	r.Get("/health", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", handler.ListProducts)
		r.Get("/products/{id}", handler.GetProduct)

		r.Post("/orders/track", handler.TrackOrder)
		r.Patch("/orders/{id}/status", handler.UpdateOrderStatus)
		r.Get("/orders/{id}/events", handler.OrderEvents)

		r.Post("/sessions", handler.CreateSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", handler.GetSession)
			r.Delete("/", handler.DeleteSession)
			r.Post("/products/{id}/select", handler.SelectProduct)
			r.Post("/cart/items", handler.AddCartItem)
			r.Patch("/cart/items/{id}", handler.UpdateCartItem)
			r.Delete("/cart/items/{id}", handler.RemoveCartItem)
			r.Post("/navigate", handler.Navigate)
			r.Post("/checkout", handler.Checkout)
			r.Post("/checkout/quote", handler.QuoteCheckout)
			r.Post("/checkout/confirm", handler.ConfirmCheckout)
			r.Post("/confirmation/close", handler.CloseConfirmation)
			r.Post("/track", handler.TrackInSession)
		})
	})

	return otelhttp.NewHandler(r, "storefront.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

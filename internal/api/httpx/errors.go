package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/checkout"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{cart.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{navigation.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{navigation.ErrLookupInFlight, http.StatusConflict, "lookup_in_flight"},
	{checkout.ErrEmptyCheckout, http.StatusConflict, "empty_checkout"},
	{checkout.ErrValidation, http.StatusUnprocessableEntity, "validation_failed"},
	{checkout.ErrInvalidCoupon, http.StatusUnprocessableEntity, "invalid_coupon"},
	{tracking.ErrMalformedInput, http.StatusBadRequest, "malformed_input"},
	{tracking.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{orderstore.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{tracking.ErrTimedOut, http.StatusGatewayTimeout, "tracking_timed_out"},
	{tracking.ErrTransient, http.StatusBadGateway, "tracking_unavailable"},
	{order.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{order.ErrIllegalTransit, http.StatusConflict, "illegal_transition"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError maps err to a status code. Tracking errors carry the
// shopper-facing message; server errors are logged and not echoed.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: code, Message: err.Error()}

	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		resp.Missing = verr.Missing
	}
	switch code {
	case "malformed_input", "order_not_found", "tracking_timed_out", "tracking_unavailable":
		resp.Message = tracking.Message(err)
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			resp.Message = "internal error"
		}
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

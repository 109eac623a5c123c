package httpx

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/grocery-storefront/internal/checkout"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, ctrl := h.sessions.Create()
	writeSession(w, http.StatusCreated, id, ctrl.State())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		return ctrl.State(), nil
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "sid")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		p, err := h.catalog.Get(chi.URLParam(r, "id"))
		if err != nil {
			return ctrl.State(), err
		}
		return ctrl.SelectProduct(p)
	})
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		var req AddItemRequest
		if err := decodeJSON(r, &req); err != nil {
			return ctrl.State(), errBadJSON{err}
		}
		qty := 1
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		p, err := h.catalog.Get(req.ProductID)
		if err != nil {
			return ctrl.State(), err
		}
		if req.BuyNow {
			return ctrl.BuyNow(p, qty)
		}
		return ctrl.AddToCart(p, qty)
	})
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		var req UpdateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			return ctrl.State(), errBadJSON{err}
		}
		return ctrl.UpdateCartQuantity(chi.URLParam(r, "id"), req.Delta)
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		return ctrl.RemoveFromCart(chi.URLParam(r, "id"))
	})
}

func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		var req NavigateRequest
		if err := decodeJSON(r, &req); err != nil {
			return ctrl.State(), errBadJSON{err}
		}
		switch strings.ToLower(strings.TrimSpace(req.To)) {
		case "home":
			return ctrl.GoHome()
		case "cart":
			return ctrl.ViewCart()
		case "track":
			return ctrl.NavigateToTracking()
		case "back":
			return ctrl.Back()
		default:
			return ctrl.State(), errBadJSON{errors.New("to must be one of home, cart, track, back")}
		}
	})
}

// Checkout snapshots the current cart and opens the checkout page.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		return ctrl.CheckoutCart()
	})
}

func (h *Handler) QuoteCheckout(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var form checkout.Form
	if err := decodeOptionalJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	q, err := ctrl.Quote(form)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ConfirmCheckout places the order built from the checkout snapshot.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var form checkout.Form
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	_, state, err := ctrl.PlaceOrder(r.Context(), form)
	if err != nil {
		status, _ := statusFor(err)
		h.observeOrder(status)
		writeDomainError(w, r, err)
		return
	}
	h.observeOrder(http.StatusCreated)
	writeSession(w, http.StatusCreated, chi.URLParam(r, "sid"), state)
}

func (h *Handler) CloseConfirmation(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctrl *navigation.Controller) (navigation.State, error) {
		return ctrl.CloseConfirmation()
	})
}

// TrackInSession starts an asynchronous lookup; clients poll the session.
func (h *Handler) TrackInSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req TrackOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	state, err := ctrl.TrackOrder(r.Context(), req.OrderID, req.Phone)
	switch {
	case errors.Is(err, tracking.ErrMalformedInput):
		writeSession(w, http.StatusBadRequest, chi.URLParam(r, "sid"), state)
	case err != nil:
		writeDomainError(w, r, err)
	default:
		writeSession(w, http.StatusAccepted, chi.URLParam(r, "sid"), state)
	}
}

type errBadJSON struct{ err error }

func (e errBadJSON) Error() string { return e.err.Error() }

func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(*navigation.Controller) (navigation.State, error)) {
	sid := chi.URLParam(r, "sid")
	ctrl, err := h.sessions.Get(sid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	state, err := fn(ctrl)
	var bad errBadJSON
	switch {
	case errors.As(err, &bad):
		writeError(w, http.StatusBadRequest, "invalid_request", bad.Error())
	case err != nil:
		writeDomainError(w, r, err)
	default:
		writeSession(w, http.StatusOK, sid, state)
	}
}

func (h *Handler) observeOrder(status int) {
	if h.metrics == nil {
		return
	}
	switch {
	case status < http.StatusBadRequest:
		h.metrics.ObserveOrder("placed")
	case status < http.StatusInternalServerError:
		h.metrics.ObserveOrder("rejected")
	default:
		h.metrics.ObserveOrder("failed")
	}
}

func writeSession(w http.ResponseWriter, status int, id string, s navigation.State) {
	writeJSON(w, status, SessionResponse{ID: id, View: s.View(), State: s})
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

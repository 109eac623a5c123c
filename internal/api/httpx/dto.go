package httpx

import (
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
)

type TrackOrderRequest struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// AddItemRequest adds one unit when Quantity is omitted.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
	BuyNow    bool   `json:"buyNow"`
}

type UpdateItemRequest struct {
	Delta int `json:"delta"`
}

// NavigateRequest.To is one of home, cart, track or back.
type NavigateRequest struct {
	To string `json:"to"`
}

type SessionResponse struct {
	ID    string           `json:"id"`
	View  navigation.View  `json:"view"`
	State navigation.State `json:"state"`
}

type ProductResponse struct {
	Product catalog.Product   `json:"product"`
	Related []catalog.Product `json:"related"`
}

type EventsResponse struct {
	OrderID string             `json:"orderId"`
	Events  []orderstore.Event `json:"events"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

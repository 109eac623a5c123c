package grpcx

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

func RequestToStruct(req tracking.Request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"orderId": req.OrderID,
		"phone":   req.Phone,
	})
}

// RequestFromStruct reads orderId and phone; missing or non-string fields
// come back empty and fail normalization later.
func RequestFromStruct(s *structpb.Struct) tracking.Request {
	fields := s.GetFields()
	return tracking.Request{
		OrderID: fields["orderId"].GetStringValue(),
		Phone:   fields["phone"].GetStringValue(),
	}
}

func ConfirmationToStruct(c order.Confirmation) (*structpb.Struct, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("grpcx: encode order %q: %w", c.OrderID, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("grpcx: encode order %q: %w", c.OrderID, err)
	}
	return structpb.NewStruct(m)
}

func ConfirmationFromStruct(s *structpb.Struct) (order.Confirmation, error) {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return order.Confirmation{}, fmt.Errorf("grpcx: decode order: %w", err)
	}
	var c order.Confirmation
	if err := json.Unmarshal(raw, &c); err != nil {
		return order.Confirmation{}, fmt.Errorf("grpcx: decode order: %w", err)
	}
	return order.New(c)
}

package grpcx

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

// Client is a tracking.Lookup backed by a remote OrderTracking service.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

var _ tracking.Lookup = (*Client)(nil)

// Dial opens an insecure, instrumented connection to addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(interceptors.UnaryClientInterceptor()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcx: connect %q: %w", addr, err)
	}
	return conn, nil
}

func (c *Client) Track(ctx context.Context, req tracking.Request) (order.Confirmation, error) {
	req, err := req.Normalize()
	if err != nil {
		return order.Confirmation{}, err
	}
	in, err := RequestToStruct(req)
	if err != nil {
		return order.Confirmation{}, fmt.Errorf("grpcx: encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, TrackOrderMethod, in, out); err != nil {
		return order.Confirmation{}, errorFromStatus(err)
	}
	rec, err := ConfirmationFromStruct(out)
	if err != nil {
		return order.Confirmation{}, fmt.Errorf("%w: %v", tracking.ErrTransient, err)
	}
	return rec, nil
}

func errorFromStatus(err error) error {
	st := status.Convert(err)
	switch st.Code() {
	case codes.InvalidArgument:
		return tracking.ErrMalformedInput
	case codes.NotFound:
		return tracking.ErrOrderNotFound
	case codes.DeadlineExceeded:
		return tracking.ErrTimedOut
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("%w: %s: %s", tracking.ErrTransient, st.Code(), st.Message())
	}
}

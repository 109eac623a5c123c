package grpcx

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

// Server answers TrackOrder from a tracking lookup.
type Server struct {
	lookup tracking.Lookup
}

func NewServer(lookup tracking.Lookup) *Server {
	return &Server{lookup: lookup}
}

var _ TrackingServer = (*Server)(nil)

func (s *Server) TrackOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := RequestFromStruct(in)
	rec, err := s.lookup.Track(ctx, req)
	if err != nil {
		code := codeFor(err)
		if code == codes.Unavailable || code == codes.Internal {
			slog.ErrorContext(ctx, "track order failed", "order_id", req.OrderID, "error", err)
		}
		return nil, status.Error(code, tracking.Message(err))
	}
	out, err := ConfirmationToStruct(rec)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// NewGRPCServer builds an instrumented server with the tracking service
// registered.
func NewGRPCServer(lookup tracking.Lookup, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.UnaryServerInterceptor()),
	}, opts...)
	srv := grpc.NewServer(opts...)
	RegisterTrackingServer(srv, NewServer(lookup))
	return srv
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, tracking.ErrMalformedInput):
		return codes.InvalidArgument
	case errors.Is(err, tracking.ErrOrderNotFound):
		return codes.NotFound
	case errors.Is(err, tracking.ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, tracking.ErrTransient):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

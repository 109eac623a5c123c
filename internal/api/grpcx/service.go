// Package grpcx exposes order tracking over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP API,
// so the service needs no generated code.
package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "storefront.v1.OrderTracking"
	TrackOrderMethod = "/" + ServiceName + "/TrackOrder"
)

// TrackingServer is the server API of storefront.v1.OrderTracking.
type TrackingServer interface {
	TrackOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var TrackingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "TrackOrder", Handler: trackOrderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/tracking.proto",
}

func RegisterTrackingServer(s grpc.ServiceRegistrar, srv TrackingServer) {
	s.RegisterService(&TrackingServiceDesc, srv)
}

func trackOrderHandler(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServer).TrackOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TrackOrderMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TrackingServer).TrackOrder(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

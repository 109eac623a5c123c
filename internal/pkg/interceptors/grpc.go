package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor lifts request metadata from incoming gRPC metadata
// into the context and logs each call.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		var requestID, idempotencyKey string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(HeaderXRequestId); len(ids) > 0 {
				requestID = ids[0]
			}
			if keys := md.Get(HeaderXIdempotencyKey); len(keys) > 0 {
				idempotencyKey = keys[0]
			}
		}
		ctx = WithRequestMetadata(ctx, requestID, idempotencyKey)

		start := time.Now()
		resp, err := handler(ctx, req)
		slog.InfoContext(ctx, "grpc call",
			"method", info.FullMethod,
			"request_id", requestID,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

// UnaryClientInterceptor forwards request metadata from ctx on every call.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(OutgoingContext(ctx), method, req, reply, cc, opts...)
	}
}

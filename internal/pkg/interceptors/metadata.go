// Package interceptors carries the request id and idempotency key across HTTP
// and gRPC hops.
package interceptors

import (
	"context"
	"net/http"

	"google.golang.org/grpc/metadata"
)

const (
	HeaderXRequestId      = "x-request-id"
	HeaderXIdempotencyKey = "x-idempotency-key"
)

// contextKey is unexported so keys never collide with other packages.
type contextKey string

const (
	ContextKeyRequestID      contextKey = HeaderXRequestId
	ContextKeyIdempotencyKey contextKey = HeaderXIdempotencyKey
)

// WithRequestMetadata stores both values in ctx. Empty values are kept so
// lookups stay deterministic.
func WithRequestMetadata(ctx context.Context, requestID, idempotencyKey string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)
	return context.WithValue(ctx, ContextKeyIdempotencyKey, idempotencyKey)
}

func RequestIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ContextKeyRequestID)
}

func IdempotencyKeyFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ContextKeyIdempotencyKey)
}

// valueFromContext checks the context value first, then incoming gRPC metadata.
func valueFromContext(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(string(key)); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// InjectHTTPHeaders copies the request metadata in ctx onto outgoing headers.
func InjectHTTPHeaders(ctx context.Context, h http.Header) {
	if id := RequestIDFromContext(ctx); id != "" {
		h.Set(HeaderXRequestId, id)
	}
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		h.Set(HeaderXIdempotencyKey, key)
	}
}

// OutgoingContext appends the request metadata in ctx to outgoing gRPC metadata.
func OutgoingContext(ctx context.Context) context.Context {
	var kv []string
	if id := RequestIDFromContext(ctx); id != "" {
		kv = append(kv, HeaderXRequestId, id)
	}
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		kv = append(kv, HeaderXIdempotencyKey, key)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the W3C ids of the span active in a context. Both fields
// are empty when there is no valid span, as in most unit tests.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

func TraceInfoFromContext(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

package interceptors

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// AttachRequestMetadata must run after chi's RequestID middleware. It makes
// the request id and idempotency key available to handlers and to any
// outbound call they make, and echoes the request id back to the caller.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = r.Header.Get(HeaderXRequestId)
		}
		idempotencyKey := r.Header.Get(HeaderXIdempotencyKey)

		ctx := WithRequestMetadata(r.Context(), requestID, idempotencyKey)
		if requestID != "" {
			w.Header().Set(HeaderXRequestId, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

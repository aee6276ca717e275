// Package trace carries the per-dispatch request ID that is sent as X-Request-ID
// and attached to every log record of the dispatch.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderXRequestID is the header the dispatcher stamps on outgoing requests
	HeaderXRequestID = "X-Request-ID"
)

// WithRequestID returns a context carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID in ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns the request ID already in ctx or a fresh UUID.
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}

// RequestIDFromHeaders returns a caller-provided X-Request-ID, matching the
// header name case-insensitively.
func RequestIDFromHeaders(headers map[string]string) (string, bool) {
	for k, v := range headers {
		if v != "" && strings.EqualFold(k, HeaderXRequestID) {
			return v, true
		}
	}
	return "", false
}

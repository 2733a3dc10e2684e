package api

import (
	"context"

	"github.com/accumate/docfilter/internal/types"
)

type contextKey string

const requestIDKey = contextKey("request_id")

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id types.RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID set by the server interceptor,
// or an empty ID.
func RequestIDFromContext(ctx context.Context) types.RequestID {
	id, _ := ctx.Value(requestIDKey).(types.RequestID)
	return id
}

package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

// requestIDKey is the context key for the HTTP request ID.
const requestIDKey contextKey = "kvmesh.request_id"

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the acting user ID.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// CorrelationKey is the context key for the correlation ID shared by the
// activity entries of one operation.
type CorrelationKey struct{}

// WithActorID returns a context with the acting user ID embedded.
func WithActorID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ActorKey{}, userID)
}

// ActorFromContext returns the acting user ID from context, or 0 if not set.
func ActorFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(ActorKey{}).(int64); ok {
		return v
	}
	return 0
}

// WithCorrelationID returns a context carrying a correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationKey{}, id)
}

// CorrelationFromContext returns the correlation ID from context, or empty string if not set.
func CorrelationFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CorrelationKey{}).(string); ok {
		return v
	}
	return ""
}

// Package reqctx carries request scoped values across layers that do not see the HTTP request.
package reqctx

import "context"

type correlationIDKey struct{}

// WithCorrelationID returns a copy of ctx carrying the correlation id
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation id stored in ctx, or an empty string
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

package logger

import (
	"context"

	"github.com/google/uuid"
)

// flowIDKey marks the context storage slot for the flow identifier.
type flowIDKey struct{}

// FlowIDFromContext returns the flow identifier stored in ctx, or an empty string when absent.
func FlowIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(flowIDKey{}).(string); ok {
		return id
	}

	return ""
}

// WithFlowID tags ctx with a fresh flow identifier so every log line and
// error produced by one user-initiated flow can be correlated.
func WithFlowID(ctx context.Context) context.Context {
	return context.WithValue(ctx, flowIDKey{}, uuid.NewString())
}

// Package appctx carries per-request values (request id, operator) through
// context for logging and audit enrichment.
package appctx

import (
	"context"

	"balcao/internal/core/id"
)

type requestIDKey struct{}
type operatorKey struct{}

// Operator identifies the authenticated user acting on the request.
type Operator struct {
	UserID id.ID
	Name   string
	Role   string
}

// WithRequestID stores the request id in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request id or "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithOperator stores the acting operator in context.
func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// GetOperator returns the operator from context, if any.
func GetOperator(ctx context.Context) (Operator, bool) {
	v, ok := ctx.Value(operatorKey{}).(Operator)
	return v, ok
}

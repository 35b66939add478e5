package api

import (
	"context"
)

type contextKey string

const operatorContextKey contextKey = "operator"

// OperatorFromContext returns the fingerprint of the API key that
// authenticated the request, or "" on open routes
func OperatorFromContext(ctx context.Context) string {
	op, _ := ctx.Value(operatorContextKey).(string)
	return op
}

// ContextWithOperator stores the key fingerprint in the context
func ContextWithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorContextKey, operator)
}

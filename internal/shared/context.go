package shared

import "context"

// Operator identifies the warehouse worker behind a request or scan channel.
type Operator struct {
	ID     int64
	Code   string
	Name   string
	Active bool
}

type operatorContextKey struct{}

// ContextWithOperator stores the operator in context.
func ContextWithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, op)
}

// OperatorFromContext extracts the operator from context.
func OperatorFromContext(ctx context.Context) *Operator {
	op, _ := ctx.Value(operatorContextKey{}).(*Operator)
	return op
}

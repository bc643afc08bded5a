package xroute

import (
	"context"
)

type contextKey[T any] struct{}

// SetValue stores a typed value in the request context. For use in
// middleware; handlers read it back with GetValue.
func SetValue[T any](r *Request, val T) {
	ctx := context.WithValue(r.Context(), contextKey[T]{}, val)
	r.Request = r.WithContext(ctx)
}

// GetValue retrieves a typed value from the request context.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(contextKey[T]{}).(T)
	return val, ok
}

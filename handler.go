package xroute

import "context"

// Handler is the signature of a declared endpoint: usually a method
// expression such as (*Users).Show. The receiver is the mounted router
// instance and args holds one value per bound argument slot.
type Handler[T any] func(owner T, ctx context.Context, args Args) (any, error)

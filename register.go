package xroute

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Builder collects the endpoint declarations of one router type. It is only
// valid inside the function passed to Define.
type Builder[T Routable] struct {
	reg   *Registry
	owner reflect.Type
	errs  []error
}

// Define declares the endpoints of router type T in DefaultRegistry.
//
// Declarations run in two phases: fn registers endpoints and may queue
// cross-cutting options with Apply; once fn returns, the queued options are
// settled against the complete set of endpoints. Define is meant to be called
// once per type, typically from an init function.
//
//	func init() {
//	    xroute.MustDefine(func(b *xroute.Builder[*Users]) {
//	        b.Get("Show", (*Users).Show, xroute.Path("/:id"), xroute.Arg(0, xroute.Params("id")))
//	    })
//	}
func Define[T Routable](fn func(b *Builder[T])) error {
	return DefineIn(DefaultRegistry, fn)
}

// DefineIn is Define against an explicit registry.
func DefineIn[T Routable](reg *Registry, fn func(b *Builder[T])) error {
	b := &Builder[T]{
		reg:   reg,
		owner: reflect.TypeFor[T](),
	}
	fn(b)

	if err := reg.Settle(b.owner); err != nil {
		b.errs = append(b.errs, err)
	}
	return errors.Join(b.errs...)
}

// MustDefine is like Define but panics on error.
func MustDefine[T Routable](fn func(b *Builder[T])) {
	if err := Define(fn); err != nil {
		panic(fmt.Sprintf("xroute: define %s: %v", reflect.TypeFor[T](), err))
	}
}

// Handle declares the endpoint key under method. The pattern defaults to
// "/"+key; opts run immediately, in order.
func (b *Builder[T]) Handle(method Method, key string, h Handler[T], opts ...Option) {
	if h == nil {
		b.errs = append(b.errs, fmt.Errorf("%s.%s: nil handler", b.owner, key))
		return
	}

	erased := func(owner any, ctx context.Context, args Args) (any, error) {
		return h(owner.(T), ctx, args)
	}
	if err := b.reg.Register(b.owner, key, method, erased, opts...); err != nil {
		b.errs = append(b.errs, err)
	}
}

// Get declares a GET endpoint.
func (b *Builder[T]) Get(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodGet, key, h, opts...)
}

// Post declares a POST endpoint.
func (b *Builder[T]) Post(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodPost, key, h, opts...)
}

// Put declares a PUT endpoint.
func (b *Builder[T]) Put(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodPut, key, h, opts...)
}

// Delete declares a DELETE endpoint.
func (b *Builder[T]) Delete(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodDelete, key, h, opts...)
}

// Patch declares a PATCH endpoint.
func (b *Builder[T]) Patch(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodPatch, key, h, opts...)
}

// Options declares an OPTIONS endpoint.
func (b *Builder[T]) Options(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodOptions, key, h, opts...)
}

// Head declares a HEAD endpoint.
func (b *Builder[T]) Head(key string, h Handler[T], opts ...Option) {
	b.Handle(MethodHead, key, h, opts...)
}

// Apply queues opts for the endpoint key. They run after every endpoint in
// the declaration block has been registered, so Apply may precede the
// declaration it targets.
func (b *Builder[T]) Apply(key string, opts ...Option) {
	b.reg.Defer(b.owner, key, opts...)
}

// ResponseHandler sets the default response handler for every endpoint of T.
func (b *Builder[T]) ResponseHandler(h ResponseHandler) {
	b.reg.SetResponseHandler(b.owner, h)
}

// ErrorHandler sets the default error handler for every endpoint of T.
func (b *Builder[T]) ErrorHandler(h ErrorHandler) {
	b.reg.SetErrorHandler(b.owner, h)
}

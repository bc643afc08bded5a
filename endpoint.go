package xroute

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
)

// Method is an HTTP verb an endpoint can be declared under.
type Method string

// Supported endpoint methods.
const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodPatch   Method = http.MethodPatch
	MethodOptions Method = http.MethodOptions
	MethodHead    Method = http.MethodHead
)

var methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodOptions, MethodHead,
}

// ErrUnsupportedMethod is returned when a method is outside the supported set.
var ErrUnsupportedMethod = errors.New("unsupported method")

// ParseMethod validates s against the supported methods. An empty string
// yields MethodGet.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return MethodGet, nil
	}
	m := Method(s)
	if !slices.Contains(methods, m) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
	return m, nil
}

// Binder extracts one handler argument from a request.
type Binder func(r *Request) any

// Middleware runs before an endpoint handler. Returning ErrNext hands the
// request to the host's fallthrough handler; any other error is routed to
// the endpoint's error handler.
type Middleware func(r *Request) error

// ResponseHandler writes a successful handler result.
type ResponseHandler func(w http.ResponseWriter, r *Request, data any)

// ErrorHandler writes a handler or middleware failure.
type ErrorHandler func(w http.ResponseWriter, r *Request, err error)

// HandlerFunc is the type-erased form of Handler stored on an Endpoint.
// owner is the router instance the endpoint was mounted from.
type HandlerFunc func(owner any, ctx context.Context, args Args) (any, error)

// Option attaches behavior or documentation to an endpoint.
type Option func(*Endpoint)

// Endpoint is the metadata record for one declared operation. Records are
// owned by a Registry; the copies returned from Registry.Endpoints are
// snapshots and may be read freely.
type Endpoint struct {
	// Key is the handler method name; unique within its owner.
	Key     string
	Method  Method
	Pattern string
	Doc     Operation

	binders    map[int]Binder
	arity      int
	middleware []Middleware
	respond    ResponseHandler
	fail       ErrorHandler
	handler    HandlerFunc
	bodyLimit  int64

	errs []error
}

func newEndpoint(key string, method Method, h HandlerFunc) *Endpoint {
	return &Endpoint{
		Key:     key,
		Method:  method,
		Pattern: "/" + key,
		binders: make(map[int]Binder),
		handler: h,
	}
}

// Arity is the length of the argument list passed to the handler: one more
// than the highest bound index, or zero when nothing is bound.
func (e *Endpoint) Arity() int { return e.arity }

// Binder returns the binder attached at index i.
func (e *Endpoint) Binder(i int) (Binder, bool) {
	b, ok := e.binders[i]
	return b, ok
}

// Middleware returns the endpoint's middleware in attachment order.
func (e *Endpoint) Middleware() []Middleware { return slices.Clone(e.middleware) }

// Clone returns a copy that shares no mutable state with e.
func (e *Endpoint) Clone() *Endpoint {
	c := *e
	c.binders = maps.Clone(e.binders)
	c.middleware = slices.Clone(e.middleware)
	c.Doc = *e.Doc.Clone()
	c.errs = nil
	return &c
}

func (e *Endpoint) bind(index int, b Binder) {
	if index < 0 {
		e.addErr(fmt.Errorf("argument index %d is negative", index))
		return
	}
	e.binders[index] = b
	if index+1 > e.arity {
		e.arity = index + 1
	}
}

func (e *Endpoint) addErr(err error) {
	e.errs = append(e.errs, err)
}

// apply runs opts against e and returns any errors they recorded.
func (e *Endpoint) apply(opts ...Option) error {
	for _, opt := range opts {
		opt(e)
	}
	err := errors.Join(e.errs...)
	e.errs = nil
	return err
}

// Args is the positional argument list built by an endpoint's binders.
// Slots without a binder hold nil.
type Args []any

// Get returns the argument at i, or nil when i is out of range.
func (a Args) Get(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String returns the argument at i as a string. Non-string values yield "".
func (a Args) String(i int) string {
	s, _ := a.Get(i).(string)
	return s
}

// Map returns the argument at i as a map, or nil.
func (a Args) Map(i int) map[string]any {
	m, _ := a.Get(i).(map[string]any)
	return m
}

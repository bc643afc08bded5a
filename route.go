package xroute

// Path sets the endpoint's route pattern. Segments of the form :name are
// route parameters.
func Path(pattern string) Option {
	return func(e *Endpoint) {
		e.Pattern = pattern
	}
}

// Use appends middleware to the endpoint. Middleware runs in the order it
// was attached, before arguments are bound.
func Use(mw ...Middleware) Option {
	return func(e *Endpoint) {
		e.middleware = append(e.middleware, mw...)
	}
}

// WithMiddleware attaches mw together with the options that document it,
// such as the parameters it reads or the responses it may produce.
//
//	xroute.WithMiddleware(requireText, xroute.WithQueryParam("text", "", true))
func WithMiddleware(mw Middleware, docs ...Option) Option {
	return func(e *Endpoint) {
		e.middleware = append(e.middleware, mw)
		for _, opt := range docs {
			opt(e)
		}
	}
}

// WithResponseHandler sets the endpoint's response handler.
func WithResponseHandler(h ResponseHandler) Option {
	return func(e *Endpoint) {
		e.respond = h
	}
}

// WithErrorHandler sets the endpoint's error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Endpoint) {
		e.fail = h
	}
}

// WithBodyLimit caps the request body at maxBytes. Larger bodies fail with
// 413 Request Entity Too Large.
func WithBodyLimit(maxBytes int64) Option {
	return func(e *Endpoint) {
		e.bodyLimit = maxBytes
	}
}

// With combines several options into one.
func With(opts ...Option) Option {
	return func(e *Endpoint) {
		for _, opt := range opts {
			opt(e)
		}
	}
}

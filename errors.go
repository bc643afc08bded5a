package xroute

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for dispatch.
var (
	// ErrNext is returned by a middleware or handler to pass the request on
	// to the server's fallthrough handler. It is never logged.
	ErrNext = errors.New("next")

	ErrBindBody = errors.New("bind body")
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// HeaderSetter is implemented by responses that set extra response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// CookieSetter is implemented by responses that set cookies.
type CookieSetter interface {
	Cookies() []*http.Cookie
}

// HTTPError is an error with an HTTP status code. It serializes as
// {"code": ..., "message": ...}.
type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Code }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Code: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Code: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. An expired
// request deadline maps to http.StatusGatewayTimeout. Anything else that does
// not implement StatusCoder, or carries a code outside 100-599, maps to
// http.StatusInternalServerError.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) && validStatus(sc.StatusCode()) {
		return sc.StatusCode()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func validStatus(code int) bool {
	return code >= 100 && code <= 599
}

// PanicError wraps a value recovered from a panicking handler or middleware.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

type bindError struct {
	err error
}

func (e *bindError) Error() string { return fmt.Sprintf("%s: %v", ErrBindBody, e.err) }

func (e *bindError) Unwrap() []error { return []error{ErrBindBody, e.err} }

func (e *bindError) StatusCode() int { return http.StatusBadRequest }

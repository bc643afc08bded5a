package xroute

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FailureEvent describes an endpoint failure. It is delivered to every
// ErrorObserver before the error handler runs.
type FailureEvent struct {
	ID       string
	Time     time.Time
	Owner    string
	Endpoint string
	Request  *Request
	Err      error
}

// ErrorObserver receives failure events. Observers run synchronously on the
// request goroutine and must not write to the response.
type ErrorObserver func(FailureEvent)

// compile builds the route table for owner from a settled snapshot of its
// endpoints. Later registry changes do not affect the returned handler.
func (s *Server) compile(owner Routable) (http.Handler, error) {
	t := ownerType(owner)
	if err := s.registry.Settle(t); err != nil {
		return nil, err
	}
	ownerRespond, ownerFail := s.registry.handlers(t)

	mux := chi.NewRouter()
	for _, ep := range s.registry.Endpoints(t) {
		cr := &compiledRoute{
			server:  s,
			owner:   owner,
			name:    t.String(),
			ep:      ep,
			respond: ep.respond,
			fail:    ep.fail,
		}
		if cr.respond == nil {
			cr.respond = ownerRespond
		}
		if cr.respond == nil {
			cr.respond = s.respond
		}
		if cr.fail == nil {
			cr.fail = ownerFail
		}
		if cr.fail == nil {
			cr.fail = s.fail
		}
		mux.Method(string(ep.Method), chiPattern(ep.Pattern), cr)
	}
	return mux, nil
}

// chiPattern rewrites :name placeholders as chi's {name}.
func chiPattern(pattern string) string {
	p := pathParam.ReplaceAllString(pattern, "{$1}")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// compiledRoute serves one endpoint.
type compiledRoute struct {
	server  *Server
	owner   Routable
	name    string
	ep      *Endpoint
	respond ResponseHandler
	fail    ErrorHandler
}

func (cr *compiledRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if cr.server.tracer != nil {
		ctx, end := cr.server.tracer.StartSpan(r.Context(), cr.name+"."+cr.ep.Key, map[string]string{
			"http.method": r.Method,
			"http.route":  cr.ep.Pattern,
		})
		defer end()
		r = r.WithContext(ctx)
	}
	if cr.ep.bodyLimit > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, cr.ep.bodyLimit)
	}

	req, err := newRequest(r, cr.server.codecs)
	var data any
	if err == nil {
		data, err = cr.invoke(req)
	}
	if err != nil {
		cr.failed(w, req, err)
		return
	}
	cr.respond(w, req, data)
}

// invoke runs the middleware chain, binds the arguments and calls the
// handler. A panic anywhere in between becomes a *PanicError.
func (cr *compiledRoute) invoke(req *Request) (data any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			data, err = nil, &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()

	for _, mw := range cr.ep.middleware {
		if err := mw(req); err != nil {
			return nil, err
		}
	}

	args := make(Args, cr.ep.arity)
	for i, b := range cr.ep.binders {
		args[i] = b(req)
	}
	return cr.ep.handler(cr.owner, req.Context(), args)
}

func (cr *compiledRoute) failed(w http.ResponseWriter, req *Request, err error) {
	if errors.Is(err, ErrNext) {
		cr.server.next.ServeHTTP(w, req.Request)
		return
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		err = Errorf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", mbe.Limit)
	}

	event := FailureEvent{
		ID:       uuid.NewString(),
		Time:     time.Now(),
		Owner:    cr.name,
		Endpoint: cr.ep.Key,
		Request:  req,
		Err:      err,
	}
	for _, observe := range cr.server.observers {
		observe(event)
	}

	attrs := []slog.Attr{
		slog.String("id", event.ID),
		slog.String("endpoint", fmt.Sprintf("%s.%s", cr.name, cr.ep.Key)),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", ErrorStatus(err)),
		slog.Any("error", err),
	}
	if id := GetRequestID(req.Request); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	cr.server.logger.LogAttrs(req.Context(), slog.LevelError, "endpoint failed", attrs...)

	cr.fail(w, req, err)
}

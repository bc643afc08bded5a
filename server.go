package xroute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// ErrPathInUse is returned when two routers are mounted on the same path.
var ErrPathInUse = errors.New("mount path already in use")

// Server hosts mounted routers on a chi router and owns the defaults their
// endpoints fall back to. It implements http.Handler.
type Server struct {
	mux        chi.Router
	registry   *Registry
	middleware []HTTPMiddleware
	mounted    map[string]Routable

	respond   ResponseHandler
	fail      ErrorHandler
	next      http.Handler
	observers []ErrorObserver

	encoders []Encoder
	decoders []Decoder
	codecs   *codecRegistry

	logger *slog.Logger
	tracer SpanStarter

	mu sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRegistry sets the registry endpoints are read from.
// Defaults to DefaultRegistry.
func WithRegistry(reg *Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithDefaultResponseHandler sets the server-wide response handler, used
// when neither the endpoint nor its router type declares one.
func WithDefaultResponseHandler(h ResponseHandler) ServerOption {
	return func(s *Server) {
		s.respond = h
	}
}

// WithDefaultErrorHandler sets the server-wide error handler, used when
// neither the endpoint nor its router type declares one.
func WithDefaultErrorHandler(h ErrorHandler) ServerOption {
	return func(s *Server) {
		s.fail = h
	}
}

// WithFallthrough sets the handler that receives requests whose endpoint
// returned ErrNext. Defaults to a 404 response.
func WithFallthrough(h http.Handler) ServerOption {
	return func(s *Server) {
		s.next = h
	}
}

// WithErrorObserver subscribes fn to endpoint failure events.
func WithErrorObserver(fn ErrorObserver) ServerOption {
	return func(s *Server) {
		s.observers = append(s.observers, fn)
	}
}

// WithLogger sets the logger used for failure events. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithEncoder registers an additional response encoder.
func WithEncoder(enc Encoder) ServerOption {
	return func(s *Server) {
		s.encoders = append(s.encoders, enc)
	}
}

// WithDecoder registers an additional request body decoder.
func WithDecoder(dec Decoder) ServerOption {
	return func(s *Server) {
		s.decoders = append(s.decoders, dec)
	}
}

// SpanStarter is a tracing hook interface for creating spans per endpoint
// invocation. Implement this with your preferred tracing backend.
type SpanStarter interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func())
}

// WithTracer sets a tracing hook for the server.
func WithTracer(t SpanStarter) ServerOption {
	return func(s *Server) {
		s.tracer = t
	}
}

// NewServer creates a Server with the given options.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		mux:      chi.NewRouter(),
		registry: DefaultRegistry,
		mounted:  make(map[string]Routable),
		next:     http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.codecs = newCodecRegistry(s.encoders, s.decoders)
	if s.respond == nil {
		s.respond = defaultResponseHandler(s.codecs)
	}
	if s.fail == nil {
		s.fail = defaultErrorHandler(s.codecs)
	}
	return s
}

// Use adds host-level middleware. Middleware is applied in the order added
// and wraps every request, including ones that match no endpoint.
func (s *Server) Use(mw ...HTTPMiddleware) {
	s.middleware = append(s.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(s.mux)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// Handle registers a plain handler for method and pattern, outside any
// router. Such routes do not appear in generated documents.
func (s *Server) Handle(method, pattern string, h http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mux.Method(method, pattern, h)
}

// Mount materializes owner and mounts it at owner's Path, or "/" when the
// path is empty.
func (s *Server) Mount(owner Routable) error {
	return s.MountAt(owner.router().Path, owner)
}

// MountAt materializes owner and mounts it at path. The route table is built
// once per router instance; mounting the same instance again reuses it.
func (s *Server) MountAt(path string, owner Routable) error {
	path = mountPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mounted[path]; ok {
		return fmt.Errorf("%w: %s", ErrPathInUse, path)
	}

	rt := owner.router()
	if rt.Server == nil {
		rt.Server = s
	}
	h, err := rt.materialize(func() (http.Handler, error) {
		return s.compile(owner)
	})
	if err != nil {
		return err
	}

	s.mux.Mount(path, h)
	s.mounted[path] = owner
	return nil
}

// LoadDir discovers routers in dir through loader and mounts each at its
// discovered path, in discovery order.
func (s *Server) LoadDir(ctx context.Context, loader Loader, dir string) error {
	found, err := loader.Load(ctx, dir)
	if err != nil {
		return err
	}
	for _, d := range found {
		if err := s.MountAt(d.Path, d.Router); err != nil {
			return fmt.Errorf("mount %s: %w", d.Source, err)
		}
	}
	return nil
}

// Mounted returns the mounted routers keyed by mount path.
func (s *Server) Mounted() map[string]Routable {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Routable, len(s.mounted))
	for k, v := range s.mounted {
		out[k] = v
	}
	return out
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ownerType is the registry key of a mounted router.
func ownerType(owner Routable) reflect.Type {
	return reflect.TypeOf(owner)
}

func mountPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

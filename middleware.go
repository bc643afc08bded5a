package xroute

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// HTTPMiddleware is the standard net/http middleware signature. It wraps the
// whole server; endpoint-level middleware uses Middleware instead.
type HTTPMiddleware func(next http.Handler) http.Handler

// Recovery returns middleware that recovers from panics outside endpoint
// handlers and responds with 500. Endpoint panics are already converted to
// *PanicError and routed to the error handler.
func Recovery() HTTPMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					slog.Error("panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
						"method", r.Method,
						"path", r.URL.Path,
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

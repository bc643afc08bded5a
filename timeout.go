package xroute

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that bounds the request context by d. Handlers
// observe the deadline through the ctx argument they receive; one that
// returns the context's error fails with 504 Gateway Timeout.
func Timeout(d time.Duration) HTTPMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

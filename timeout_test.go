package xroute_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/xroute"
)

type slowRouter struct {
	xroute.Router
}

// Remaining reports whether the handler's ctx carries a future deadline.
func (*slowRouter) Remaining(ctx context.Context, _ xroute.Args) (any, error) {
	deadline, ok := ctx.Deadline()
	return map[string]bool{"deadline": ok && time.Until(deadline) > 0}, nil
}

// Wait blocks until ctx is done and returns its error.
func (*slowRouter) Wait(ctx context.Context, _ xroute.Args) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		timeout    time.Duration
		target     string
		wantStatus int
		wantBody   string
	}{
		"handler ctx has deadline": {
			timeout:    5 * time.Second,
			target:     "/slow/remaining",
			wantStatus: http.StatusOK,
			wantBody:   `{"deadline":true}`,
		},
		"expired deadline is a gateway timeout": {
			timeout:    10 * time.Millisecond,
			target:     "/slow/wait",
			wantStatus: http.StatusGatewayTimeout,
			wantBody:   `{"code":504,"message":"context deadline exceeded"}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reg := xroute.NewRegistry()
			require.NoError(t, xroute.DefineIn(reg, func(b *xroute.Builder[*slowRouter]) {
				b.Get("Remaining", (*slowRouter).Remaining, xroute.Path("/remaining"))
				b.Get("Wait", (*slowRouter).Wait, xroute.Path("/wait"))
			}))

			srv := xroute.NewServer(
				xroute.WithRegistry(reg),
				xroute.WithLogger(slog.New(slog.DiscardHandler)),
			)
			srv.Use(xroute.Timeout(tc.timeout))
			require.NoError(t, srv.MountAt("/slow", &slowRouter{}))

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.JSONEq(t, tc.wantBody, rec.Body.String())
		})
	}
}

func TestTimeout_without_middleware_has_no_deadline(t *testing.T) {
	t.Parallel()

	reg := xroute.NewRegistry()
	require.NoError(t, xroute.DefineIn(reg, func(b *xroute.Builder[*slowRouter]) {
		b.Get("Remaining", (*slowRouter).Remaining, xroute.Path("/"))
	}))

	srv := xroute.NewServer(xroute.WithRegistry(reg))
	require.NoError(t, srv.MountAt("/slow", &slowRouter{}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deadline":false}`, rec.Body.String())
}

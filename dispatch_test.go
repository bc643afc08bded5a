package xroute_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/xroute"
	"github.com/bjaus/xroute/apitest"
)

type echoRouter struct {
	xroute.Router
	calls int
}

func (*echoRouter) Echo(_ context.Context, args xroute.Args) (any, error) {
	return map[string]any{"data": args.Get(0)}, nil
}

func (*echoRouter) Fail(_ context.Context, args xroute.Args) (any, error) {
	return nil, xroute.Error(http.StatusNotFound, args.String(0))
}

func (*echoRouter) Boom(context.Context, xroute.Args) (any, error) {
	panic("kaboom")
}

func (r *echoRouter) Count(context.Context, xroute.Args) (any, error) {
	r.calls++
	return map[string]int{"calls": r.calls}, nil
}

func (*echoRouter) Nothing(context.Context, xroute.Args) (any, error) { return nil, nil }

func (*echoRouter) Text(context.Context, xroute.Args) (any, error) { return "hello", nil }

func (*echoRouter) Raw(context.Context, xroute.Args) (any, error) { return []byte{0x01, 0x02}, nil }

func (*echoRouter) Plain(context.Context, xroute.Args) (any, error) {
	return nil, errors.New("database is down")
}

func (*echoRouter) Codeless(context.Context, xroute.Args) (any, error) {
	return nil, &xroute.HTTPError{Message: "no code"}
}

func newEchoServer(t *testing.T, define func(b *xroute.Builder[*echoRouter]), opts ...xroute.ServerOption) *xroute.Server {
	t.Helper()

	reg := xroute.NewRegistry()
	require.NoError(t, xroute.DefineIn(reg, define))

	srv := xroute.NewServer(append([]xroute.ServerOption{
		xroute.WithRegistry(reg),
		xroute.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)...)
	require.NoError(t, srv.MountAt("/test", &echoRouter{}))
	return srv
}

func TestDispatch_query_argument(t *testing.T) {
	t.Parallel()

	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Echo", (*echoRouter).Echo, xroute.Path("/"), xroute.Arg(0, xroute.Query("text")))
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test?text=123123", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":"123123"}`, rec.Body.String())
}

func TestDispatch_binders(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern     string
		binder      xroute.Binder
		method      string
		target      string
		contentType string
		body        string
		header      http.Header
		expect      string
	}{
		"route param": {
			pattern: "/:id",
			binder:  xroute.Params("id"),
			target:  "/test/42",
			expect:  `{"data":"42"}`,
		},
		"all route params": {
			pattern: "/:org/:repo",
			binder:  xroute.Params(""),
			target:  "/test/acme/widgets",
			expect:  `{"data":{"org":"acme","repo":"widgets"}}`,
		},
		"repeated query": {
			pattern: "/",
			binder:  xroute.Query("tag"),
			target:  "/test?tag=a&tag=b",
			expect:  `{"data":["a","b"]}`,
		},
		"missing query": {
			pattern: "/",
			binder:  xroute.Query("nope"),
			target:  "/test",
			expect:  `{"data":null}`,
		},
		"json body path": {
			pattern:     "/",
			binder:      xroute.Body("user.name"),
			method:      http.MethodPost,
			target:      "/test",
			contentType: "application/json",
			body:        `{"user":{"name":"alice"}}`,
			expect:      `{"data":"alice"}`,
		},
		"yaml body": {
			pattern:     "/",
			binder:      xroute.Body("items.1"),
			method:      http.MethodPost,
			target:      "/test",
			contentType: "application/x-yaml",
			body:        "items:\n  - first\n  - second\n",
			expect:      `{"data":"second"}`,
		},
		"form body": {
			pattern:     "/",
			binder:      xroute.Body("name"),
			method:      http.MethodPost,
			target:      "/test",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=bob&age=7",
			expect:      `{"data":"bob"}`,
		},
		"header": {
			pattern: "/",
			binder:  xroute.Header("X-Tenant"),
			target:  "/test",
			header:  http.Header{"X-Tenant": {"acme"}},
			expect:  `{"data":"acme"}`,
		},
		"request view header": {
			pattern: "/",
			binder:  xroute.Req("headers.x-tenant"),
			target:  "/test",
			header:  http.Header{"X-Tenant": {"acme"}},
			expect:  `{"data":"acme"}`,
		},
		"request view method": {
			pattern: "/",
			binder:  xroute.Req("method"),
			target:  "/test",
			expect:  `{"data":"GET"}`,
		},
		"query func": {
			pattern: "/",
			binder: xroute.QueryFunc(func(q map[string]any) any {
				return len(q)
			}),
			target: "/test?a=1&b=2",
			expect: `{"data":2}`,
		},
		"body func": {
			pattern: "/",
			binder: xroute.BodyFunc(func(body any) any {
				m, _ := body.(map[string]any)
				a, _ := m["a"].(float64)
				b, _ := m["b"].(float64)
				return a + b
			}),
			method:      http.MethodPost,
			target:      "/test",
			contentType: "application/json",
			body:        `{"a":1,"b":2}`,
			expect:      `{"data":3}`,
		},
		"params func": {
			pattern: "/:org/:repo",
			binder: xroute.ParamsFunc(func(p map[string]any) any {
				return fmt.Sprintf("%v/%v", p["org"], p["repo"])
			}),
			target: "/test/acme/widgets",
			expect: `{"data":"acme/widgets"}`,
		},
		"req func": {
			pattern: "/:id",
			binder: xroute.ReqFunc(func(r *xroute.Request) any {
				return r.Method + " " + r.URL.Path
			}),
			target: "/test/7",
			expect: `{"data":"GET /test/7"}`,
		},
		"unique ints from query": {
			pattern: "/",
			binder:  xroute.UniqueInts("query.ids", ","),
			target:  "/test?ids=3,1,3,x,2",
			expect:  `{"data":[3,1,2]}`,
		},
		"unique ints missing": {
			pattern: "/",
			binder:  xroute.UniqueInts("query.ids", ""),
			target:  "/test",
			expect:  `{"data":[]}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			method := tc.method
			if method == "" {
				method = http.MethodGet
			}

			srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
				b.Handle(xroute.Method(method), "Echo", (*echoRouter).Echo, xroute.Path(tc.pattern), xroute.Arg(0, tc.binder))
			})

			req := httptest.NewRequest(method, tc.target, strings.NewReader(tc.body))
			if tc.body == "" {
				req = httptest.NewRequest(method, tc.target, nil)
			}
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			for k, v := range tc.header {
				req.Header[k] = v
			}

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, tc.expect, rec.Body.String())
		})
	}
}

func TestDispatch_raw_request(t *testing.T) {
	t.Parallel()

	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Post("Echo", func(_ *echoRouter, _ context.Context, args xroute.Args) (any, error) {
			req, ok := args.Get(0).(*xroute.Request)
			if !ok {
				return nil, xroute.Errorf(http.StatusInternalServerError, "got %T", args.Get(0))
			}
			return map[string]any{
				"method": req.Method,
				"id":     req.Params["id"],
				"q":      req.Query["q"],
				"body":   req.Body,
			}, nil
		}, xroute.Path("/:id"), xroute.Arg(0, xroute.Req("")))
	})

	r := httptest.NewRequest(http.MethodPost, "/test/9?q=go", strings.NewReader(`{"ok":true}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"method":"POST","id":"9","q":"go","body":{"ok":true}}`, rec.Body.String())
}

func TestDispatch_results(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		handler     xroute.Handler[*echoRouter]
		accept      string
		status      int
		contentType string
		body        string
	}{
		"nil is no content": {
			handler: (*echoRouter).Nothing,
			status:  http.StatusNoContent,
		},
		"string is text": {
			handler:     (*echoRouter).Text,
			status:      http.StatusOK,
			contentType: "text/plain; charset=utf-8",
			body:        "hello",
		},
		"bytes are raw": {
			handler:     (*echoRouter).Raw,
			status:      http.StatusOK,
			contentType: "application/octet-stream",
			body:        "\x01\x02",
		},
		"yaml negotiated": {
			handler:     (*echoRouter).Echo,
			accept:      "application/yaml",
			status:      http.StatusOK,
			contentType: "application/yaml",
			body:        "data: null\n",
		},
		"unmatched accept falls back to json": {
			handler:     (*echoRouter).Echo,
			accept:      "image/png",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        "{\"data\":null}\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
				b.Get("Run", tc.handler, xroute.Path("/"))
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.contentType != "" {
				assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))
			}
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }

func (c created) SetHeaders(h http.Header) { h.Set("Location", "/items/"+c.ID) }

func (created) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: "last", Value: "created"}}
}

func TestDispatch_result_status_headers_cookies(t *testing.T) {
	t.Parallel()

	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Post("Create", func(*echoRouter, context.Context, xroute.Args) (any, error) {
			return created{ID: "7"}, nil
		}, xroute.Path("/"))
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/items/7", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "last=created")
	assert.JSONEq(t, `{"id":"7"}`, rec.Body.String())
}

func TestDispatch_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		define func(b *xroute.Builder[*echoRouter])
		req    func() *http.Request
		status int
		body   string
	}{
		"http error": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Get("Fail", (*echoRouter).Fail, xroute.Path("/"), xroute.Arg(0, xroute.Query("msg")))
			},
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/test?msg=x", nil)
			},
			status: http.StatusNotFound,
			body:   `{"code":404,"message":"x"}`,
		},
		"plain error": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Get("Plain", (*echoRouter).Plain, xroute.Path("/"))
			},
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/test", nil)
			},
			status: http.StatusInternalServerError,
			body:   `{"code":500,"message":"database is down"}`,
		},
		"error without status code": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Get("Codeless", (*echoRouter).Codeless, xroute.Path("/"))
			},
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/test", nil)
			},
			status: http.StatusInternalServerError,
			body:   `{"code":500,"message":"no code"}`,
		},
		"handler panic": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Get("Boom", (*echoRouter).Boom, xroute.Path("/"))
			},
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/test", nil)
			},
			status: http.StatusInternalServerError,
			body:   `{"code":500,"message":"panic: kaboom"}`,
		},
		"middleware error skips handler": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Get("Boom", (*echoRouter).Boom, xroute.Path("/"), xroute.Use(func(*xroute.Request) error {
					return xroute.Error(http.StatusForbidden, "denied")
				}))
			},
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/test", nil)
			},
			status: http.StatusForbidden,
			body:   `{"code":403,"message":"denied"}`,
		},
		"malformed json": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Post("Echo", (*echoRouter).Echo, xroute.Path("/"), xroute.Arg(0, xroute.Body("")))
			},
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"broken"`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			status: http.StatusBadRequest,
		},
		"unsupported media type": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Post("Echo", (*echoRouter).Echo, xroute.Path("/"), xroute.Arg(0, xroute.Body("")))
			},
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`<a/>`))
				r.Header.Set("Content-Type", "application/xml")
				return r
			},
			status: http.StatusUnsupportedMediaType,
		},
		"body over limit": {
			define: func(b *xroute.Builder[*echoRouter]) {
				b.Post("Echo", (*echoRouter).Echo, xroute.Path("/"), xroute.Arg(0, xroute.Body("")), xroute.WithBodyLimit(8))
			},
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":"far too long"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			status: http.StatusRequestEntityTooLarge,
			body:   `{"code":413,"message":"request body exceeds 8 bytes"}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := newEchoServer(t, tc.define)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, tc.req())

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.body != "" {
				assert.JSONEq(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestDispatch_bind_error_is_bad_request(t *testing.T) {
	t.Parallel()

	var got error
	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Post("Echo", (*echoRouter).Echo, xroute.Path("/"))
	}, xroute.WithErrorObserver(func(ev xroute.FailureEvent) { got = ev.Err }))

	r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.ErrorIs(t, got, xroute.ErrBindBody)
}

func TestDispatch_middleware_order(t *testing.T) {
	t.Parallel()

	var calls []string
	mw := func(name string) xroute.Middleware {
		return func(*xroute.Request) error {
			calls = append(calls, name)
			return nil
		}
	}

	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Apply("Echo", xroute.Use(mw("third")))
		b.Get("Echo", func(r *echoRouter, ctx context.Context, args xroute.Args) (any, error) {
			calls = append(calls, "handler")
			return r.Echo(ctx, args)
		}, xroute.Path("/"), xroute.Use(mw("first")), xroute.WithMiddleware(mw("second")))
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second", "third", "handler"}, calls)
}

func TestDispatch_next_falls_through(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts   []xroute.ServerOption
		status int
		body   string
	}{
		"default not found": {
			status: http.StatusNotFound,
			body:   "404 page not found\n",
		},
		"custom fallthrough": {
			opts: []xroute.ServerOption{
				xroute.WithFallthrough(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusTeapot)
					_, _ = w.Write([]byte("fallthrough"))
				})),
			},
			status: http.StatusTeapot,
			body:   "fallthrough",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var observed int
			opts := append([]xroute.ServerOption{
				xroute.WithErrorObserver(func(xroute.FailureEvent) { observed++ }),
			}, tc.opts...)

			srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
				b.Get("Boom", (*echoRouter).Boom, xroute.Path("/"), xroute.Use(func(*xroute.Request) error {
					return xroute.ErrNext
				}))
			}, opts...)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
			assert.Zero(t, observed)
		})
	}
}

func TestDispatch_handler_resolution(t *testing.T) {
	t.Parallel()

	endpointHandler := func(w http.ResponseWriter, _ *xroute.Request, _ any) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("endpoint"))
	}
	ownerHandler := func(w http.ResponseWriter, _ *xroute.Request, _ any) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("owner"))
	}
	serverHandler := func(w http.ResponseWriter, _ *xroute.Request, _ any) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("server"))
	}
	endpointFail := func(w http.ResponseWriter, _ *xroute.Request, _ error) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("endpoint"))
	}
	ownerFail := func(w http.ResponseWriter, _ *xroute.Request, _ error) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("owner"))
	}
	serverFail := func(w http.ResponseWriter, _ *xroute.Request, _ error) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("server"))
	}

	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.ResponseHandler(ownerHandler)
		b.ErrorHandler(ownerFail)
		b.Get("OwnEcho", (*echoRouter).Echo, xroute.WithResponseHandler(endpointHandler))
		b.Get("OwnFail", (*echoRouter).Plain, xroute.WithErrorHandler(endpointFail))
		b.Get("Echo", (*echoRouter).Echo)
		b.Get("Plain", (*echoRouter).Plain)
	}, xroute.WithDefaultResponseHandler(serverHandler), xroute.WithDefaultErrorHandler(serverFail))

	plain := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Echo", (*echoRouter).Echo)
		b.Get("Plain", (*echoRouter).Plain)
	}, xroute.WithDefaultResponseHandler(serverHandler), xroute.WithDefaultErrorHandler(serverFail))

	tests := map[string]struct {
		srv    *xroute.Server
		path   string
		status int
		body   string
	}{
		"endpoint response handler": {srv: srv, path: "/test/OwnEcho", status: http.StatusAccepted, body: "endpoint"},
		"endpoint error handler":    {srv: srv, path: "/test/OwnFail", status: http.StatusBadGateway, body: "endpoint"},
		"owner response handler":    {srv: srv, path: "/test/Echo", status: http.StatusAccepted, body: "owner"},
		"owner error handler":       {srv: srv, path: "/test/Plain", status: http.StatusBadGateway, body: "owner"},
		"server response handler":   {srv: plain, path: "/test/Echo", status: http.StatusAccepted, body: "server"},
		"server error handler":      {srv: plain, path: "/test/Plain", status: http.StatusBadGateway, body: "server"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tc.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestDispatch_observers_and_logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var events []xroute.FailureEvent

	reg := xroute.NewRegistry()
	require.NoError(t, xroute.DefineIn(reg, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Plain", (*echoRouter).Plain, xroute.Path("/"))
	}))

	srv := xroute.NewServer(
		xroute.WithRegistry(reg),
		xroute.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
		xroute.WithErrorObserver(func(ev xroute.FailureEvent) { events = append(events, ev) }),
		xroute.WithErrorObserver(func(ev xroute.FailureEvent) { events = append(events, ev) }),
	)
	srv.Use(xroute.RequestID())
	require.NoError(t, srv.MountAt("/test", &echoRouter{}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	require.Len(t, events, 2)
	ev := events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ev.ID, events[1].ID)
	assert.Equal(t, "Plain", ev.Endpoint)
	assert.Contains(t, ev.Owner, "echoRouter")
	assert.EqualError(t, ev.Err, "database is down")
	require.NotNil(t, ev.Request)
	assert.Equal(t, "/test", ev.Request.URL.Path)

	logged := buf.String()
	assert.Contains(t, logged, `"level":"ERROR"`)
	assert.Contains(t, logged, `"request_id":"req-1"`)
	assert.Contains(t, logged, ev.ID)
}

func TestDispatch_owner_instance_state(t *testing.T) {
	t.Parallel()

	reg := xroute.NewRegistry()
	require.NoError(t, xroute.DefineIn(reg, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Count", (*echoRouter).Count, xroute.Path("/"))
	}))

	first := &echoRouter{}
	second := &echoRouter{}
	srv := xroute.NewServer(xroute.WithRegistry(reg))
	require.NoError(t, srv.MountAt("/a", first))
	require.NoError(t, srv.MountAt("/b", second))

	client := apitest.NewClient(t, srv)
	type counted struct {
		Calls int `json:"calls"`
	}

	apitest.Get[counted](t, client, "/a")
	resp := apitest.Get[counted](t, client, "/a")
	assert.Equal(t, 2, resp.Body.Calls)

	resp = apitest.Get[counted](t, client, "/b")
	assert.Equal(t, 1, resp.Body.Calls)
	assert.Equal(t, srv, first.Server)
}

func TestServer_MountAt(t *testing.T) {
	t.Parallel()

	reg := xroute.NewRegistry()
	require.NoError(t, xroute.DefineIn(reg, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Text", (*echoRouter).Text, xroute.Path("/"))
	}))

	srv := xroute.NewServer(xroute.WithRegistry(reg))
	require.NoError(t, srv.Mount(&echoRouter{Router: xroute.Router{Path: "hello"}}))
	require.ErrorIs(t, srv.MountAt("/hello/", &echoRouter{}), xroute.ErrPathInUse)

	assert.Contains(t, srv.Mounted(), "/hello")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestServer_route_table_is_frozen_after_mount(t *testing.T) {
	t.Parallel()

	reg := xroute.NewRegistry()
	require.NoError(t, xroute.DefineIn(reg, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Text", (*echoRouter).Text)
	}))

	srv := xroute.NewServer(xroute.WithRegistry(reg))
	require.NoError(t, srv.MountAt("/test", &echoRouter{}))

	require.NoError(t, reg.Update(reflect.TypeFor[*echoRouter](), "Text", xroute.Path("/moved")))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test/Text", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test/moved", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type recordingTracer struct {
	mu    sync.Mutex
	spans []string
	ended int
}

func (rt *recordingTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.spans = append(rt.spans, name+" "+attrs["http.route"])
	return ctx, func() {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		rt.ended++
	}
}

func TestServer_tracer(t *testing.T) {
	t.Parallel()

	tracer := &recordingTracer{}
	srv := newEchoServer(t, func(b *xroute.Builder[*echoRouter]) {
		b.Get("Show", (*echoRouter).Echo, xroute.Path("/:id"))
	}, xroute.WithTracer(tracer))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test/9", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tracer.spans, 1)
	assert.Equal(t, "*xroute_test.echoRouter.Show /:id", tracer.spans[0])
	assert.Equal(t, 1, tracer.ended)
}

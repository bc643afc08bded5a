// Package apitest provides typed test helpers for servers built with xroute.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Client wraps an httptest.Server for convenient API testing.
type Client struct {
	Server *httptest.Server
}

// NewClient starts a test server for h, usually an *xroute.Server.
func NewClient(t testing.TB, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a decoded API response.
type Response[T any] struct {
	Status  int
	Headers http.Header
	Body    *T
	Raw     *http.Response
}

// RequestOption modifies an outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearer sets an Authorization bearer token.
func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// Get sends a typed GET request.
func Get[Resp any](t testing.TB, c *Client, path string, opts ...RequestOption) *Response[Resp] {
	t.Helper()
	return Do[Resp](t, c, http.MethodGet, path, nil, opts...)
}

// Post sends a typed POST request with a JSON body.
func Post[Req, Resp any](t testing.TB, c *Client, path string, body *Req, opts ...RequestOption) *Response[Resp] {
	t.Helper()
	return Do[Resp](t, c, http.MethodPost, path, body, opts...)
}

// Put sends a typed PUT request with a JSON body.
func Put[Req, Resp any](t testing.TB, c *Client, path string, body *Req, opts ...RequestOption) *Response[Resp] {
	t.Helper()
	return Do[Resp](t, c, http.MethodPut, path, body, opts...)
}

// Patch sends a typed PATCH request with a JSON body.
func Patch[Req, Resp any](t testing.TB, c *Client, path string, body *Req, opts ...RequestOption) *Response[Resp] {
	t.Helper()
	return Do[Resp](t, c, http.MethodPatch, path, body, opts...)
}

// Delete sends a typed DELETE request.
func Delete[Resp any](t testing.TB, c *Client, path string, opts ...RequestOption) *Response[Resp] {
	t.Helper()
	return Do[Resp](t, c, http.MethodDelete, path, nil, opts...)
}

// Do sends a request with any method. A non-nil body is sent as JSON; the
// response body is decoded as JSON into Resp when present.
func Do[Resp any](t testing.TB, c *Client, method, path string, body any, opts ...RequestOption) *Response[Resp] {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("apitest: marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("apitest: create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("apitest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("apitest: close body: %v", closeErr)
		}
	}()

	result := &Response[Resp]{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Raw:     resp,
	}

	if resp.StatusCode != http.StatusNoContent && resp.ContentLength != 0 {
		var decoded Resp
		if decErr := json.NewDecoder(resp.Body).Decode(&decoded); decErr != nil && decErr != io.EOF {
			return result
		}
		result.Body = &decoded
	}

	return result
}

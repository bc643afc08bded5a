package xroute

import (
	"slices"
	"strconv"
	"strings"
)

// Req binds the value at path in the request view (see Request.Value).
// An empty path binds the *Request itself.
func Req(path string) Binder {
	if path == "" {
		return func(r *Request) any { return r }
	}
	return func(r *Request) any { return r.Value(path) }
}

// ReqFunc binds the result of fn applied to the request.
func ReqFunc(fn func(r *Request) any) Binder {
	return Binder(fn)
}

// Body binds the value at path in the decoded body, or the whole body when
// path is empty.
func Body(path string) Binder {
	return func(r *Request) any { return lookupPath(r.Body, path) }
}

// BodyFunc binds the result of fn applied to the decoded body.
func BodyFunc(fn func(body any) any) Binder {
	return func(r *Request) any { return fn(r.Body) }
}

// Params binds the route parameter at path, or every parameter when path is
// empty.
func Params(path string) Binder {
	return func(r *Request) any { return lookupPath(r.Params, path) }
}

// ParamsFunc binds the result of fn applied to the route parameters.
func ParamsFunc(fn func(params map[string]any) any) Binder {
	return func(r *Request) any { return fn(r.Params) }
}

// Query binds the query value at path, or the whole query when path is empty.
func Query(path string) Binder {
	return func(r *Request) any { return lookupPath(r.Query, path) }
}

// QueryFunc binds the result of fn applied to the query values.
func QueryFunc(fn func(query map[string]any) any) Binder {
	return func(r *Request) any { return fn(r.Query) }
}

// Header binds the first value of the named request header.
func Header(name string) Binder {
	return func(r *Request) any { return r.Header.Get(name) }
}

// UniqueInts binds the value at path as a de-duplicated list of integers.
// The value may be a list or a sep-separated string; entries that are not
// integers are skipped. A missing value binds an empty list.
func UniqueInts(path, sep string) Binder {
	if sep == "" {
		sep = ","
	}
	return func(r *Request) any {
		var raw []string
		switch v := r.Value(path).(type) {
		case string:
			raw = strings.Split(v, sep)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					raw = append(raw, s)
				}
			}
		}

		out := []int{}
		for _, s := range raw {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || slices.Contains(out, n) {
				continue
			}
			out = append(out, n)
		}
		return out
	}
}

// Arg binds argument slot index to b.
func Arg(index int, b Binder) Option {
	return func(e *Endpoint) {
		e.bind(index, b)
	}
}

// Bind binds binders to slots 0..n-1 in order.
func Bind(binders ...Binder) Option {
	return func(e *Endpoint) {
		for i, b := range binders {
			e.bind(i, b)
		}
	}
}

package xroute

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// maxMultipartMemory is the maximum memory used for multipart form parsing (32 MB).
const maxMultipartMemory = 32 << 20

// Request is the view of an incoming request that binders, middleware and
// handlers share. Body holds the decoded body as generic values (maps,
// slices, strings, numbers); Params and Query hold route parameters and
// query values keyed by name.
type Request struct {
	*http.Request

	Body   any
	Params map[string]any
	Query  map[string]any
}

// newRequest decodes r into a Request. Route parameters are read from the
// chi route context, so it must run inside a matched route.
func newRequest(r *http.Request, codecs *codecRegistry) (*Request, error) {
	req := &Request{
		Request: r,
		Params:  routeParams(r),
		Query:   queryValues(r),
	}

	body, err := decodeBody(r, codecs)
	if err != nil {
		return req, err
	}
	req.Body = body
	return req, nil
}

func routeParams(r *http.Request) map[string]any {
	params := make(map[string]any)
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return params
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// queryValues flattens the query string: single values become strings,
// repeated keys become []any.
func queryValues(r *http.Request) map[string]any {
	query := make(map[string]any)
	for key, vals := range r.URL.Query() {
		query[key] = flatten(vals)
	}
	return query
}

func flatten(vals []string) any {
	if len(vals) == 1 {
		return vals[0]
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	return r.ContentLength != 0
}

// decodeBody reads the body into generic values. Form bodies become a map of
// field name to value; everything else goes through the matching Decoder.
func decodeBody(r *http.Request, codecs *codecRegistry) (any, error) {
	if !hasBody(r) {
		return nil, nil
	}

	ct := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(ct)

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, &bindError{err: err}
		}
		return formValues(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, &bindError{err: err}
		}
		body := formValues(r.MultipartForm.Value)
		for name, files := range r.MultipartForm.File {
			if len(files) == 1 {
				body[name] = files[0]
				continue
			}
			list := make([]any, len(files))
			for i, f := range files {
				list[i] = f
			}
			body[name] = list
		}
		return body, nil
	}

	dec, ok := codecs.decoderFor(ct)
	if !ok {
		return nil, Errorf(http.StatusUnsupportedMediaType,
			"unsupported content type %q, expected one of %s", ct, strings.Join(codecs.contentTypes(), ", "))
	}

	var body any
	if err := dec.Decode(r.Body, &body); err != nil {
		return nil, &bindError{err: err}
	}
	return body, nil
}

func formValues(form map[string][]string) map[string]any {
	out := make(map[string]any, len(form))
	for key, vals := range form {
		out[key] = flatten(vals)
	}
	return out
}

// Value resolves a dotted path against the request. The first segment
// selects the source: body, params, query, headers, method or path. Slice
// elements are addressed by a numeric segment or a bracketed index, so
// "body.items.0.id" and "body.items[0].id" are the same path. Keys that
// themselves contain dots or brackets cannot be addressed. An empty path
// returns the whole view. Missing segments yield nil.
//
//	r.Value("body.user.name")
//	r.Value("query.tags[0]")
func (r *Request) Value(path string) any {
	return lookupPath(r.view(), path)
}

func (r *Request) view() map[string]any {
	headers := make(map[string]any, len(r.Header))
	for key, vals := range r.Header {
		headers[strings.ToLower(key)] = flatten(vals)
	}
	return map[string]any{
		"body":    r.Body,
		"params":  r.Params,
		"query":   r.Query,
		"headers": headers,
		"method":  r.Method,
		"path":    r.URL.Path,
	}
}

// indexBrackets rewrites a[0].b to a.0.b.
var indexBrackets = strings.NewReplacer("[", ".", "]", "")

// lookupPath walks v along a dotted path. Map keys are matched exactly and
// numeric segments index into slices; a[0] is accepted for a.0.
func lookupPath(v any, path string) any {
	if path == "" {
		return v
	}
	if strings.Contains(path, "[") {
		path = strings.TrimPrefix(indexBrackets.Replace(path), ".")
	}
	for seg := range strings.SplitSeq(path, ".") {
		switch cur := v.(type) {
		case map[string]any:
			next, ok := cur[seg]
			if !ok {
				return nil
			}
			v = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur) {
				return nil
			}
			v = cur[i]
		default:
			return nil
		}
	}
	return v
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
}

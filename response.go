package xroute

import (
	"encoding/json"
	"errors"
	"net/http"
)

// defaultResponseHandler writes handler results: nil as 204, strings as
// text/plain, byte slices raw, and everything else through the encoder
// negotiated from the Accept header.
func defaultResponseHandler(codecs *codecRegistry) ResponseHandler {
	return func(w http.ResponseWriter, r *Request, data any) {
		if data == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Apply cookies and headers before writing status.
		if cs, ok := data.(CookieSetter); ok {
			for _, c := range cs.Cookies() {
				http.SetCookie(w, c)
			}
		}
		if hs, ok := data.(HeaderSetter); ok {
			hs.SetHeaders(w.Header())
		}

		status := http.StatusOK
		if sc, ok := data.(StatusCoder); ok && validStatus(sc.StatusCode()) {
			status = sc.StatusCode()
		}

		switch v := data.(type) {
		case string:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(status)
			//nolint:errcheck,gosec // best-effort after WriteHeader
			w.Write([]byte(v))
			return
		case []byte:
			if w.Header().Get("Content-Type") == "" {
				w.Header().Set("Content-Type", "application/octet-stream")
			}
			w.WriteHeader(status)
			//nolint:errcheck,gosec // best-effort after WriteHeader
			w.Write(v)
			return
		}

		encode(w, r, codecs, status, data)
	}
}

// defaultErrorHandler writes failures with the status from ErrorStatus. An
// *HTTPError in the chain is written as-is; errors that marshal themselves
// are written through their own encoding; anything else becomes an
// HTTPError carrying the error text.
func defaultErrorHandler(codecs *codecRegistry) ErrorHandler {
	return func(w http.ResponseWriter, r *Request, err error) {
		status := ErrorStatus(err)

		var body any
		var he *HTTPError
		var jm json.Marshaler
		switch {
		case errors.As(err, &he):
			body = he
			if he.Code != status {
				body = &HTTPError{Code: status, Message: he.Message}
			}
		case errors.As(err, &jm):
			body = jm
		default:
			body = &HTTPError{Code: status, Message: err.Error()}
		}

		encode(w, r, codecs, status, body)
	}
}

// encode writes v with the negotiated encoder, falling back to JSON when the
// Accept header matches nothing.
func encode(w http.ResponseWriter, r *Request, codecs *codecRegistry, status int, v any) {
	enc, ok := codecs.negotiate(r.Header.Get("Accept"))
	if !ok {
		enc = codecs.encoders[0]
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	enc.Encode(w, v)
}

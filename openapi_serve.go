package xroute

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// WriteJSON writes the document as indented JSON to w.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteYAML writes the document as YAML to w. The document is serialized
// through its JSON form so that field names and extensions match WriteJSON.
func (d *Document) WriteYAML(w io.Writer) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	return yamlCodec{}.Encode(w, generic)
}

// ServeSpec registers a GET handler at pattern that serves doc as JSON.
// The document is rendered per request, so routers added later appear.
func (s *Server) ServeSpec(pattern string, doc *Document) {
	s.Handle(http.MethodGet, pattern, specHandler("application/json", doc.WriteJSON))
}

// ServeSpecYAML registers a GET handler at pattern that serves doc as YAML.
func (s *Server) ServeSpecYAML(pattern string, doc *Document) {
	s.Handle(http.MethodGet, pattern, specHandler("application/yaml", doc.WriteYAML))
}

func specHandler(contentType string, write func(io.Writer) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		if err := write(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		buf.WriteTo(w)
	})
}


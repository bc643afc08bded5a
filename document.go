package xroute

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Document is an OpenAPI 3.0 document assembled from mounted routers.
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []ServerSpec        `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components         `json:"components,omitempty"`

	registry *Registry
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithTitle sets the document title. Defaults to "API".
func WithTitle(title string) DocumentOption {
	return func(d *Document) {
		d.Info.Title = title
	}
}

// WithVersion sets the document version. Defaults to "1.0.0".
func WithVersion(version string) DocumentOption {
	return func(d *Document) {
		d.Info.Version = version
	}
}

// WithDocDescription sets the document description.
func WithDocDescription(desc string) DocumentOption {
	return func(d *Document) {
		d.Info.Description = desc
	}
}

// WithServers appends entries to the servers list.
func WithServers(urls ...string) DocumentOption {
	return func(d *Document) {
		for _, u := range urls {
			d.Servers = append(d.Servers, ServerSpec{URL: u})
		}
	}
}

// WithComponents sets the component registry the document serializes.
// Several documents may share one registry.
func WithComponents(c *Components) DocumentOption {
	return func(d *Document) {
		d.Components = c
	}
}

// WithDocRegistry sets the registry endpoints are read from.
// Defaults to DefaultRegistry.
func WithDocRegistry(reg *Registry) DocumentOption {
	return func(d *Document) {
		d.registry = reg
	}
}

// NewDocument creates an empty document.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		OpenAPI:  "3.0.0",
		Info:     Info{Title: "API", Version: "1.0.0"},
		Paths:    make(map[string]PathItem),
		registry: DefaultRegistry,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DocumentProcessor is implemented by routers that post-process the
// operations they contribute. ProcessDocument runs once per endpoint after
// the operation has been merged and normalized.
type DocumentProcessor interface {
	ProcessDocument(ep *Endpoint, op *Operation)
}

type addConfig struct {
	defaults *Operation
	prefix   *string
}

// AddOption configures a single AddRouter call.
type AddOption func(*addConfig)

// WithDefaults sets the operation every endpoint's document is merged onto.
// Scalar defaults such as Summary or Deprecated cannot be cleared by an
// endpoint, so keep them out of defaults unless every operation shares them.
func WithDefaults(op *Operation) AddOption {
	return func(c *addConfig) {
		c.defaults = op
	}
}

// WithPrefix sets the path prefix, overriding the router's Path.
func WithPrefix(prefix string) AddOption {
	return func(c *addConfig) {
		c.prefix = &prefix
	}
}

var pathParam = regexp.MustCompile(`:(\w+)`)

// AddRouter adds an operation for every endpoint declared on owner's type.
// Operations are built as defaults, then the router's Doc, then the
// endpoint's own document, with later fields winning. Adding the same
// router twice yields the same paths.
func (d *Document) AddRouter(owner Routable, opts ...AddOption) error {
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	t := ownerType(owner)
	if err := d.registry.Settle(t); err != nil {
		return err
	}

	rt := owner.router()
	prefix := rt.Path
	if cfg.prefix != nil {
		prefix = *cfg.prefix
	}

	proc, _ := owner.(DocumentProcessor)

	for _, ep := range d.registry.Endpoints(t) {
		path, params := openAPIPath(prefix, ep.Pattern)

		op := cfg.defaults.Clone()
		op.merge(rt.Doc)
		op.merge(&ep.Doc)
		normalize(op, params)

		if proc != nil {
			proc.ProcessDocument(ep, op)
		}

		item, ok := d.Paths[path]
		if !ok {
			item = make(PathItem)
			d.Paths[path] = item
		}
		item[strings.ToLower(string(ep.Method))] = op
	}
	return nil
}

// LoadDir discovers routers in dir and adds each at its discovered path, in
// discovery order. Deferred updates for every type are settled first.
func (d *Document) LoadDir(ctx context.Context, loader Loader, dir string, opts ...AddOption) error {
	if err := d.registry.SettleAll(); err != nil {
		return err
	}
	found, err := loader.Load(ctx, dir)
	if err != nil {
		return err
	}
	for _, r := range found {
		all := append([]AddOption{WithPrefix(r.Path)}, opts...)
		if err := d.AddRouter(r.Router, all...); err != nil {
			return fmt.Errorf("add %s: %w", r.Source, err)
		}
	}
	return nil
}

// openAPIPath joins prefix and pattern, collapses repeated slashes and
// rewrites :name placeholders as {name}. It returns the placeholder names
// in order of first appearance.
func openAPIPath(prefix, pattern string) (string, []string) {
	path := prefix + "/" + pattern
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	var names []string
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	path = pathParam.ReplaceAllString(path, "{$1}")
	return path, names
}

// normalize fills the fields every emitted operation must carry: at least
// one response, a description on every response and a path parameter
// entry for every placeholder.
func normalize(op *Operation, params []string) {
	if len(op.Responses) == 0 {
		op.Responses = Responses{"200": &Response{}}
	}
	for code, resp := range op.Responses {
		if resp == nil {
			op.Responses[code] = &Response{}
		}
	}

	for _, name := range params {
		if hasParameter(op.Parameters, name, "path") {
			continue
		}
		op.Parameters = append(op.Parameters, Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &JSONSchema{Type: "string"},
		})
	}
}

func hasParameter(params []Parameter, name, in string) bool {
	for _, p := range params {
		if p.Name == name && p.In == in {
			return true
		}
	}
	return false
}

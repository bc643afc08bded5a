package xroute

import (
	"encoding/json"
	"sync"
)

// Components holds reusable document objects. One Components value may be
// shared by several documents; it is safe for concurrent use.
type Components struct {
	mu sync.RWMutex

	Schemas         map[string]*JSONSchema
	SecuritySchemes map[string]*SecurityScheme
	Parameters      map[string]*Parameter
	RequestBodies   map[string]*RequestBody
	Responses       map[string]*Response
	Headers         map[string]*ResponseHeader
	Examples        map[string]any
	Links           map[string]any
	Callbacks       map[string]any
}

// NewComponents returns an empty component registry.
func NewComponents() *Components {
	return &Components{}
}

// AddSchema registers schema under name, replacing any previous entry.
func (c *Components) AddSchema(name string, schema *JSONSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Schemas == nil {
		c.Schemas = make(map[string]*JSONSchema)
	}
	c.Schemas[name] = schema
}

// AddSchemaFor registers the schema of Go type T under name and returns a
// reference to it.
func AddSchemaFor[T any](c *Components, name string) *JSONSchema {
	c.AddSchema(name, SchemaFor[T]())
	return SchemaRef(name)
}

// Schema returns the schema registered under name.
func (c *Components) Schema(name string) (*JSONSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.Schemas[name]
	return s, ok
}

// AddSecurityScheme registers a security scheme under name.
func (c *Components) AddSecurityScheme(name string, scheme *SecurityScheme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SecuritySchemes == nil {
		c.SecuritySchemes = make(map[string]*SecurityScheme)
	}
	c.SecuritySchemes[name] = scheme
}

// AddResponse registers a reusable response under name.
func (c *Components) AddResponse(name string, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Responses == nil {
		c.Responses = make(map[string]*Response)
	}
	c.Responses[name] = resp
}

// SchemaRef returns a schema that references the named component schema.
func SchemaRef(name string) *JSONSchema {
	return &JSONSchema{Ref: "#/components/schemas/" + name}
}

// MarshalJSON serializes the components under the read lock.
func (c *Components) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return json.Marshal(struct {
		Schemas         map[string]*JSONSchema     `json:"schemas,omitempty"`
		SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
		Parameters      map[string]*Parameter      `json:"parameters,omitempty"`
		RequestBodies   map[string]*RequestBody    `json:"requestBodies,omitempty"`
		Responses       map[string]*Response       `json:"responses,omitempty"`
		Headers         map[string]*ResponseHeader `json:"headers,omitempty"`
		Examples        map[string]any             `json:"examples,omitempty"`
		Links           map[string]any             `json:"links,omitempty"`
		Callbacks       map[string]any             `json:"callbacks,omitempty"`
	}{
		Schemas:         c.Schemas,
		SecuritySchemes: c.SecuritySchemes,
		Parameters:      c.Parameters,
		RequestBodies:   c.RequestBodies,
		Responses:       c.Responses,
		Headers:         c.Headers,
		Examples:        c.Examples,
		Links:           c.Links,
		Callbacks:       c.Callbacks,
	})
}

package xroute

import (
	"net/http"
	"strconv"
)

// SetDoc overwrites the field at the dotted path of the endpoint's
// document. Typed fields (summary, tags, parameters, responses.<code> and so
// on) require values of their Go type; any other path is stored as an
// extension, creating intermediate objects as needed.
//
//	xroute.SetDoc("responses.200.content.application/json", xroute.SchemaRef("User"))
//	xroute.SetDoc("x-internal", true)
//
// A value of the wrong type fails the enclosing Define.
func SetDoc(path string, value any) Option {
	return func(e *Endpoint) {
		if err := e.Doc.set(path, value); err != nil {
			e.addErr(err)
		}
	}
}

// PushDoc appends values to the list at the dotted path of the endpoint's
// document, creating the list when absent.
//
//	xroute.PushDoc("parameters", xroute.Parameter{Name: "text", In: "query"})
func PushDoc(path string, values ...any) Option {
	return func(e *Endpoint) {
		if err := e.Doc.push(path, values...); err != nil {
			e.addErr(err)
		}
	}
}

// UpdateDocument runs fn against the endpoint's document.
func UpdateDocument(fn func(op *Operation)) Option {
	return func(e *Endpoint) {
		fn(&e.Doc)
	}
}

// WithSummary sets the operation summary.
func WithSummary(s string) Option {
	return func(e *Endpoint) {
		e.Doc.Summary = s
	}
}

// WithDescription sets the operation description.
func WithDescription(d string) Option {
	return func(e *Endpoint) {
		e.Doc.Description = d
	}
}

// WithTags adds tags to the operation.
func WithTags(tags ...string) Option {
	return func(e *Endpoint) {
		e.Doc.Tags = append(e.Doc.Tags, tags...)
	}
}

// WithOperationID sets the operationId.
func WithOperationID(id string) Option {
	return func(e *Endpoint) {
		e.Doc.OperationID = id
	}
}

// WithDeprecated marks the operation as deprecated.
func WithDeprecated() Option {
	return func(e *Endpoint) {
		e.Doc.Deprecated = true
	}
}

// WithParameter adds a parameter. A parameter with the same name and
// location replaces the earlier one.
func WithParameter(p Parameter) Option {
	return func(e *Endpoint) {
		for i, existing := range e.Doc.Parameters {
			if existing.Name == p.Name && existing.In == p.In {
				e.Doc.Parameters[i] = p
				return
			}
		}
		e.Doc.Parameters = append(e.Doc.Parameters, p)
	}
}

// WithQueryParam documents a string query parameter.
func WithQueryParam(name, description string, required bool) Option {
	return WithParameter(Parameter{
		Name:        name,
		In:          "query",
		Description: description,
		Required:    required,
		Schema:      &JSONSchema{Type: "string"},
	})
}

// WithSecurity requires the named security scheme with the given scopes.
func WithSecurity(scheme string, scopes ...string) Option {
	if scopes == nil {
		scopes = []string{}
	}
	return func(e *Endpoint) {
		e.Doc.Security = append(e.Doc.Security, SecurityRequirement{scheme: scopes})
	}
}

// WithNoSecurity clears security requirements inherited from defaults.
func WithNoSecurity() Option {
	return func(e *Endpoint) {
		e.Doc.Security = []SecurityRequirement{}
	}
}

// WithResponse documents a response without content.
func WithResponse(status int, description string) Option {
	return func(e *Endpoint) {
		e.response(status).Description = description
	}
}

// WithJSONResponse documents a JSON response with the given schema.
func WithJSONResponse(status int, description string, schema *JSONSchema) Option {
	return func(e *Endpoint) {
		resp := e.response(status)
		resp.Description = description
		if resp.Content == nil {
			resp.Content = make(map[string]MediaType)
		}
		resp.Content["application/json"] = MediaType{Schema: schema}
	}
}

// WithErrors documents error responses for the given status codes using
// the HTTPError body.
func WithErrors(codes ...int) Option {
	return func(e *Endpoint) {
		for _, code := range codes {
			resp := e.response(code)
			if resp.Description == "" {
				resp.Description = http.StatusText(code)
			}
			if resp.Content == nil {
				resp.Content = map[string]MediaType{
					"application/json": {Schema: SchemaFor[HTTPError]()},
				}
			}
		}
	}
}

// WithJSONBody documents a JSON request body with the given schema.
func WithJSONBody(schema *JSONSchema, required bool) Option {
	return func(e *Endpoint) {
		e.Doc.RequestBody = &RequestBody{
			Required: required,
			Content: map[string]MediaType{
				"application/json": {Schema: schema},
			},
		}
	}
}

// WithExtension sets a vendor extension on the operation. The key should
// start with "x-".
func WithExtension(key string, value any) Option {
	return func(e *Endpoint) {
		if e.Doc.Extensions == nil {
			e.Doc.Extensions = make(map[string]any)
		}
		e.Doc.Extensions[key] = value
	}
}

// response returns the documented response for status, creating it.
func (e *Endpoint) response(status int) *Response {
	code := strconv.Itoa(status)
	if e.Doc.Responses == nil {
		e.Doc.Responses = make(Responses)
	}
	resp := e.Doc.Responses[code]
	if resp == nil {
		resp = &Response{}
		e.Doc.Responses[code] = resp
	}
	return resp
}

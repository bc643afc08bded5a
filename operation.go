package xroute

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrDocField is returned when a document mutation targets a field with a
// value of the wrong type, or a path that cannot be addressed.
var ErrDocField = errors.New("invalid document field")

// Operation describes a single API operation on a path. Keys outside the
// typed fields, including "x-" vendor extensions, live in Extensions and are
// inlined when the operation is serialized.
type Operation struct {
	Tags        []string              `json:"tags,omitempty"`
	Summary     string                `json:"summary,omitempty"`
	Description string                `json:"description,omitempty"`
	OperationID string                `json:"operationId,omitempty"`
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   Responses             `json:"responses,omitempty"`
	Deprecated  bool                  `json:"deprecated,omitempty"`
	Security    []SecurityRequirement `json:"security,omitempty"`

	Extensions map[string]any `json:"-"`
}

var operationFields = map[string]bool{
	"tags": true, "summary": true, "description": true, "operationId": true,
	"parameters": true, "requestBody": true, "responses": true,
	"deprecated": true, "security": true,
}

// MarshalJSON inlines Extensions beside the typed fields. Typed fields win
// on key collisions.
func (o Operation) MarshalJSON() ([]byte, error) {
	type plain Operation
	known, err := json.Marshal(plain(o))
	if err != nil || len(o.Extensions) == 0 {
		return known, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range o.Extensions {
		if operationFields[k] {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("extension %q: %w", k, err)
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes the typed fields and collects every other key into
// Extensions.
func (o *Operation) UnmarshalJSON(data []byte) error {
	type plain Operation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		if operationFields[k] {
			continue
		}
		if p.Extensions == nil {
			p.Extensions = make(map[string]any)
		}
		p.Extensions[k] = v
	}

	*o = Operation(p)
	return nil
}

// Clone returns a deep copy of o. A nil receiver yields an empty operation.
func (o *Operation) Clone() *Operation {
	if o == nil {
		return &Operation{}
	}
	c := *o
	c.Tags = slices.Clone(o.Tags)
	if o.Parameters != nil {
		c.Parameters = make([]Parameter, len(o.Parameters))
		for i, p := range o.Parameters {
			c.Parameters[i] = p.clone()
		}
	}
	c.RequestBody = o.RequestBody.clone()
	if o.Responses != nil {
		c.Responses = make(Responses, len(o.Responses))
		for code, r := range o.Responses {
			c.Responses[code] = r.clone()
		}
	}
	if o.Security != nil {
		c.Security = make([]SecurityRequirement, len(o.Security))
		for i, req := range o.Security {
			c.Security[i] = req.clone()
		}
	}
	if o.Extensions != nil {
		c.Extensions = cloneValue(o.Extensions).(map[string]any)
	}
	return &c
}

// merge copies every field set on src over o. Extensions merge per key.
// A zero value means unset: an empty Summary or Description, or a false
// Deprecated, never overrides o. Slices and maps that are empty but non-nil
// do override, which is how WithNoSecurity clears inherited requirements.
func (o *Operation) merge(src *Operation) {
	if src == nil {
		return
	}
	src = src.Clone()
	if src.Tags != nil {
		o.Tags = src.Tags
	}
	if src.Summary != "" {
		o.Summary = src.Summary
	}
	if src.Description != "" {
		o.Description = src.Description
	}
	if src.OperationID != "" {
		o.OperationID = src.OperationID
	}
	if src.Parameters != nil {
		o.Parameters = src.Parameters
	}
	if src.RequestBody != nil {
		o.RequestBody = src.RequestBody
	}
	if src.Responses != nil {
		o.Responses = src.Responses
	}
	if src.Deprecated {
		o.Deprecated = true
	}
	if src.Security != nil {
		o.Security = src.Security
	}
	if len(src.Extensions) > 0 {
		if o.Extensions == nil {
			o.Extensions = make(map[string]any, len(src.Extensions))
		}
		maps.Copy(o.Extensions, src.Extensions)
	}
}

// set overwrites the field at the dotted path with v.
func (o *Operation) set(path string, v any) error {
	head, rest, _ := strings.Cut(path, ".")
	if rest != "" && operationFields[head] && head != "responses" {
		return fmt.Errorf("%w: %q is not addressable", ErrDocField, path)
	}

	var ok bool
	switch head {
	case "summary":
		o.Summary, ok = v.(string)
	case "description":
		o.Description, ok = v.(string)
	case "operationId":
		o.OperationID, ok = v.(string)
	case "deprecated":
		o.Deprecated, ok = v.(bool)
	case "tags":
		o.Tags, ok = v.([]string)
	case "parameters":
		o.Parameters, ok = v.([]Parameter)
	case "security":
		o.Security, ok = v.([]SecurityRequirement)
	case "requestBody":
		o.RequestBody, ok = asRequestBody(v)
	case "responses":
		if rest != "" {
			return o.setResponse(path, rest, v)
		}
		o.Responses, ok = v.(Responses)
	default:
		if o.Extensions == nil {
			o.Extensions = make(map[string]any)
		}
		return setNested(o.Extensions, path, v)
	}

	if !ok {
		return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
	}
	return nil
}

// setResponse handles responses.<code>[.description|.content.<media>].
func (o *Operation) setResponse(path, rest string, v any) error {
	code, field, _ := strings.Cut(rest, ".")
	if o.Responses == nil {
		o.Responses = make(Responses)
	}

	if field == "" {
		resp, ok := asResponse(v)
		if !ok {
			return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
		}
		o.Responses[code] = resp
		return nil
	}

	resp := o.Responses[code]
	if resp == nil {
		resp = &Response{}
		o.Responses[code] = resp
	}

	name, media, _ := strings.Cut(field, ".")
	switch {
	case name == "description" && media == "":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
		}
		resp.Description = s
	case name == "content" && media != "":
		mt, ok := asMediaType(v)
		if !ok {
			return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
		}
		if resp.Content == nil {
			resp.Content = make(map[string]MediaType)
		}
		resp.Content[media] = mt
	default:
		return fmt.Errorf("%w: %q is not addressable", ErrDocField, path)
	}
	return nil
}

// push appends values to the list at the dotted path, creating it if absent.
func (o *Operation) push(path string, values ...any) error {
	switch path {
	case "tags":
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
			}
			o.Tags = append(o.Tags, s)
		}
	case "parameters":
		for _, v := range values {
			p, ok := asParameter(v)
			if !ok {
				return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
			}
			o.Parameters = append(o.Parameters, p)
		}
	case "security":
		for _, v := range values {
			req, ok := asSecurityRequirement(v)
			if !ok {
				return fmt.Errorf("%w: %q cannot hold %T", ErrDocField, path, v)
			}
			o.Security = append(o.Security, req)
		}
	default:
		head, _, _ := strings.Cut(path, ".")
		if operationFields[head] {
			return fmt.Errorf("%w: %q is not a list", ErrDocField, path)
		}
		if o.Extensions == nil {
			o.Extensions = make(map[string]any)
		}
		return pushNested(o.Extensions, path, values)
	}
	return nil
}

func asRequestBody(v any) (*RequestBody, bool) {
	switch b := v.(type) {
	case *RequestBody:
		return b, true
	case RequestBody:
		return &b, true
	}
	return nil, false
}

func asResponse(v any) (*Response, bool) {
	switch r := v.(type) {
	case *Response:
		if r == nil {
			return &Response{}, true
		}
		return r, true
	case Response:
		return &r, true
	}
	return nil, false
}

func asMediaType(v any) (MediaType, bool) {
	switch m := v.(type) {
	case MediaType:
		return m, true
	case *JSONSchema:
		return MediaType{Schema: m}, true
	case JSONSchema:
		return MediaType{Schema: &m}, true
	}
	return MediaType{}, false
}

func asParameter(v any) (Parameter, bool) {
	switch p := v.(type) {
	case Parameter:
		return p, true
	case *Parameter:
		if p != nil {
			return *p, true
		}
	}
	return Parameter{}, false
}

func asSecurityRequirement(v any) (SecurityRequirement, bool) {
	switch r := v.(type) {
	case SecurityRequirement:
		return r, true
	case map[string][]string:
		return SecurityRequirement(r), true
	}
	return nil, false
}

// setNested writes v at the dotted path inside m, creating intermediate
// maps. A non-map value in the way is an error.
func setNested(m map[string]any, path string, v any) error {
	parent, key, err := walkNested(m, path)
	if err != nil {
		return err
	}
	parent[key] = v
	return nil
}

// pushNested appends values to the list at the dotted path inside m.
func pushNested(m map[string]any, path string, values []any) error {
	parent, key, err := walkNested(m, path)
	if err != nil {
		return err
	}
	switch cur := parent[key].(type) {
	case nil:
		parent[key] = slices.Clone(values)
	case []any:
		parent[key] = append(cur, values...)
	default:
		return fmt.Errorf("%w: %q is not a list", ErrDocField, path)
	}
	return nil
}

func walkNested(m map[string]any, path string) (map[string]any, string, error) {
	segs := strings.Split(path, ".")
	for _, seg := range segs[:len(segs)-1] {
		switch next := m[seg].(type) {
		case nil:
			child := make(map[string]any)
			m[seg] = child
			m = child
		case map[string]any:
			m = next
		default:
			return nil, "", fmt.Errorf("%w: %q crosses a %T", ErrDocField, path, next)
		}
	}
	return m, segs[len(segs)-1], nil
}

func (p Parameter) clone() Parameter {
	p.Schema = p.Schema.Clone()
	p.Example = cloneValue(p.Example)
	return p
}

func (b *RequestBody) clone() *RequestBody {
	if b == nil {
		return nil
	}
	c := *b
	c.Content = cloneContent(b.Content)
	return &c
}

func (r *Response) clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Content = cloneContent(r.Content)
	if r.Headers != nil {
		c.Headers = make(map[string]*ResponseHeader, len(r.Headers))
		for name, h := range r.Headers {
			if h == nil {
				c.Headers[name] = nil
				continue
			}
			hc := *h
			hc.Schema = h.Schema.Clone()
			c.Headers[name] = &hc
		}
	}
	return &c
}

func (req SecurityRequirement) clone() SecurityRequirement {
	if req == nil {
		return nil
	}
	c := make(SecurityRequirement, len(req))
	for name, scopes := range req {
		c[name] = slices.Clone(scopes)
	}
	return c
}

func cloneContent(content map[string]MediaType) map[string]MediaType {
	if content == nil {
		return nil
	}
	c := make(map[string]MediaType, len(content))
	for ct, mt := range content {
		c[ct] = MediaType{Schema: mt.Schema.Clone(), Example: cloneValue(mt.Example)}
	}
	return c
}

// cloneValue deep-copies generic maps and slices. Other values are shared.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, val := range t {
			c[k] = cloneValue(val)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, val := range t {
			c[i] = cloneValue(val)
		}
		return c
	}
	return v
}

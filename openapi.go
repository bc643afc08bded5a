package xroute

// Info holds document metadata.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// ServerSpec is an entry in the document's servers list.
type ServerSpec struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]*Operation

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string      `json:"name"`
	In          string      `json:"in"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Deprecated  bool        `json:"deprecated,omitempty"`
	Schema      *JSONSchema `json:"schema,omitempty"`
	Example     any         `json:"example,omitempty"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Description string               `json:"description,omitempty"`
	Required    bool                 `json:"required,omitempty"`
	Content     map[string]MediaType `json:"content"`
}

// MediaType is a media type object with an optional schema.
type MediaType struct {
	Schema  *JSONSchema `json:"schema,omitempty"`
	Example any         `json:"example,omitempty"`
}

// Responses maps status codes (or "default") to responses.
type Responses map[string]*Response

// Response describes a single response. Description is always serialized.
type Response struct {
	Description string                     `json:"description"`
	Headers     map[string]*ResponseHeader `json:"headers,omitempty"`
	Content     map[string]MediaType       `json:"content,omitempty"`
}

// ResponseHeader describes a response header.
type ResponseHeader struct {
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Schema      *JSONSchema `json:"schema,omitempty"`
}

// SecurityRequirement maps a security scheme name to its required scopes.
type SecurityRequirement map[string][]string

// SecurityScheme describes an authentication scheme in components.
type SecurityScheme struct {
	Type         string `json:"type"`
	Description  string `json:"description,omitempty"`
	Name         string `json:"name,omitempty"`
	In           string `json:"in,omitempty"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

// BearerAuth returns an HTTP bearer security scheme.
func BearerAuth(format string) *SecurityScheme {
	return &SecurityScheme{Type: "http", Scheme: "bearer", BearerFormat: format}
}

// APIKeyAuth returns an API key security scheme read from the named header,
// query parameter or cookie.
func APIKeyAuth(name, in string) *SecurityScheme {
	return &SecurityScheme{Type: "apiKey", Name: name, In: in}
}

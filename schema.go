package xroute

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"
)

// JSONSchema represents a JSON Schema object (the OpenAPI 3.0 subset).
type JSONSchema struct {
	Type        string                `json:"type,omitempty"`
	Format      string                `json:"format,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Description string                `json:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty"`
	Nullable    bool                  `json:"nullable,omitempty"`
	Example     any                   `json:"example,omitempty"`
	Ref         string                `json:"$ref,omitempty"`

	// AdditionalProperties can be true (any) or a schema.
	AdditionalProperties *JSONSchema `json:"additionalProperties,omitempty"`
}

// Clone returns a deep copy of s. A nil receiver yields nil.
func (s *JSONSchema) Clone() *JSONSchema {
	if s == nil {
		return nil
	}
	c := *s
	if s.Properties != nil {
		c.Properties = make(map[string]JSONSchema, len(s.Properties))
		for name, p := range s.Properties {
			c.Properties[name] = *p.Clone()
		}
	}
	c.Items = s.Items.Clone()
	c.AdditionalProperties = s.AdditionalProperties.Clone()
	c.Required = slices.Clone(s.Required)
	c.Enum = slices.Clone(s.Enum)
	c.Example = cloneValue(s.Example)
	return &c
}

// SchemaFor returns the schema of Go type T.
func SchemaFor[T any]() *JSONSchema {
	s := typeToSchema(reflect.TypeFor[T](), nil)
	return &s
}

// typeToSchema converts a reflect.Type to a JSONSchema. seen guards against
// recursive types: a type already being expanded becomes a plain object.
func typeToSchema(t reflect.Type, seen map[reflect.Type]bool) JSONSchema {
	// Unwrap pointer.
	if t.Kind() == reflect.Pointer {
		return typeToSchema(t.Elem(), seen)
	}

	// Handle well-known types.
	switch t {
	case reflect.TypeFor[time.Time]():
		return JSONSchema{Type: "string", Format: "date-time"}
	case reflect.TypeFor[time.Duration]():
		return JSONSchema{Type: "string", Format: "duration"}
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return JSONSchema{Type: "string"}
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Int32, reflect.Uint32:
		return JSONSchema{Type: "integer", Format: "int32"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64:
		return JSONSchema{Type: "integer"}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint64:
		return JSONSchema{Type: "integer"}
	case reflect.Float32:
		return JSONSchema{Type: "number", Format: "float"}
	case reflect.Float64:
		return JSONSchema{Type: "number"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return JSONSchema{Type: "string", Format: "byte"}
		}
		items := typeToSchema(t.Elem(), seen)
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Array:
		items := typeToSchema(t.Elem(), seen)
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return JSONSchema{Type: "object"}
		}
		valSchema := typeToSchema(t.Elem(), seen)
		return JSONSchema{Type: "object", AdditionalProperties: &valSchema}
	case reflect.Struct:
		if seen[t] {
			return JSONSchema{Type: "object"}
		}
		next := maps.Clone(seen)
		if next == nil {
			next = make(map[reflect.Type]bool)
		}
		next[t] = true
		return structToSchema(t, next)
	default:
		return JSONSchema{}
	}
}

// structToSchema converts a struct type to a JSONSchema with properties.
// Embedded structs without a json name are flattened into the parent.
func structToSchema(t reflect.Type, seen map[reflect.Type]bool) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema),
	}

	for i := range t.NumField() {
		f := t.Field(i)

		if f.Anonymous && f.Tag.Get("json") == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				embedded := typeToSchema(ft, seen)
				maps.Copy(schema.Properties, embedded.Properties)
				schema.Required = append(schema.Required, embedded.Required...)
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		name, omitempty := jsonFieldName(f)
		if name == "-" {
			continue
		}

		prop := typeToSchema(f.Type, seen)

		if doc := f.Tag.Get("doc"); doc != "" {
			prop.Description = doc
		}
		if enum := f.Tag.Get("enum"); enum != "" {
			prop.Enum = strings.Split(enum, ",")
		}
		if f.Type.Kind() == reflect.Pointer {
			prop.Nullable = true
		}

		schema.Properties[name] = prop

		switch f.Tag.Get("required") {
		case "true":
			schema.Required = append(schema.Required, name)
		case "":
			if !omitempty && f.Type.Kind() != reflect.Pointer {
				schema.Required = append(schema.Required, name)
			}
		}
	}

	return schema
}

// jsonFieldName returns the JSON field name for a struct field and whether
// it is tagged omitempty.
func jsonFieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	omitempty := slices.Contains(strings.Split(opts, ","), "omitempty")
	if name == "" {
		return f.Name, omitempty
	}
	return name, omitempty
}

package xroute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrInvalidDocument is returned by Validate when the document does not
// conform to OpenAPI 3.0.
var ErrInvalidDocument = errors.New("invalid document")

// Validate checks the serialized document against the OpenAPI 3.0 rules:
// required fields, path templates matching declared path parameters, unique
// operation IDs and resolvable component references.
func (d *Document) Validate(ctx context.Context) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := spec.Validate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

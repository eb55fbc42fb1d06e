package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/titrate/api"
	"github.com/getkin/kin-openapi/openapi3"
)

// ErrInvalidRequest is returned for bodies that are not JSON or do not match
// the published schema.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError carries the schema failure for the response body.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidRequest, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRequest, e.Field, e.Reason)
}

func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

// Validator checks request bodies against the embedded OpenAPI document.
type Validator struct {
	doc      *openapi3.T
	evaluate *openapi3.Schema
}

// New loads and validates the embedded document.
func New() (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(api.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}

	ref, ok := doc.Components.Schemas["EvaluateRequest"]
	if !ok || ref.Value == nil {
		return nil, errors.New("OpenAPI spec has no EvaluateRequest schema")
	}
	return &Validator{doc: doc, evaluate: ref.Value}, nil
}

// Version is the API version from the document info block.
func (v *Validator) Version() string {
	if v.doc.Info == nil {
		return "unknown"
	}
	return v.doc.Info.Version
}

// ValidateEvaluate checks a raw /evaluate body.
func (v *Validator) ValidateEvaluate(raw []byte) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return &RequestError{Reason: "body is not valid JSON"}
	}
	if err := v.evaluate.VisitJSON(value); err != nil {
		return schemaError(err)
	}
	return nil
}

func schemaError(err error) error {
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		field := ""
		for i, p := range se.JSONPointer() {
			if i > 0 {
				field += "."
			}
			field += p
		}
		return &RequestError{Field: field, Reason: se.Reason}
	}
	return &RequestError{Reason: err.Error()}
}

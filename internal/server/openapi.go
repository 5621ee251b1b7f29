package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiDocument []byte

// OpenAPIDocument returns the embedded API description.
func OpenAPIDocument() []byte {
	return append([]byte(nil), openapiDocument...)
}

// LoadSpec parses and validates the embedded API description.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(openapiDocument)
	if err != nil {
		return nil, fmt.Errorf("server: load openapi: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("server: validate openapi: %w", err)
	}
	return spec, nil
}

// bodySchemas indexes JSON request body schemas by "METHOD /path", using
// the document's {param} path syntax.
type bodySchemas map[string]*openapi3.Schema

func newBodySchemas(spec *openapi3.T) bodySchemas {
	out := bodySchemas{}
	if spec == nil || spec.Paths == nil {
		return out
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
				continue
			}
			media := op.RequestBody.Value.Content.Get("application/json")
			if media == nil || media.Schema == nil || media.Schema.Value == nil {
				continue
			}
			out[strings.ToUpper(method)+" "+path] = media.Schema.Value
		}
	}
	return out
}

var errInvalidBody = errors.New("invalid request body")

// validate checks raw against the schema registered for method and the gin
// route template. Routes without a schema pass.
func (b bodySchemas) validate(method, route string, raw []byte) error {
	schema, ok := b[strings.ToUpper(method)+" "+specPath(route)]
	if !ok {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := schema.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// specPath rewrites gin's /a/:id into /a/{id}.
func specPath(route string) string {
	segments := strings.Split(route, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

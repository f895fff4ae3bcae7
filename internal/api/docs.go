// Package api carries the service's OpenAPI document. The document is
// embedded so the binary serves its own contract; Load validates it at
// startup so a drifted document fails fast instead of shipping.
package api

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("API document is invalid: %w", err)
	}
	return doc, nil
}

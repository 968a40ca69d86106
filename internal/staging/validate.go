package staging

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ariel-frischer/openapi-diagram/internal/specdoc"
)

func newLoader() *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	return loader
}

// Validate checks that the staged document is a valid OpenAPI 3.0 document.
// External references are not followed.
func (s *Staged) Validate(ctx context.Context) error {
	loader := newLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(s.Path)
	if err != nil {
		return fmt.Errorf("invalid OpenAPI specification: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI specification: %w", err)
	}
	return nil
}

// Operations lists the operations of doc, one per diagram the renderer
// produces in split mode. An operation is named by its operationId, or by
// "METHOD /path" when it has none. The result is sorted.
func Operations(doc *specdoc.Document) ([]string, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}

	api, err := newLoader().LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("loading specification: %w", err)
	}
	if api.Paths == nil {
		return nil, nil
	}

	var ops []string
	for path, item := range api.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID != "" {
				ops = append(ops, op.OperationID)
				continue
			}
			ops = append(ops, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(ops)
	return ops, nil
}

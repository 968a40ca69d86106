package specdoc

import "strings"

const (
	// TargetVersion is the openapi version written by Normalize.
	TargetVersion = "3.0.3"
	// SourceVersionPrefix selects documents that Normalize must rewrite.
	SourceVersionPrefix = "3.1"
)

const (
	keyOpenAPI  = "openapi"
	keyAnyOf    = "anyOf"
	keyType     = "type"
	keyNullable = "nullable"
	keyExamples = "examples"
	keyExample  = "example"
	nullType    = "null"
)

// NeedsNormalization reports whether doc is written in the 3.1 dialect.
func NeedsNormalization(doc *Document) bool {
	return strings.HasPrefix(doc.Version(), SourceVersionPrefix)
}

// Normalize rewrites doc in place from OpenAPI 3.1 to OpenAPI 3.0.3:
//
//   - the top-level openapi field is set to TargetVersion
//   - an anyOf entry {"type": "null"} is dropped and "nullable": true set on
//     the schema holding the anyOf
//   - an examples list is replaced by "example" holding its first element
//
// Only the first null entry of an anyOf list is removed per call, so a list
// holding several null entries keeps changing on repeated calls. Otherwise
// Normalize is idempotent. It never fails.
func Normalize(doc *Document) {
	if doc == nil {
		return
	}
	if doc.Root == nil {
		doc.Root = NewMapping()
	}
	if root, ok := doc.Root.(*Mapping); ok {
		root.Set(keyOpenAPI, String(TargetVersion))
	}

	Walk(doc.Root, normalizeMapping)
}

func normalizeMapping(m *Mapping) {
	dropNullFromAnyOf(m)
	collapseExamples(m)
}

func dropNullFromAnyOf(m *Mapping) {
	v, ok := m.Get(keyAnyOf)
	if !ok {
		return
	}
	anyOf, ok := v.(*Sequence)
	if !ok {
		return
	}
	for i, item := range anyOf.Items {
		if isNullType(item) {
			anyOf.RemoveAt(i)
			m.Set(keyNullable, Bool(true))
			return
		}
	}
}

func isNullType(n Node) bool {
	schema, ok := n.(*Mapping)
	if !ok {
		return false
	}
	t, ok := schema.Get(keyType)
	if !ok {
		return false
	}
	s, ok := StringValue(t)
	return ok && s == nullType
}

// collapseExamples removes the examples key. A non-empty list leaves its
// first element behind as example.
func collapseExamples(m *Mapping) {
	v, ok := m.Get(keyExamples)
	if !ok {
		return
	}
	m.Delete(keyExamples)
	if list, ok := v.(*Sequence); ok && list.Len() > 0 {
		m.Set(keyExample, list.Items[0])
	}
}

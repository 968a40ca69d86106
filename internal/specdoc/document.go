// Package specdoc holds parsed OpenAPI documents as an ordered tree of
// mappings, sequences and scalars, and rewrites OpenAPI 3.1 documents into the
// OpenAPI 3.0 dialect understood by openapi-to-plantuml.
//
// Documents are parsed from JSON or YAML and always serialized as JSON. Key
// order is kept from the source, so a JSON file and a YAML file with the same
// content serialize to identical bytes.
package specdoc

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the encoding of a specification file.
type Format int

const (
	// FormatJSON is a JSON encoded specification.
	FormatJSON Format = iota
	// FormatYAML is a YAML encoded specification.
	FormatYAML
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ErrEmptyDocument is returned when the source holds no document at all.
var ErrEmptyDocument = errors.New("empty document")

// Document is a parsed specification.
type Document struct {
	Root Node
}

// Parse decodes data according to format.
func Parse(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unknown document format %d", format)
	}
}

// Mapping returns the root mapping, if the root is one.
func (d *Document) Mapping() (*Mapping, bool) {
	if d == nil {
		return nil, false
	}
	m, ok := d.Root.(*Mapping)
	return m, ok
}

// Version returns the value of the top-level openapi field, or "" when the
// field is absent. Non-string scalars (an unquoted YAML 3.1) are returned in
// their lexical form.
func (d *Document) Version() string {
	root, ok := d.Mapping()
	if !ok {
		return ""
	}
	v, ok := root.Get("openapi")
	if !ok {
		return ""
	}
	s, ok := v.(*Scalar)
	if !ok || s.IsNull() {
		return ""
	}
	return strings.TrimSpace(s.Value)
}

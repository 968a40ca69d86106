package specdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// jsonNumber matches numbers that can be written to JSON unchanged.
var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// ParseJSON decodes a JSON document, keeping object key order.
func ParseJSON(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeJSONValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON: unexpected data after top-level value")
	}
	return &Document{Root: root}, nil
}

func decodeJSONValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberScalar(string(t)), nil
	case nil:
		return Null(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeJSONObject(dec *json.Decoder) (Node, error) {
	m := NewMapping()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		value, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeJSONArray(dec *json.Decoder) (Node, error) {
	s := NewSequence()
	for dec.More() {
		item, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}

func numberScalar(lexeme string) *Scalar {
	if strings.ContainsAny(lexeme, ".eE") {
		return &Scalar{Type: FloatScalar, Value: lexeme}
	}
	return &Scalar{Type: IntScalar, Value: lexeme}
}

// ParseYAML decodes the first document of a YAML stream, keeping mapping key
// order. Aliases are expanded and merge keys applied.
func ParseYAML(data []byte) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, ErrEmptyDocument
	}

	root, err := fromYAML(&doc)
	if err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &Document{Root: root}, nil
}

func fromYAML(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias %q", n.Line, n.Value)
		}
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		return fromYAMLMapping(n)
	case yaml.SequenceNode:
		s := NewSequence()
		for _, child := range n.Content {
			item, err := fromYAML(child)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, item)
		}
		return s, nil
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func fromYAMLMapping(n *yaml.Node) (Node, error) {
	m := NewMapping()
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind == yaml.AliasNode && keyNode.Alias != nil {
			keyNode = keyNode.Alias
		}

		if keyNode.ShortTag() == "!!merge" {
			if err := mergeInto(m, valueNode); err != nil {
				return nil, err
			}
			continue
		}

		value, err := fromYAML(valueNode)
		if err != nil {
			return nil, err
		}
		m.Set(keyNode.Value, value)
	}
	return m, nil
}

// mergeInto applies a "<<" merge key. Keys already present win.
func mergeInto(m *Mapping, source *yaml.Node) error {
	merged, err := fromYAML(source)
	if err != nil {
		return err
	}

	var sources []*Mapping
	switch v := merged.(type) {
	case *Mapping:
		sources = append(sources, v)
	case *Sequence:
		for _, item := range v.Items {
			if sm, ok := item.(*Mapping); ok {
				sources = append(sources, sm)
			}
		}
	default:
		return fmt.Errorf("line %d: merge value must be a mapping", source.Line)
	}

	for _, src := range sources {
		for _, key := range src.keys {
			if !m.Has(key) {
				m.Set(key, src.values[key])
			}
		}
	}
	return nil
}

func yamlScalar(n *yaml.Node) *Scalar {
	switch n.ShortTag() {
	case "!!null":
		return Null()
	case "!!bool":
		return Bool(strings.EqualFold(n.Value, "true"))
	case "!!int":
		return yamlInt(n.Value)
	case "!!float":
		return yamlFloat(n.Value)
	default:
		return String(n.Value)
	}
}

func yamlInt(value string) *Scalar {
	clean := strings.ReplaceAll(value, "_", "")
	if jsonNumber.MatchString(clean) {
		return &Scalar{Type: IntScalar, Value: clean}
	}
	if i, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return &Scalar{Type: IntScalar, Value: strconv.FormatInt(i, 10)}
	}
	return String(value)
}

func yamlFloat(value string) *Scalar {
	clean := strings.ReplaceAll(value, "_", "")
	if jsonNumber.MatchString(clean) {
		return &Scalar{Type: FloatScalar, Value: clean}
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		// .inf and .nan have no JSON form
		return String(value)
	}
	return &Scalar{Type: FloatScalar, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

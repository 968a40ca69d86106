package specdoc

// Kind identifies the variant of a Node.
type Kind int

const (
	// MappingKind is an ordered string-keyed mapping.
	MappingKind Kind = iota
	// SequenceKind is an ordered list of nodes.
	SequenceKind
	// ScalarKind is a leaf value.
	ScalarKind
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	case ScalarKind:
		return "scalar"
	default:
		return "unknown"
	}
}

// Node is one element of a parsed specification document.
// It is implemented by *Mapping, *Sequence and *Scalar only.
type Node interface {
	Kind() Kind
	node()
}

// Mapping is a mapping with unique string keys that remembers insertion order.
// Order is kept so serialized output is stable for identical input.
type Mapping struct {
	keys   []string
	values map[string]Node
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

func (*Mapping) node() {}

// Kind implements Node.
func (*Mapping) Kind() Kind { return MappingKind }

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (m *Mapping) Set(key string, value Node) {
	if m.values == nil {
		m.values = make(map[string]Node)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key and reports whether it was present.
func (m *Mapping) Delete(key string) bool {
	if _, exists := m.values[key]; !exists {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
}

// NewSequence creates a sequence holding items.
func NewSequence(items ...Node) *Sequence {
	return &Sequence{Items: items}
}

func (*Sequence) node() {}

// Kind implements Node.
func (*Sequence) Kind() Kind { return SequenceKind }

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.Items) }

// RemoveAt removes the item at index i. Out of range indexes are ignored.
func (s *Sequence) RemoveAt(i int) {
	if i < 0 || i >= len(s.Items) {
		return
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
}

// ScalarType is the type of a scalar leaf.
type ScalarType int

const (
	StringScalar ScalarType = iota
	BoolScalar
	IntScalar
	FloatScalar
	NullScalar
)

// Scalar is a leaf value. Value holds the canonical lexical form
// ("true", "42", "1.5", "" for null).
type Scalar struct {
	Type  ScalarType
	Value string
}

func (*Scalar) node() {}

// Kind implements Node.
func (*Scalar) Kind() Kind { return ScalarKind }

// IsNull reports whether the scalar is null.
func (s *Scalar) IsNull() bool { return s.Type == NullScalar }

// String creates a string scalar.
func String(v string) *Scalar { return &Scalar{Type: StringScalar, Value: v} }

// Bool creates a boolean scalar.
func Bool(v bool) *Scalar {
	if v {
		return &Scalar{Type: BoolScalar, Value: "true"}
	}
	return &Scalar{Type: BoolScalar, Value: "false"}
}

// Null creates a null scalar.
func Null() *Scalar { return &Scalar{Type: NullScalar} }

// StringValue returns the string held by n when n is a string scalar.
func StringValue(n Node) (string, bool) {
	s, ok := n.(*Scalar)
	if !ok || s.Type != StringScalar {
		return "", false
	}
	return s.Value, true
}

// Equal reports whether a and b hold the same content. Mapping key order is
// not significant.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			other, exists := bv.values[k]
			if !exists || !Equal(av.values[k], other) {
				return false
			}
		}
		return true
	case *Sequence:
		bv, ok := b.(*Sequence)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Scalar:
		bv, ok := b.(*Scalar)
		return ok && av.Type == bv.Type && av.Value == bv.Value
	default:
		return false
	}
}

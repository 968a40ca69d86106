package specdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON serializes the document as compact JSON in source key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return Marshal(d.Root)
}

// Marshal serializes n as compact JSON in insertion key order.
func Marshal(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	switch v := n.(type) {
	case nil:
		buf.WriteString("null")
	case *Mapping:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNode(buf, v.values[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case *Sequence:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Scalar:
		return writeScalar(buf, v)
	default:
		return fmt.Errorf("cannot encode node of type %T", n)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, s *Scalar) error {
	switch s.Type {
	case NullScalar:
		buf.WriteString("null")
	case BoolScalar:
		if s.Value == "true" {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case IntScalar, FloatScalar:
		if !jsonNumber.MatchString(s.Value) {
			return writeString(buf, s.Value)
		}
		buf.WriteString(s.Value)
	default:
		return writeString(buf, s.Value)
	}
	return nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

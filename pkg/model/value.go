package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind identifies the shape of an answer value.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueString
	ValueList
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueList:
		return "list"
	case ValueBool:
		return "bool"
	default:
		return "none"
	}
}

// Value is an answer payload: a string (text, single choice), a list of
// strings (multi choice) or a boolean. The zero Value holds nothing.
type Value struct {
	kind ValueKind
	str  string
	list []string
	flag bool
}

// String builds a string value.
func String(s string) Value {
	return Value{kind: ValueString, str: s}
}

// List builds a list value. An empty list is still a list.
func List(values ...string) Value {
	return Value{kind: ValueList, list: append([]string{}, values...)}
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{kind: ValueBool, flag: b}
}

// Kind reports the value shape.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Str returns the string payload when the value is a string.
func (v Value) Str() (string, bool) {
	if v.kind != ValueString {
		return "", false
	}
	return v.str, true
}

// Flag returns the boolean payload when the value is a boolean.
func (v Value) Flag() (bool, bool) {
	if v.kind != ValueBool {
		return false, false
	}
	return v.flag, true
}

// Strings normalises the value into a list: a string becomes a one element
// list, a list is copied, anything else yields nil.
func (v Value) Strings() []string {
	switch v.kind {
	case ValueString:
		return []string{v.str}
	case ValueList:
		return append([]string{}, v.list...)
	default:
		return nil
	}
}

// Truthy mirrors loose truthiness: empty strings, false and the zero value are
// falsy while any list, even an empty one, is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueString:
		return v.str != ""
	case ValueList:
		return true
	case ValueBool:
		return v.flag
	default:
		return false
	}
}

// IsZero reports whether the value holds nothing.
func (v Value) IsZero() bool {
	return v.kind == ValueNone
}

// Equal compares values structurally.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == other.str
	case ValueBool:
		return v.flag == other.flag
	case ValueList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
	}
	return true
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueList:
		return strings.Join(v.list, ", ")
	case ValueBool:
		if v.flag {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// MarshalJSON encodes the payload as a JSON string, array, boolean or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueList:
		return json.Marshal(v.list)
	case ValueBool:
		return json.Marshal(v.flag)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts strings, arrays of strings, booleans and null.
// Numbers are kept as their literal text.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarText(item)
			if err != nil {
				return err
			}
			list = append(list, s)
		}
		*v = List(list...)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{':
		return fmt.Errorf("model: unsupported answer value %s", trimmed)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("model: unsupported answer value %s", trimmed)
		}
		*v = String(n.String())
	}
	return nil
}

func scalarText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("model: unsupported list item %s", raw)
}

// MarshalYAML encodes the payload as a YAML scalar, sequence or null.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case ValueString:
		return v.str, nil
	case ValueList:
		return v.list, nil
	case ValueBool:
		return v.flag, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML accepts scalars and sequences of scalars. Non boolean scalars
// are kept as strings.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*v = Value{}
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = Bool(b)
		default:
			*v = String(node.Value)
		}
	case yaml.SequenceNode:
		list := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("model: unsupported list item at line %d", item.Line)
			}
			list = append(list, item.Value)
		}
		*v = List(list...)
	default:
		return fmt.Errorf("model: unsupported answer value at line %d", node.Line)
	}
	return nil
}

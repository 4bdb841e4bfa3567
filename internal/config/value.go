package config

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the value variants a configuration may hold.
type Kind int

const (
	// KindNull represents an absent or explicit null value.
	KindNull Kind = iota
	// KindString represents a string scalar.
	KindString
	// KindInt represents an integer scalar.
	KindInt
	// KindBool represents a boolean scalar.
	KindBool
	// KindMap represents a nested mapping.
	KindMap
)

// Value is a tagged configuration value: string, integer, boolean, nested
// mapping, or null. Values are immutable after construction.
type Value struct {
	kind    Kind
	str     string
	num     int
	boolean bool
	mapping map[string]Value
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// String wraps a string scalar.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Int wraps an integer scalar.
func Int(n int) Value {
	return Value{kind: KindInt, num: n}
}

// Bool wraps a boolean scalar.
func Bool(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// Map wraps a nested mapping.
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, mapping: m}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsScalar reports whether the value is a string, integer, or boolean.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindString, KindInt, KindBool:
		return true
	default:
		return false
	}
}

// Truthy applies the engine's falsiness rule: null, false, the integer 0,
// and the empty string are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindString:
		return v.str != ""
	case KindInt:
		return v.num != 0
	case KindBool:
		return v.boolean
	default:
		return true
	}
}

// Render returns the string form used for template substitution. Mappings
// and null render empty; callers are expected to bind scalars only.
func (v Value) Render() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.Itoa(v.num)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return ""
	}
}

// AsInt returns the integer form of the value. Strings holding decimal
// digits convert; anything else reports false.
func (v Value) AsInt() (int, bool) {
	switch v.kind {
	case KindInt:
		return v.num, true
	case KindString:
		n, err := strconv.Atoi(v.str)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Child looks up a key on a mapping value.
func (v Value) Child(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.mapping[key]
	return child, ok
}

// Keys returns the sorted key set of a mapping value.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.mapping))
	for key := range v.mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FromAny converts a decoded YAML value into a Value. Only the variants the
// engine's data model recognises are accepted.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(typed), nil
	case int:
		return Int(typed), nil
	case int64:
		return Int(int(typed)), nil
	case bool:
		return Bool(typed), nil
	case map[string]any:
		m := make(map[string]Value, len(typed))
		for key, child := range typed {
			converted, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			m[key] = converted
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// internal/types/value.go
package types

import (
	"strconv"
	"strings"
)

/*
 * Document value model.
 *
 * A document is a tree of mappings (string keys, insertion ordered) and
 * leaves (null, bool, number, string) or sequences of values. Value is a
 * closed variant: the unexported marker method keeps implementations inside
 * this package, so every type switch over Value is exhaustive against the
 * six concrete types below.
 *
 * Mapping is an ordered slice rather than a Go map. Breadth-first lookup
 * depends on entry order (first match wins, nested mappings are queued in
 * entry order), and Go map iteration is randomised.
 *
 * Numbers are float64, matching what encoding/json produces and what the
 * JSON data model can represent.
 */

// Kind names the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the lowercase kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of a document tree.
type Value interface {
	Kind() Kind
	String() string
	sealed()
}

// Null is the JSON null leaf.
type Null struct{}

// Bool is a boolean leaf.
type Bool bool

// Number is a numeric leaf. Integers are exact within ±2^53; beyond that
// they round to the nearest float64, so neighbouring large integers can
// compare equal.
type Number float64

// String is a string leaf.
type String string

// Sequence is an ordered list of values.
type Sequence []Value

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an insertion-ordered set of entries with unique keys.
type Mapping []Entry

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Number) Kind() Kind   { return KindNumber }
func (String) Kind() Kind   { return KindString }
func (Sequence) Kind() Kind { return KindSequence }
func (Mapping) Kind() Kind  { return KindMapping }

func (Null) sealed()     {}
func (Bool) sealed()     {}
func (Number) sealed()   {}
func (String) sealed()   {}
func (Sequence) sealed() {}
func (Mapping) sealed()  {}

func (Null) String() string { return "null" }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func (s String) String() string { return strconv.Quote(string(s)) }

func (s Sequence) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valueString(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (m Mapping) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(e.Key))
		sb.WriteString(": ")
		sb.WriteString(valueString(e.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

// valueString renders v, treating a nil interface as null.
func valueString(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// Get returns the value stored under key.
func (m Mapping) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the mapping keys in insertion order.
func (m Mapping) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// With returns a copy of m with key set to v. An existing key keeps its
// position; a new key is appended.
func (m Mapping) With(key string, v Value) Mapping {
	out := make(Mapping, len(m), len(m)+1)
	copy(out, m)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = v
			return out
		}
	}
	return append(out, Entry{Key: key, Value: v})
}

// M builds a Mapping from alternating key/value arguments. Values are
// converted with FromNative; it panics on odd argument counts, non-string
// keys and unconvertible values, so it is meant for literals in tests and
// examples.
func M(kv ...any) Mapping {
	if len(kv)%2 != 0 {
		panic("types.M: odd number of arguments")
	}
	m := make(Mapping, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("types.M: key must be a string")
		}
		v, err := FromNative(kv[i+1])
		if err != nil {
			panic("types.M: " + err.Error())
		}
		m = m.With(key, v)
	}
	return m
}

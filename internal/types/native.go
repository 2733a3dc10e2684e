// internal/types/native.go
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// FromNative converts an encoding/json style Go value into a Value.
//
// Accepted inputs: nil, bool, all integer and float kinds, json.Number,
// string, []any, map[string]any, Value itself, and slices/maps of Values.
// Go maps carry no order, so map keys are sorted to keep the result
// deterministic. Callers that need source order decode through
// internal/codec instead.
func FromNative(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Number(x), nil
	case int8:
		return Number(x), nil
	case int16:
		return Number(x), nil
	case int32:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case uint:
		return Number(x), nil
	case uint8:
		return Number(x), nil
	case uint16:
		return Number(x), nil
	case uint32:
		return Number(x), nil
	case uint64:
		return Number(x), nil
	case float32:
		return Number(x), nil
	case float64:
		return Number(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return Number(f), nil
	case string:
		return String(x), nil
	case []any:
		seq := make(Sequence, len(x))
		for i, elem := range x {
			ev, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			seq[i] = ev
		}
		return seq, nil
	case []Value:
		return Sequence(x), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Mapping, 0, len(x))
		for _, k := range keys {
			ev, err := FromNative(x[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m = append(m, Entry{Key: k, Value: ev})
		}
		return m, nil
	case map[string]Value:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Mapping, 0, len(x))
		for _, k := range keys {
			m = append(m, Entry{Key: k, Value: x[k]})
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unsupported Go type %T", ErrUnsupportedValue, v)
	}
}

// ToNative converts a Value back into encoding/json style Go values.
// Mapping order is lost in the resulting map[string]any.
func ToNative(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case String:
		return string(x)
	case Sequence:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = ToNative(elem)
		}
		return out
	case Mapping:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = ToNative(e.Value)
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality between two values. Numbers compare
// numerically (NaN equals nothing), mappings compare as key sets regardless
// of entry order, sequences compare element-wise. Values of different kinds
// are never equal; a nil Value is treated as Null.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && float64(x) == float64(y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Mapping:
		y, ok := b.(Mapping)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, e := range x {
			other, found := y.Get(e.Key)
			if !found || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CanonicalKey renders v as a string that is identical for Equal values.
// Mapping entries are sorted by key so that entry order does not matter.
// NaN is the one exception: every NaN renders to the same key even though
// Equal reports NaN unequal to itself.
func CanonicalKey(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return "n:"
	case Bool:
		if x {
			return "b:1"
		}
		return "b:0"
	case Number:
		f := float64(x)
		if f == 0 {
			// -0 and +0 are Equal.
			f = 0
		}
		if math.IsNaN(f) {
			return "f:NaN"
		}
		return "f:" + Number(f).String()
	case String:
		return "s:" + x.String()
	case Sequence:
		out := "l:["
		for i, elem := range x {
			if i > 0 {
				out += ","
			}
			out += CanonicalKey(elem)
		}
		return out + "]"
	case Mapping:
		sorted := make(Mapping, len(x))
		copy(sorted, x)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		out := "m:{"
		for i, e := range sorted {
			if i > 0 {
				out += ","
			}
			out += String(e.Key).String() + "=" + CanonicalKey(e.Value)
		}
		return out + "}"
	default:
		return "?"
	}
}

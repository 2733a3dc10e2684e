// internal/filter/operators.go
package filter

import (
	"fmt"

	"github.com/accumate/docfilter/internal/types"
)

/*
 * Operator dispatch.
 *
 * Operator is a tagged variant: one of the five built-in comparisons, or a
 * custom predicate carrying its own identity and function. Dispatch is a
 * switch over the kind; no runtime inspection of function values.
 *
 * Operators:
 *   - eq: deep equality (types.Equal); never fails
 *   - gt/lt/gte/lte: ordering per compare.go; incomparable kinds fail
 *     with a type mismatch instead of answering false
 *   - custom: the predicate decides; a returned error or a panic becomes a
 *     predicate fault naming the predicate
 */

// OpKind identifies the variant of an Operator.
type OpKind int

const (
	OpUnspecified OpKind = iota
	OpEq
	OpGt
	OpLt
	OpGte
	OpLte
	OpCustom
)

// Wire tags of the built-in operators.
const (
	TagEq  = "eq"
	TagGt  = "gt"
	TagLt  = "lt"
	TagGte = "gte"
	TagLte = "lte"
)

// builtinOrder is the fixed order in which keyword-style groups are applied.
var builtinOrder = []string{TagEq, TagGt, TagLt, TagLte, TagGte}

// PredicateFunc compares a resolved field value against one acceptable value.
// Returning an error (or panicking) reports a predicate fault.
type PredicateFunc func(value, acceptable types.Value) (bool, error)

// Predicate is a named custom comparison.
type Predicate struct {
	Name string
	Fn   PredicateFunc
}

// Operator is either a built-in comparison or a custom predicate.
// The zero value is OpUnspecified and is rejected by validation.
type Operator struct {
	kind      OpKind
	predicate Predicate
}

// Built-in operators.
var (
	Eq  = Operator{kind: OpEq}
	Gt  = Operator{kind: OpGt}
	Lt  = Operator{kind: OpLt}
	Gte = Operator{kind: OpGte}
	Lte = Operator{kind: OpLte}
)

// Custom wraps a predicate as an operator.
func Custom(name string, fn PredicateFunc) Operator {
	return Operator{kind: OpCustom, predicate: Predicate{Name: name, Fn: fn}}
}

// Kind returns the operator variant.
func (o Operator) Kind() OpKind { return o.kind }

// Predicate returns the wrapped predicate for custom operators.
func (o Operator) Predicate() (Predicate, bool) {
	if o.kind != OpCustom {
		return Predicate{}, false
	}
	return o.predicate, true
}

// Tag returns the wire tag for built-ins or the predicate name for custom
// operators.
func (o Operator) Tag() string {
	switch o.kind {
	case OpEq:
		return TagEq
	case OpGt:
		return TagGt
	case OpLt:
		return TagLt
	case OpGte:
		return TagGte
	case OpLte:
		return TagLte
	case OpCustom:
		return o.predicate.Name
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (o Operator) String() string {
	if o.kind == OpCustom {
		return "func:" + o.predicate.Name
	}
	if o.kind == OpUnspecified {
		return "unspecified"
	}
	return o.Tag()
}

// ParseOperator maps a built-in tag to its operator.
// Returns an *Error of kind KindUnknownOperator for any other tag; custom
// predicates are resolved through a Registry.
func ParseOperator(tag string) (Operator, error) {
	switch tag {
	case TagEq:
		return Eq, nil
	case TagGt:
		return Gt, nil
	case TagLt:
		return Lt, nil
	case TagGte:
		return Gte, nil
	case TagLte:
		return Lte, nil
	default:
		return Operator{}, unknownOperator(tag)
	}
}

// IsBuiltinTag reports whether tag names one of the five built-in operators.
func IsBuiltinTag(tag string) bool {
	_, err := ParseOperator(tag)
	return err == nil
}

// Compare applies op between a resolved field value and one acceptable value.
func Compare(op Operator, value, acceptable types.Value) (bool, error) {
	switch op.kind {
	case OpEq:
		return types.Equal(value, acceptable), nil
	case OpGt, OpLt, OpGte, OpLte:
		return compareWith(op, value, acceptable)
	case OpCustom:
		return op.predicate.call(value, acceptable)
	default:
		return false, unknownOperator(op.String())
	}
}

// compareWith evaluates an ordering operator.
func compareWith(op Operator, value, acceptable types.Value) (bool, error) {
	ord, ok := compareOrdered(value, acceptable)
	if !ok {
		return false, typeMismatch(op.Tag(), value, acceptable)
	}
	if ord == orderUnordered {
		return false, nil
	}
	switch op.kind {
	case OpGt:
		return ord == orderGreater, nil
	case OpLt:
		return ord == orderLess, nil
	case OpGte:
		return ord != orderLess, nil
	default:
		return ord != orderGreater, nil
	}
}

// call invokes the predicate, converting returned errors and panics into
// predicate faults.
func (p Predicate) call(value, acceptable types.Value) (matched bool, err error) {
	if p.Fn == nil {
		return false, unknownOperator("func:" + p.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = predicateFault(p.Name, value, acceptable, fmt.Errorf("panic: %v", r))
		}
	}()

	ok, ferr := p.Fn(value, acceptable)
	if ferr != nil {
		return false, predicateFault(p.Name, value, acceptable, ferr)
	}
	return ok, nil
}

func predicateFault(name string, left, right types.Value, cause error) *Error {
	return &Error{
		Kind:      KindPredicateFault,
		Operator:  name,
		Predicate: name,
		Left:      left,
		Right:     right,
		Cause:     cause,
		DocIndex:  -1,
	}
}

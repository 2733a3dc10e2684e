// internal/filter/errors.go
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/accumate/docfilter/internal/types"
)

/*
 * Structured filter errors.
 *
 * Every failure the engine reports is an *Error. Kind selects the category;
 * Unwrap returns the matching sentinel from internal/types so callers can
 * branch with errors.Is without importing this package's Kind constants.
 *
 * Document context: DocIndex is the position of the offending document in
 * the input batch (-1 when the error is not tied to a document, e.g. spec
 * validation). DocID is set when the document came from the store.
 */

// ErrorKind identifies the category of a filter error.
type ErrorKind int

const (
	// KindFieldNotFound: a required field is absent from a document.
	KindFieldNotFound ErrorKind = iota + 1
	// KindTypeMismatch: ordering attempted between incomparable value kinds.
	KindTypeMismatch
	// KindUnknownOperator: operator tag neither built in nor registered.
	KindUnknownOperator
	// KindPredicateFault: a custom predicate returned an error or panicked.
	KindPredicateFault
	// KindMalformedFilterGroup: a group does not have the required shape.
	KindMalformedFilterGroup
)

// String returns the kind name used in logs and audit records.
func (k ErrorKind) String() string {
	switch k {
	case KindFieldNotFound:
		return "field_not_found"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindUnknownOperator:
		return "unknown_operator"
	case KindPredicateFault:
		return "predicate_fault"
	case KindMalformedFilterGroup:
		return "malformed_filter_group"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindFieldNotFound:
		return types.ErrFieldNotFound
	case KindTypeMismatch:
		return types.ErrTypeMismatch
	case KindUnknownOperator:
		return types.ErrUnknownOperator
	case KindPredicateFault:
		return types.ErrPredicateFault
	case KindMalformedFilterGroup:
		return types.ErrMalformedFilterGroup
	default:
		return nil
	}
}

// Error is the structured error returned by every filter operation.
type Error struct {
	Kind      ErrorKind
	Field     string           // field being resolved or compared
	Operator  string           // operator tag or predicate name
	Group     string           // name of the filter group being evaluated
	DocIndex  int              // position in the input batch, -1 if none
	DocID     types.DocumentID // store identity, empty for inline documents
	Left      types.Value      // resolved value (type mismatch, predicate fault)
	Right     types.Value      // acceptable value (type mismatch, predicate fault)
	Predicate string           // custom predicate identity
	Message   string           // human-readable detail
	Cause     error            // underlying fault, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.sentinel().Error())

	switch e.Kind {
	case KindFieldNotFound:
		fmt.Fprintf(&sb, ": %q", e.Field)
	case KindTypeMismatch:
		fmt.Fprintf(&sb, ": cannot apply %s to %s and %s", e.Operator, kindOf(e.Left), kindOf(e.Right))
	case KindUnknownOperator:
		fmt.Fprintf(&sb, ": %s", e.Operator)
	case KindPredicateFault:
		fmt.Fprintf(&sb, ": function %s failed", e.Predicate)
	}

	if e.Group != "" {
		fmt.Fprintf(&sb, " (group %s", e.Group)
		if e.Field != "" && e.Kind != KindFieldNotFound {
			fmt.Fprintf(&sb, ", field %q", e.Field)
		}
		sb.WriteByte(')')
	}
	if e.DocIndex >= 0 {
		fmt.Fprintf(&sb, " in document %d", e.DocIndex)
		if e.DocID != "" {
			fmt.Fprintf(&sb, " [%s]", e.DocID)
		}
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the category sentinel and the underlying cause, so both
// errors.Is(err, types.ErrPredicateFault) and errors.Is(err, cause) hold.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// withDocument stamps document context onto e and returns it.
func (e *Error) withDocument(index int, doc types.Document) *Error {
	e.DocIndex = index
	e.DocID = doc.ID
	return e
}

func kindOf(v types.Value) string {
	if v == nil {
		return types.KindNull.String()
	}
	return v.Kind().String()
}

func fieldNotFound(field string) *Error {
	return &Error{Kind: KindFieldNotFound, Field: field, DocIndex: -1}
}

func typeMismatch(op string, left, right types.Value) *Error {
	return &Error{Kind: KindTypeMismatch, Operator: op, Left: left, Right: right, DocIndex: -1}
}

func unknownOperator(tag string) *Error {
	return &Error{Kind: KindUnknownOperator, Operator: tag, DocIndex: -1}
}

func malformedGroup(group, format string, args ...any) *Error {
	return &Error{
		Kind:     KindMalformedFilterGroup,
		Group:    group,
		Message:  fmt.Sprintf(format, args...),
		DocIndex: -1,
	}
}

// AsError extracts the *Error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsFieldNotFound returns true if err reports a missing field.
func IsFieldNotFound(err error) bool { return errors.Is(err, types.ErrFieldNotFound) }

// IsTypeMismatch returns true if err reports an incomparable ordering.
func IsTypeMismatch(err error) bool { return errors.Is(err, types.ErrTypeMismatch) }

// IsUnknownOperator returns true if err reports an unrecognised operator.
func IsUnknownOperator(err error) bool { return errors.Is(err, types.ErrUnknownOperator) }

// IsPredicateFault returns true if err reports a failing custom predicate.
func IsPredicateFault(err error) bool { return errors.Is(err, types.ErrPredicateFault) }

// IsMalformedFilterGroup returns true if err reports an ill-shaped group.
func IsMalformedFilterGroup(err error) bool {
	return errors.Is(err, types.ErrMalformedFilterGroup)
}

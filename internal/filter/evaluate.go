// internal/filter/evaluate.go
package filter

import (
	"github.com/accumate/docfilter/internal/types"
)

/*
 * Per-document evaluation.
 *
 * A document survives when every group holds. A group holds when every
 * field constraint holds. A constraint resolves its field exactly once and
 * then compares the resolved value against each acceptable value in order;
 * the first false rejects the document.
 *
 * Evaluation flow:
 *   1. Groups in spec order (short-circuit on first failing group)
 *   2. Fields in group order (short-circuit on first failing field)
 *   3. Resolve field -> compare against each acceptable value
 *
 * Errors: resolution and comparison failures are returned as *Error with
 * Group and Field filled in. Document context is stamped by the engine.
 * Short-circuiting means a later constraint's error is never reached once
 * an earlier one has rejected the document.
 */

// matchDocument reports whether root satisfies every group of spec.
func matchDocument(r Resolver, root types.Mapping, spec *FilterSpec) (bool, error) {
	if spec == nil {
		return true, nil
	}
	for _, g := range spec.Groups {
		ok, err := matchGroup(r, root, g)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// matchGroup evaluates one group's field constraints in order.
func matchGroup(r Resolver, root types.Mapping, g FilterGroup) (bool, error) {
	for _, fc := range g.Fields {
		ok, err := matchConstraint(r, root, g, fc)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// matchConstraint resolves fc.Field once and compares it against every
// acceptable value. An empty value list holds once the field resolves.
func matchConstraint(r Resolver, root types.Mapping, g FilterGroup, fc FieldConstraint) (bool, error) {
	value, err := r.Resolve(root, fc.Field)
	if err != nil {
		return false, withGroup(err, g.Name, fc.Field)
	}

	for _, acceptable := range fc.Values {
		ok, err := Compare(g.Operator, value, acceptable)
		if err != nil {
			return false, withGroup(err, g.Name, fc.Field)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func withGroup(err error, group, field string) error {
	if fe, ok := AsError(err); ok {
		fe.Group = group
		fe.Field = field
	}
	return err
}

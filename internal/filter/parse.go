// internal/filter/parse.go
package filter

import (
	"github.com/accumate/docfilter/internal/types"
)

/*
 * Transport spec decoding.
 *
 * Payload shape (keys of the top-level mapping):
 *
 *   "eq" | "gt" | "lt" | "lte" | "gte":  {"<field>": [<value>, ...], ...}
 *   any other name:                      {"func": "<registered predicate>",
 *                                         "filter_set": {"<field>": [...]}}
 *
 * Built-in groups are emitted in the fixed order eq, gt, lt, lte, gte no
 * matter where they appear in the payload; custom groups follow in payload
 * order. Field order inside a group is the payload's entry order.
 *
 * Extra keys next to "func" and "filter_set" are ignored.
 */

const (
	keyFunc      = "func"
	keyFilterSet = "filter_set"
)

// ParseSpec decodes a transport filter payload. Custom groups resolve their
// "func" through reg; a nil registry accepts built-in groups only.
func ParseSpec(raw types.Mapping, reg *Registry) (*FilterSpec, error) {
	builtin := make(map[string]FilterGroup)
	var custom []FilterGroup

	for _, entry := range raw {
		if IsBuiltinTag(entry.Key) {
			op, _ := ParseOperator(entry.Key)
			g, err := parseFieldSet(entry.Key, op, entry.Value)
			if err != nil {
				return nil, err
			}
			builtin[entry.Key] = g
			continue
		}

		g, err := parseCustomGroup(entry.Key, entry.Value, reg)
		if err != nil {
			return nil, err
		}
		custom = append(custom, g)
	}

	spec := &FilterSpec{}
	for _, tag := range builtinOrder {
		if g, ok := builtin[tag]; ok {
			spec.Groups = append(spec.Groups, g)
		}
	}
	spec.Groups = append(spec.Groups, custom...)

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseCustomGroup(name string, v types.Value, reg *Registry) (FilterGroup, error) {
	body, ok := v.(types.Mapping)
	if !ok {
		return FilterGroup{}, malformedGroup(name,
			"custom groups must be a mapping with %q and %q, got %s", keyFunc, keyFilterSet, kindOf(v))
	}

	fnValue, ok := body.Get(keyFunc)
	if !ok {
		return FilterGroup{}, malformedGroup(name, "missing %q", keyFunc)
	}
	fnName, ok := fnValue.(types.String)
	if !ok {
		return FilterGroup{}, malformedGroup(name, "%q must be a string, got %s", keyFunc, kindOf(fnValue))
	}
	set, ok := body.Get(keyFilterSet)
	if !ok {
		return FilterGroup{}, malformedGroup(name, "missing %q", keyFilterSet)
	}

	op, err := reg.Operator(string(fnName))
	if err != nil {
		if fe, ok := AsError(err); ok {
			fe.Group = name
		}
		return FilterGroup{}, err
	}
	if op.Kind() != OpCustom {
		return FilterGroup{}, malformedGroup(name, "%q must name a registered predicate, got built-in %s", keyFunc, op.Tag())
	}

	return parseFieldSet(name, op, set)
}

func parseFieldSet(name string, op Operator, v types.Value) (FilterGroup, error) {
	set, ok := v.(types.Mapping)
	if !ok {
		return FilterGroup{}, malformedGroup(name, "field set must be a mapping, got %s", kindOf(v))
	}

	g := FilterGroup{Name: name, Operator: op, Fields: make([]FieldConstraint, 0, len(set))}
	for _, entry := range set {
		values, ok := entry.Value.(types.Sequence)
		if !ok {
			e := malformedGroup(name, "acceptable values must be a list, got %s", kindOf(entry.Value))
			e.Field = entry.Key
			return FilterGroup{}, e
		}
		g.Fields = append(g.Fields, FieldConstraint{
			Field:  entry.Key,
			Values: append([]types.Value(nil), values...),
		})
	}
	return g, nil
}

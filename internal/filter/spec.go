// internal/filter/spec.go
package filter

import (
	"sort"

	"github.com/accumate/docfilter/internal/types"
)

/*
 * Filter specification and construction.
 *
 * A FilterSpec is an ordered conjunction of FilterGroups. Each group pairs
 * one operator with an ordered list of field constraints; a constraint
 * passes when the resolved field satisfies the operator against every one
 * of its acceptable values.
 *
 * Construction paths:
 *   - Builder: fluent, typed, in-process
 *   - Params / SpecFromParams: keyword style (eq/gt/lt/lte/gte maps plus
 *     custom groups), field order sorted since Go maps are unordered
 *   - ParseSpec (parse.go): decoded transport payloads
 *
 * Group order: built-in groups always come first in the fixed order eq, gt,
 * lt, lte, gte, followed by custom groups in declaration order. Evaluation
 * is fail-fast, so this order also decides which error a bad document
 * reports first.
 *
 * Empty value lists are vacuously satisfied, but the field is still
 * resolved, so a missing field fails even then.
 */

// FieldConstraint is one field and its acceptable values, in order.
type FieldConstraint struct {
	Field  string
	Values []types.Value
}

// FilterGroup applies one operator to an ordered list of field constraints.
type FilterGroup struct {
	Name     string
	Operator Operator
	Fields   []FieldConstraint
}

// FilterSpec is the ordered conjunction of filter groups.
type FilterSpec struct {
	Groups []FilterGroup
}

// IsEmpty reports whether the spec has no constraints at all.
func (s *FilterSpec) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, g := range s.Groups {
		if len(g.Fields) > 0 {
			return false
		}
	}
	return true
}

// Validate checks every group for a usable operator and well-formed
// constraints. A nil spec is valid and empty.
func (s *FilterSpec) Validate() error {
	if s == nil {
		return nil
	}
	for _, g := range s.Groups {
		if err := g.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (g FilterGroup) validate() error {
	switch g.Operator.Kind() {
	case OpEq, OpGt, OpLt, OpGte, OpLte:
	case OpCustom:
		if g.Operator.predicate.Fn == nil {
			return malformedGroup(g.Name, "predicate %q has no function", g.Operator.predicate.Name)
		}
	default:
		e := unknownOperator(g.Operator.String())
		e.Group = g.Name
		return e
	}

	for _, fc := range g.Fields {
		if fc.Field == "" {
			return malformedGroup(g.Name, "empty field name")
		}
		for i, v := range fc.Values {
			if v == nil {
				e := malformedGroup(g.Name, "value %d is nil", i)
				e.Field = fc.Field
				return e
			}
		}
	}
	return nil
}

// Builder assembles a FilterSpec fluently. The first conversion error is
// kept and returned by Build.
type Builder struct {
	builtin map[string]*FilterGroup
	custom  []*FilterGroup
	err     error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{builtin: make(map[string]*FilterGroup)}
}

// Eq requires field to equal every value.
func (b *Builder) Eq(field string, values ...any) *Builder { return b.add(Eq, field, values) }

// Gt requires field to be greater than every value.
func (b *Builder) Gt(field string, values ...any) *Builder { return b.add(Gt, field, values) }

// Lt requires field to be less than every value.
func (b *Builder) Lt(field string, values ...any) *Builder { return b.add(Lt, field, values) }

// Lte requires field to be less than or equal to every value.
func (b *Builder) Lte(field string, values ...any) *Builder { return b.add(Lte, field, values) }

// Gte requires field to be greater than or equal to every value.
func (b *Builder) Gte(field string, values ...any) *Builder { return b.add(Gte, field, values) }

// Custom requires fn(field, value) to hold for every value. Calls sharing a
// name extend the same group.
func (b *Builder) Custom(name string, fn PredicateFunc, field string, values ...any) *Builder {
	for _, g := range b.custom {
		if g.Name == name {
			b.appendField(g, field, values)
			return b
		}
	}
	g := &FilterGroup{Name: name, Operator: Custom(name, fn)}
	b.custom = append(b.custom, g)
	b.appendField(g, field, values)
	return b
}

func (b *Builder) add(op Operator, field string, values []any) *Builder {
	g, ok := b.builtin[op.Tag()]
	if !ok {
		g = &FilterGroup{Name: op.Tag(), Operator: op}
		b.builtin[op.Tag()] = g
	}
	b.appendField(g, field, values)
	return b
}

func (b *Builder) appendField(g *FilterGroup, field string, values []any) {
	fc, err := newConstraint(g.Name, field, values)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	g.Fields = append(g.Fields, fc)
}

// Build returns the validated spec.
func (b *Builder) Build() (*FilterSpec, error) {
	if b.err != nil {
		return nil, b.err
	}

	spec := &FilterSpec{}
	for _, tag := range builtinOrder {
		if g, ok := b.builtin[tag]; ok {
			spec.Groups = append(spec.Groups, *g)
		}
	}
	for _, g := range b.custom {
		spec.Groups = append(spec.Groups, *g)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Params is the keyword-style description of a filter: one field map per
// built-in operator plus any number of custom groups.
type Params struct {
	Eq     map[string][]any
	Gt     map[string][]any
	Lt     map[string][]any
	Lte    map[string][]any
	Gte    map[string][]any
	Custom []CustomParams
}

// CustomParams is a named custom group: a predicate and its filter set.
type CustomParams struct {
	Name      string
	Func      PredicateFunc
	FilterSet map[string][]any
}

// SpecFromParams converts keyword-style params into a validated spec.
// Fields inside each group are sorted by name.
func SpecFromParams(p Params) (*FilterSpec, error) {
	spec := &FilterSpec{}

	builtins := map[string]map[string][]any{
		TagEq: p.Eq, TagGt: p.Gt, TagLt: p.Lt, TagLte: p.Lte, TagGte: p.Gte,
	}
	for _, tag := range builtinOrder {
		set := builtins[tag]
		if len(set) == 0 {
			continue
		}
		op, _ := ParseOperator(tag)
		g, err := groupFromSet(tag, op, set)
		if err != nil {
			return nil, err
		}
		spec.Groups = append(spec.Groups, g)
	}

	for _, c := range p.Custom {
		if c.Func == nil || c.FilterSet == nil {
			return nil, malformedGroup(c.Name, "custom groups need both a function and a filter set")
		}
		g, err := groupFromSet(c.Name, Custom(c.Name, c.Func), c.FilterSet)
		if err != nil {
			return nil, err
		}
		spec.Groups = append(spec.Groups, g)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func groupFromSet(name string, op Operator, set map[string][]any) (FilterGroup, error) {
	fields := make([]string, 0, len(set))
	for field := range set {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	g := FilterGroup{Name: name, Operator: op, Fields: make([]FieldConstraint, 0, len(fields))}
	for _, field := range fields {
		fc, err := newConstraint(name, field, set[field])
		if err != nil {
			return FilterGroup{}, err
		}
		g.Fields = append(g.Fields, fc)
	}
	return g, nil
}

func newConstraint(group, field string, values []any) (FieldConstraint, error) {
	fc := FieldConstraint{Field: field, Values: make([]types.Value, 0, len(values))}
	for i, raw := range values {
		v, err := types.FromNative(raw)
		if err != nil {
			e := malformedGroup(group, "value %d", i)
			e.Field = field
			e.Cause = err
			return FieldConstraint{}, e
		}
		fc.Values = append(fc.Values, v)
	}
	return fc, nil
}

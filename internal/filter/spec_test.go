package filter

import (
	"errors"
	"testing"

	"github.com/accumate/docfilter/internal/types"
)

func groupNames(spec *FilterSpec) []string {
	names := make([]string, len(spec.Groups))
	for i, g := range spec.Groups {
		names[i] = g.Name
	}
	return names
}

func fieldNames(g FilterGroup) []string {
	names := make([]string, len(g.Fields))
	for i, fc := range g.Fields {
		names[i] = fc.Field
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuilder_GroupOrder(t *testing.T) {
	spec, err := NewBuilder().
		Custom("starts", predicateStartsWith, "name", "A").
		Gte("score", 10).
		Eq("city", "NY").
		Lt("age", 65).
		Eq("country", "US").
		Custom("ends", predicateEndsWith, "name", "z").
		Gt("age", 18).
		Lte("score", 100).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"eq", "gt", "lt", "lte", "gte", "starts", "ends"}
	if got := groupNames(spec); !equalStrings(got, want) {
		t.Errorf("group order = %v, want %v", got, want)
	}
	if got := fieldNames(spec.Groups[0]); !equalStrings(got, []string{"city", "country"}) {
		t.Errorf("eq fields = %v, want call order [city country]", got)
	}
}

func TestBuilder_CustomSameNameExtendsGroup(t *testing.T) {
	spec, err := NewBuilder().
		Custom("starts", predicateStartsWith, "first", "A").
		Custom("starts", predicateStartsWith, "last", "B").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(spec.Groups) != 1 {
		t.Fatalf("len(Groups) = %d, want 1", len(spec.Groups))
	}
	if got := fieldNames(spec.Groups[0]); !equalStrings(got, []string{"first", "last"}) {
		t.Errorf("fields = %v, want [first last]", got)
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		check   func(error) bool
	}{
		{
			name:    "unsupported value",
			builder: NewBuilder().Eq("x", struct{}{}),
			check:   IsMalformedFilterGroup,
		},
		{
			name:    "empty field name",
			builder: NewBuilder().Gt("", 1),
			check:   IsMalformedFilterGroup,
		},
		{
			name:    "nil predicate",
			builder: NewBuilder().Custom("nothing", nil, "x", 1),
			check:   IsMalformedFilterGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if !tt.check(err) {
				t.Errorf("Build() error = %v", err)
			}
		})
	}
}

func TestBuilder_UnsupportedValueKeepsCause(t *testing.T) {
	_, err := NewBuilder().Eq("x", make(chan int)).Build()
	if !errors.Is(err, types.ErrUnsupportedValue) {
		t.Errorf("Build() error = %v, want wrapped ErrUnsupportedValue", err)
	}
}

func TestSpecFromParams(t *testing.T) {
	spec, err := SpecFromParams(Params{
		Gte: map[string][]any{"score": {10}},
		Eq:  map[string][]any{"zeta": {"z"}, "alpha": {"a"}, "mid": {"m"}},
		Custom: []CustomParams{
			{Name: "prefix", Func: predicateStartsWith, FilterSet: map[string][]any{"name": {"Al"}}},
		},
	})
	if err != nil {
		t.Fatalf("SpecFromParams() error = %v", err)
	}

	if got := groupNames(spec); !equalStrings(got, []string{"eq", "gte", "prefix"}) {
		t.Errorf("group order = %v, want [eq gte prefix]", got)
	}
	if got := fieldNames(spec.Groups[0]); !equalStrings(got, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("eq fields = %v, want sorted", got)
	}
	if spec.Groups[2].Operator.Kind() != OpCustom {
		t.Errorf("custom group operator = %v, want custom", spec.Groups[2].Operator)
	}
}

func TestSpecFromParams_MalformedCustom(t *testing.T) {
	tests := []struct {
		name   string
		custom CustomParams
	}{
		{name: "missing func", custom: CustomParams{Name: "c", FilterSet: map[string][]any{"x": {1}}}},
		{name: "missing filter set", custom: CustomParams{Name: "c", Func: predicateExists}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SpecFromParams(Params{Custom: []CustomParams{tt.custom}})
			if !IsMalformedFilterGroup(err) {
				t.Errorf("SpecFromParams() error = %v, want malformed filter group", err)
			}
		})
	}
}

func TestFilterSpec_IsEmpty(t *testing.T) {
	var nilSpec *FilterSpec
	if !nilSpec.IsEmpty() {
		t.Error("nil spec should be empty")
	}
	spec := mustBuild(t, NewBuilder())
	if !spec.IsEmpty() {
		t.Error("built spec with no groups should be empty")
	}
	spec = mustBuild(t, NewBuilder().Eq("x", 1))
	if spec.IsEmpty() {
		t.Error("spec with a constraint should not be empty")
	}
}

func TestParseSpec(t *testing.T) {
	raw := types.M(
		"tagged", types.M("func", "contains", "filter_set", types.M("tags", []any{"go"})),
		"gte", types.M("score", []any{10}),
		"eq", types.M("city", []any{"NY"}, "active", []any{true}),
	)

	spec, err := ParseSpec(raw, DefaultRegistry(nil))
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}

	if got := groupNames(spec); !equalStrings(got, []string{"eq", "gte", "tagged"}) {
		t.Errorf("group order = %v, want [eq gte tagged]", got)
	}
	if got := fieldNames(spec.Groups[0]); !equalStrings(got, []string{"city", "active"}) {
		t.Errorf("eq fields = %v, want payload order [city active]", got)
	}
	p, ok := spec.Groups[2].Operator.Predicate()
	if !ok || p.Name != "contains" {
		t.Errorf("tagged operator = %v, want func:contains", spec.Groups[2].Operator)
	}

	docs := types.Documents(
		types.M("city", "NY", "active", true, "score", 12, "tags", []any{"go", "rust"}),
		types.M("city", "NY", "active", true, "score", 12, "tags", []any{"rust"}),
	)
	got, err := NewEngine().FilterFlat(docs, spec)
	if err != nil {
		t.Fatalf("FilterFlat() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("FilterFlat() survivors = %d, want 1", len(got))
	}
}

func TestParseSpec_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   types.Mapping
		check func(error) bool
	}{
		{
			name:  "builtin group not a mapping",
			raw:   types.M("eq", []any{"city"}),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "values not a list",
			raw:   types.M("eq", types.M("city", "NY")),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "custom group not a mapping",
			raw:   types.M("mine", "contains"),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "custom group missing func",
			raw:   types.M("mine", types.M("filter_set", types.M("x", []any{1}))),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "custom group func not a string",
			raw:   types.M("mine", types.M("func", 3, "filter_set", types.M())),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "custom group missing filter_set",
			raw:   types.M("mine", types.M("func", "contains")),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "custom group names a built-in",
			raw:   types.M("mine", types.M("func", "gt", "filter_set", types.M())),
			check: IsMalformedFilterGroup,
		},
		{
			name:  "unregistered func",
			raw:   types.M("mine", types.M("func", "soundex", "filter_set", types.M())),
			check: IsUnknownOperator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.raw, DefaultRegistry(nil))
			if !tt.check(err) {
				t.Fatalf("ParseSpec() error = %v", err)
			}
			fe, ok := AsError(err)
			if !ok || fe.Group == "" {
				t.Errorf("ParseSpec() error = %v, want group context", err)
			}
		})
	}
}

func TestParseSpec_NilRegistry(t *testing.T) {
	if _, err := ParseSpec(types.M("lt", types.M("x", []any{1})), nil); err != nil {
		t.Errorf("ParseSpec() error = %v, want nil for built-ins", err)
	}
	raw := types.M("mine", types.M("func", "contains", "filter_set", types.M()))
	if _, err := ParseSpec(raw, nil); !IsUnknownOperator(err) {
		t.Errorf("ParseSpec() error = %v, want unknown operator", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		spec  *FilterSpec
		check func(error) bool
	}{
		{
			name:  "zero operator",
			spec:  &FilterSpec{Groups: []FilterGroup{{Name: "g"}}},
			check: IsUnknownOperator,
		},
		{
			name: "nil value",
			spec: &FilterSpec{Groups: []FilterGroup{{
				Name: "eq", Operator: Eq,
				Fields: []FieldConstraint{{Field: "x", Values: []types.Value{nil}}},
			}}},
			check: IsMalformedFilterGroup,
		},
		{
			name: "custom without function",
			spec: &FilterSpec{Groups: []FilterGroup{{
				Name: "c", Operator: Custom("c", nil),
			}}},
			check: IsMalformedFilterGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.spec.Validate(); !tt.check(err) {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

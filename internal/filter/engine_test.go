package filter

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/goleak"

	"github.com/accumate/docfilter/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var cities = []string{"NY", "LA", "SF", "CHI"}

// genDocs builds n documents whose fields depend only on the seed values,
// with "score" nested one level down.
func genDocs(ages []int) []types.Document {
	docs := make([]types.Document, len(ages))
	for i, age := range ages {
		docs[i] = types.Document{
			ID: types.DocumentID(fmt.Sprintf("d%d", i)),
			Root: types.M(
				"age", age,
				"city", cities[(age+i)%len(cities)],
				"stats", types.M("score", (age*7+i)%100),
			),
		}
	}
	return docs
}

func intersect(a, b []types.Document) []types.Document {
	inB := make(map[types.DocumentID]bool, len(b))
	for _, d := range b {
		inB[d.ID] = true
	}
	out := []types.Document{}
	for _, d := range a {
		if inB[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// Property-based test: conjunction law
func TestFilter_PropertyConjunction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("filter(g1 and g2) is the ordered intersection of filter(g1) and filter(g2)", prop.ForAll(
		func(ages []int, minAge int, maxScore int) bool {
			docs := genDocs(ages)
			engine := NewEngine()

			g1, _ := NewBuilder().Gte("age", minAge).Build()
			g2, _ := NewBuilder().Lt("score", maxScore).Build()
			both, _ := NewBuilder().Gte("age", minAge).Lt("score", maxScore).Build()

			r1, err1 := engine.FilterFlat(docs, g1)
			r2, err2 := engine.FilterFlat(docs, g2)
			r12, err12 := engine.FilterFlat(docs, both)
			if err1 != nil || err2 != nil || err12 != nil {
				return false
			}
			if len(r12) == 0 && len(intersect(r1, r2)) == 0 {
				return true
			}
			return cmp.Equal(intersect(r1, r2), r12)
		},
		gen.SliceOf(gen.IntRange(0, 99)),
		gen.IntRange(0, 99),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// Property-based test: idempotence
func TestFilter_PropertyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("filtering twice yields identical results", prop.ForAll(
		func(ages []int, city int) bool {
			docs := genDocs(ages)
			spec, _ := NewBuilder().Eq("city", cities[city]).Build()
			engine := NewEngine()

			first, err1 := engine.Filter(docs, spec, "city")
			second, err2 := engine.Filter(docs, spec, "city")
			if err1 != nil || err2 != nil {
				return false
			}
			return cmp.Equal(first.Survivors, second.Survivors) &&
				cmp.Equal(first.Groups.Buckets, second.Groups.Buckets)
		},
		gen.SliceOf(gen.IntRange(0, 99)),
		gen.IntRange(0, len(cities)-1),
	))

	properties.TestingRun(t)
}

// Property-based test: empty spec keeps everything
func TestFilter_PropertyEmptySpec(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("empty spec returns all documents in order", prop.ForAll(
		func(ages []int) bool {
			docs := genDocs(ages)

			for _, spec := range []*FilterSpec{nil, {}} {
				got, err := NewEngine().FilterFlat(docs, spec)
				if err != nil || len(got) != len(docs) {
					return false
				}
				if len(docs) > 0 && !cmp.Equal(docs, got) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99)),
	))

	properties.TestingRun(t)
}

// Property-based test: grouping law
func TestFilter_PropertyGrouping(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("buckets partition the flat survivors", prop.ForAll(
		func(ages []int, minAge int) bool {
			docs := genDocs(ages)
			spec, _ := NewBuilder().Gt("age", minAge).Build()

			result, err := NewEngine().Filter(docs, spec, "city")
			if err != nil {
				return false
			}

			seen := make(map[types.DocumentID]int)
			for _, b := range result.Groups.Buckets {
				for _, d := range b.Documents {
					seen[d.ID]++
					if v, _ := d.Root.Get("city"); !types.Equal(v, b.Key) {
						return false
					}
				}
			}
			if len(seen) != len(result.Survivors) || result.Groups.Total() != len(result.Survivors) {
				return false
			}
			for _, d := range result.Survivors {
				if seen[d.ID] != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99)),
		gen.IntRange(0, 99),
	))

	properties.TestingRun(t)
}

func TestFilter_ConcurrentUse(t *testing.T) {
	docs := genDocs([]int{10, 20, 30, 40, 50, 60})
	spec, err := NewBuilder().Gte("age", 30).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine := NewEngine()

	want, err := engine.FilterFlat(docs, spec)
	if err != nil {
		t.Fatalf("FilterFlat() error = %v", err)
	}

	done := make(chan []types.Document)
	for i := 0; i < 8; i++ {
		go func() {
			got, _ := engine.FilterFlat(docs, spec)
			done <- got
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; !cmp.Equal(want, got) {
			t.Errorf("concurrent FilterFlat() = %v, want %v", got, want)
		}
	}
}

// internal/filter/compare.go
package filter

import (
	"math"
	"strings"

	"github.com/accumate/docfilter/internal/types"
)

/*
 * Ordering rules for gt/lt/gte/lte.
 *
 * Only same-kind pairs are ordered:
 *   - number vs number: numeric; NaN is unordered against everything
 *   - string vs string: byte-wise lexicographic
 *   - bool vs bool:     false < true
 *   - sequence vs sequence: lexicographic; the first non-equal element pair
 *     decides (with these same rules), otherwise the shorter one is smaller
 *
 * Every other pairing (null, mapping, or mixed kinds) is a type mismatch
 * and is reported, never silently treated as false. Unordered NaN pairs
 * are not a mismatch: every ordering operator simply yields false.
 */

type ordering int

const (
	orderLess ordering = iota - 1
	orderEqual
	orderGreater
	orderUnordered
)

// compareOrdered returns the ordering of a relative to b, or ok=false when
// the kinds cannot be ordered.
func compareOrdered(a, b types.Value) (ordering, bool) {
	switch x := a.(type) {
	case types.Number:
		y, ok := b.(types.Number)
		if !ok {
			return 0, false
		}
		return compareFloat(float64(x), float64(y)), true

	case types.String:
		y, ok := b.(types.String)
		if !ok {
			return 0, false
		}
		return ordering(strings.Compare(string(x), string(y))), true

	case types.Bool:
		y, ok := b.(types.Bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return orderEqual, true
		case !bool(x):
			return orderLess, true
		default:
			return orderGreater, true
		}

	case types.Sequence:
		y, ok := b.(types.Sequence)
		if !ok {
			return 0, false
		}
		return compareSequences(x, y)

	default:
		return 0, false
	}
}

func compareFloat(a, b float64) ordering {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return orderUnordered
	case a < b:
		return orderLess
	case a > b:
		return orderGreater
	default:
		return orderEqual
	}
}

// compareSequences orders two sequences lexicographically. Elements are
// first tested for equality, so mixed-kind elements only matter at the
// first position where the sequences differ.
func compareSequences(a, b types.Sequence) (ordering, bool) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if types.Equal(a[i], b[i]) {
			continue
		}
		return compareOrdered(a[i], b[i])
	}
	switch {
	case len(a) < len(b):
		return orderLess, true
	case len(a) > len(b):
		return orderGreater, true
	default:
		return orderEqual, true
	}
}

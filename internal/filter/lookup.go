// internal/filter/lookup.go
package filter

import (
	"github.com/accumate/docfilter/internal/types"
)

/*
 * Nested field lookup.
 *
 * Finds the first occurrence of a field name anywhere in a document's
 * mapping tree, breadth-first. A queue is seeded with the root mapping;
 * each dequeued mapping is scanned in entry order, the first key equal to
 * the field wins, and every mapping-valued entry is queued for later.
 *
 * Sequences: by default, list-valued entries are not searched, so a field
 * that only exists inside a list element is reported missing. Resolver
 * exposes DescendSequences to also queue mappings found inside sequences
 * (including sequences of sequences), in element order.
 *
 * Lookup is read-only and deterministic: the same document and field always
 * produce the same value or the same FieldNotFound.
 */

// Resolver performs breadth-first field lookup over documents.
// The zero value does not descend into sequences.
type Resolver struct {
	// DescendSequences also searches mappings nested inside sequence values.
	DescendSequences bool
}

// Resolve finds field in root using the default resolver.
func Resolve(root types.Mapping, field string) (types.Value, error) {
	return Resolver{}.Resolve(root, field)
}

// Resolve returns the value of the first key equal to field encountered in
// breadth-first order over root's nested mappings.
// Returns an *Error of kind KindFieldNotFound when no mapping holds field.
func (r Resolver) Resolve(root types.Mapping, field string) (types.Value, error) {
	queue := []types.Mapping{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, entry := range current {
			if entry.Key == field {
				if entry.Value == nil {
					return types.Null{}, nil
				}
				return entry.Value, nil
			}
			queue = r.enqueue(queue, entry.Value)
		}
	}

	return nil, fieldNotFound(field)
}

// enqueue appends v to the queue if it is a mapping, or, when descending
// sequences, every mapping reachable through v's nested sequences.
func (r Resolver) enqueue(queue []types.Mapping, v types.Value) []types.Mapping {
	switch node := v.(type) {
	case types.Mapping:
		return append(queue, node)
	case types.Sequence:
		if !r.DescendSequences {
			return queue
		}
		for _, elem := range node {
			queue = r.enqueue(queue, elem)
		}
		return queue
	default:
		return queue
	}
}

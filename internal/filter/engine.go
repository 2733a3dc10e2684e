// internal/filter/engine.go
package filter

import (
	"github.com/accumate/docfilter/internal/types"
)

/*
 * Batch filtering and grouping.
 *
 * Filter validates the spec, evaluates every document in input order and
 * collects survivors. When a group key is given, survivors are then
 * partitioned by the resolved value of that field.
 *
 * Fail-fast: the first error aborts the whole call and no partial result is
 * returned. Errors carry the index (and store id, if any) of the document
 * that caused them.
 *
 * The engine keeps no state between calls, performs no I/O and never
 * mutates its inputs; a single Engine may be shared across goroutines.
 */

// Engine filters batches of documents.
type Engine struct {
	resolver Resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithDescendSequences makes field lookup also search mappings nested in
// sequence values.
func WithDescendSequences(descend bool) Option {
	return func(e *Engine) {
		e.resolver.DescendSequences = descend
	}
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a Filter call.
type Result struct {
	// Survivors holds every passing document, in input order.
	Survivors []types.Document
	// Groups is set only when a group key was requested.
	Groups *Grouped
}

// Count returns the number of surviving documents.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Survivors)
}

// Filter returns the documents satisfying spec, grouped by groupKey when it
// is non-empty. A nil or empty spec keeps every document.
func (e *Engine) Filter(docs []types.Document, spec *FilterSpec, groupKey string) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Survivors: make([]types.Document, 0, len(docs))}
	positions := make([]int, 0, len(docs))

	for i, doc := range docs {
		ok, err := matchDocument(e.resolver, doc.Root, spec)
		if err != nil {
			return nil, stampDocument(err, i, doc)
		}
		if ok {
			result.Survivors = append(result.Survivors, doc)
			positions = append(positions, i)
		}
	}

	if groupKey == "" {
		return result, nil
	}

	grouped := newGrouped(groupKey)
	for j, doc := range result.Survivors {
		key, err := e.resolver.Resolve(doc.Root, groupKey)
		if err != nil {
			if fe, ok := AsError(err); ok {
				fe.Message = "group key"
			}
			return nil, stampDocument(err, positions[j], doc)
		}
		grouped.add(key, doc)
	}
	result.Groups = grouped

	return result, nil
}

// FilterFlat returns the surviving documents in input order.
func (e *Engine) FilterFlat(docs []types.Document, spec *FilterSpec) ([]types.Document, error) {
	result, err := e.Filter(docs, spec, "")
	if err != nil {
		return nil, err
	}
	return result.Survivors, nil
}

// FilterGrouped returns the surviving documents partitioned by groupKey.
func (e *Engine) FilterGrouped(docs []types.Document, spec *FilterSpec, groupKey string) (*Grouped, error) {
	if groupKey == "" {
		return nil, malformedGroup("", "group key is empty")
	}
	result, err := e.Filter(docs, spec, groupKey)
	if err != nil {
		return nil, err
	}
	return result.Groups, nil
}

func stampDocument(err error, index int, doc types.Document) error {
	if fe, ok := AsError(err); ok {
		fe.withDocument(index, doc)
	}
	return err
}

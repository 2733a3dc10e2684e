// internal/filter/group.go
package filter

import (
	"github.com/accumate/docfilter/internal/types"
)

// Bucket holds the surviving documents that share one group key value.
type Bucket struct {
	Key       types.Value
	Documents []types.Document
}

// Grouped is an ordered partition of survivors by the value of one field.
// Buckets appear in the order their key was first seen; documents within a
// bucket keep input order. Keys are matched with types.Equal semantics, so
// 1 and 1.0 share a bucket. NaN keys are the exception: they all share one
// bucket, reachable through Get with any NaN.
type Grouped struct {
	Field   string
	Buckets []Bucket
	index   map[string]int
}

func newGrouped(field string) *Grouped {
	return &Grouped{Field: field, index: make(map[string]int)}
}

func (g *Grouped) add(key types.Value, doc types.Document) {
	ck := types.CanonicalKey(key)
	if i, ok := g.index[ck]; ok {
		g.Buckets[i].Documents = append(g.Buckets[i].Documents, doc)
		return
	}
	g.index[ck] = len(g.Buckets)
	g.Buckets = append(g.Buckets, Bucket{Key: key, Documents: []types.Document{doc}})
}

// Get returns the documents grouped under key.
func (g *Grouped) Get(key types.Value) ([]types.Document, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[types.CanonicalKey(key)]
	if !ok {
		return nil, false
	}
	return g.Buckets[i].Documents, true
}

// Keys returns the bucket keys in first-seen order.
func (g *Grouped) Keys() []types.Value {
	if g == nil {
		return nil
	}
	keys := make([]types.Value, len(g.Buckets))
	for i, b := range g.Buckets {
		keys[i] = b.Key
	}
	return keys
}

// Len returns the number of buckets.
func (g *Grouped) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Buckets)
}

// Total returns the number of documents across all buckets.
func (g *Grouped) Total() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Documents)
	}
	return n
}

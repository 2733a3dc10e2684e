// Package types provides the document model shared across docfilter components.
//
// Zero-dependency design: value.go, native.go and errors.go use only the
// standard library so the filter core stays free of transport and storage
// concerns. ID utilities in ids.go import uuid but are isolated from the
// value model.
//
// Wire formats are not handled here: JSON and YAML decoding live in
// internal/codec, protobuf conversion lives in internal/core/api.
package types

import "fmt"

// DocumentID identifies a stored document (UUIDv7). Inline documents that
// never touched the store carry an empty ID.
type DocumentID string

// Document is one record in a filter batch. The engine reads Root only; it
// never mutates either field.
type Document struct {
	ID   DocumentID
	Root Mapping
}

// NewDocument wraps root as an unidentified document.
func NewDocument(root Mapping) Document {
	return Document{Root: root}
}

// Documents wraps each root as an unidentified document, preserving order.
func Documents(roots ...Mapping) []Document {
	docs := make([]Document, len(roots))
	for i, r := range roots {
		docs[i] = Document{Root: r}
	}
	return docs
}

// Resource limits enforced at the service boundary. The filter core itself
// is unbounded; callers needing interactive latency bound the batch.
const (
	// MaxBatchSize caps documents per gRPC filter request.
	// 10k documents keeps a linear scan well under a second for typical shapes.
	MaxBatchSize = 10000

	// MaxDocumentSize limits a single stored document body.
	// 1MB mirrors typical JSON API payload limits.
	MaxDocumentSize = 1024 * 1024

	// MaxCollectionsPerRequest bounds concurrent store reads per request.
	MaxCollectionsPerRequest = 16
)

// MaxCollectionNameLength bounds stored collection names.
const MaxCollectionNameLength = 128

// ValidateCollection checks a collection name: 1-128 characters drawn from
// ASCII letters, digits, '_', '-' and '.'.
func ValidateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCollection)
	}
	if len(name) > MaxCollectionNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidCollection, MaxCollectionNameLength)
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidCollection, name, c)
		}
	}
	return nil
}

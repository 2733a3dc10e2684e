// internal/core/db/documents.go
package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/accumate/docfilter/internal/codec"
	"github.com/accumate/docfilter/internal/types"
)

/*
 * DocumentStore persists named collections of documents.
 *
 * Bodies are stored as order-preserving JSON text (codec.EncodeJSON), so a
 * document read back resolves fields in the same first-match order it was
 * written with. List returns a collection in insertion order (the seq
 * column), which is the order the filter engine sees.
 *
 * Documents are immutable once stored: a collection is replaced by
 * deleting and reloading it.
 */

// CollectionInfo summarises one stored collection.
type CollectionInfo struct {
	Name      string `db:"name"`
	Documents int64  `db:"documents"`
}

type documentRow struct {
	DocumentID string `db:"document_id"`
	Body       string `db:"body"`
}

// DocumentStore reads and writes documents through named queries.
type DocumentStore struct {
	queries *Queries
	logger  *zap.Logger
}

// NewDocumentStore creates a store over queries. A nil logger is replaced
// with a no-op logger.
func NewDocumentStore(queries *Queries, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{queries: queries, logger: logger}
}

// Insert stores doc in collection and returns its ID, generating a UUIDv7
// when doc.ID is empty.
func (s *DocumentStore) Insert(ctx context.Context, collection string, doc types.Document) (types.DocumentID, error) {
	ids, err := s.InsertMany(ctx, collection, []types.Document{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany stores docs in one transaction, in order. Either every
// document is stored or none is.
func (s *DocumentStore) InsertMany(ctx context.Context, collection string, docs []types.Document) ([]types.DocumentID, error) {
	if err := types.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if len(docs) > types.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d documents", types.ErrBatchTooLarge, len(docs))
	}

	rows := make([]documentRow, len(docs))
	for i, doc := range docs {
		row, err := encodeDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		rows[i] = row
	}

	tx, err := s.queries.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txq := s.queries.WithTx(tx)
	now := time.Now().UTC()
	ids := make([]types.DocumentID, len(rows))
	for i, row := range rows {
		if _, err := txq.ExecContext(ctx, "insert-document", row.DocumentID, collection, row.Body, now); err != nil {
			return nil, fmt.Errorf("failed to insert document %d: %w", i, err)
		}
		ids[i] = types.DocumentID(row.DocumentID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit documents: %w", err)
	}

	s.logger.Debug("Stored documents",
		zap.String("collection", collection),
		zap.Int("count", len(ids)))
	return ids, nil
}

// List returns every document in collection in insertion order. An
// unknown collection yields an empty slice.
func (s *DocumentStore) List(ctx context.Context, collection string) ([]types.Document, error) {
	if err := types.ValidateCollection(collection); err != nil {
		return nil, err
	}

	var rows []documentRow
	if err := s.queries.SelectContext(ctx, "list-documents", &rows, collection); err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	docs := make([]types.Document, len(rows))
	for i, row := range rows {
		root, err := codec.DecodeDocument([]byte(row.Body))
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", row.DocumentID, err)
		}
		docs[i] = types.Document{ID: types.DocumentID(row.DocumentID), Root: root}
	}
	return docs, nil
}

// Count returns the number of documents in collection.
func (s *DocumentStore) Count(ctx context.Context, collection string) (int64, error) {
	if err := types.ValidateCollection(collection); err != nil {
		return 0, err
	}
	var n int64
	if err := s.queries.GetContext(ctx, "count-documents", &n, collection); err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return n, nil
}

// Collections lists stored collections by name.
func (s *DocumentStore) Collections(ctx context.Context) ([]CollectionInfo, error) {
	infos := []CollectionInfo{}
	if err := s.queries.SelectContext(ctx, "list-collections", &infos); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return infos, nil
}

// Delete removes every document in collection and returns how many were
// removed.
func (s *DocumentStore) Delete(ctx context.Context, collection string) (int64, error) {
	if err := types.ValidateCollection(collection); err != nil {
		return 0, err
	}
	res, err := s.queries.ExecContext(ctx, "delete-collection", collection)
	if err != nil {
		return 0, fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Info("Deleted collection",
		zap.String("collection", collection),
		zap.Int64("count", n))
	return n, nil
}

func encodeDocument(doc types.Document) (documentRow, error) {
	id := doc.ID
	if id == "" {
		id = types.NewDocumentID()
	} else if _, err := types.ParseDocumentID(string(id)); err != nil {
		return documentRow{}, fmt.Errorf("invalid document id %q: %w", id, err)
	}

	body, err := codec.EncodeJSON(doc.Root)
	if err != nil {
		return documentRow{}, err
	}
	if len(body) > types.MaxDocumentSize {
		return documentRow{}, fmt.Errorf("%w: %d bytes", types.ErrDocumentTooLarge, len(body))
	}
	return documentRow{DocumentID: string(id), Body: string(body)}, nil
}

package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks legal-rag/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentStore defines the interface for document status operations.
type DocumentStore interface {
	// Get gets a document by source. Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, source string) (*DocumentRecord, error)
	// Upsert inserts a new document or replaces the existing one.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// List returns all documents ordered by source.
	List(ctx context.Context) ([]*DocumentRecord, error)
	// DeleteAll removes every document row.
	DeleteAll(ctx context.Context) error
}

// DocumentRepo implements DocumentStore on SQLite.
type DocumentRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db, now: time.Now}
}

const documentColumns = "source, content_hash, status, chunk_count, record_count, error, updated_at"

// Get gets a document by source.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) Get(ctx context.Context, source string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE source = ?", source)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// Upsert inserts a new document or replaces the existing one. UpdatedAt is
// set to the current time.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	if doc.Source == "" {
		return errors.New("document source is required")
	}
	doc.UpdatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source) DO UPDATE SET
		 content_hash = excluded.content_hash, status = excluded.status,
		 chunk_count = excluded.chunk_count, record_count = excluded.record_count,
		 error = excluded.error, updated_at = excluded.updated_at`,
		doc.Source, doc.ContentHash, string(doc.Status), doc.ChunkCount, doc.RecordCount, doc.Error, formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// List returns all documents ordered by source.
func (r *DocumentRepo) List(ctx context.Context) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// DeleteAll removes every document row. A fresh (non-resumed) run starts here.
func (r *DocumentRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var status, updatedAt string
	if err := row.Scan(&doc.Source, &doc.ContentHash, &status, &doc.ChunkCount, &doc.RecordCount, &doc.Error, &updatedAt); err != nil {
		return nil, err
	}
	doc.Status = DocumentStatus(status)

	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	doc.UpdatedAt = t
	return &doc, nil
}

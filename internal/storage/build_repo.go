package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_build_store.go -package=mocks legal-rag/internal/storage BuildStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BuildStore defines the interface for index build manifests.
type BuildStore interface {
	// Insert records a build. An empty ID is filled with a new UUID.
	Insert(ctx context.Context, build *BuildRecord) error
	// Latest returns the most recent build, or ErrNotFound if none exists.
	Latest(ctx context.Context) (*BuildRecord, error)
}

// BuildRepo implements BuildStore on SQLite.
type BuildRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewBuildRepo creates a new BuildRepo.
func NewBuildRepo(db *sql.DB) *BuildRepo {
	return &BuildRepo{db: db, now: time.Now}
}

// Insert records a build. An empty ID is filled with a new UUID and a zero
// CreatedAt with the current time.
func (r *BuildRepo) Insert(ctx context.Context, build *BuildRecord) error {
	if build.ID == "" {
		build.ID = uuid.New().String()
	}
	if build.CreatedAt.IsZero() {
		build.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO builds (id, vector_count, dimension, log_sha256, index_sha256, meta_sha256, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		build.ID, build.VectorCount, build.Dimension, build.LogSHA256, build.IndexSHA256, build.MetaSHA256, formatTime(build.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}
	return nil
}

// Latest returns the most recent build.
// Returns nil and ErrNotFound if no build was recorded.
func (r *BuildRepo) Latest(ctx context.Context) (*BuildRecord, error) {
	var build BuildRecord
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, vector_count, dimension, log_sha256, index_sha256, meta_sha256, created_at
		 FROM builds ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&build.ID, &build.VectorCount, &build.Dimension, &build.LogSHA256, &build.IndexSHA256, &build.MetaSHA256, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest build: %w", err)
	}

	build.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &build, nil
}

package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// DocumentStatus is the ingestion state of a corpus document.
type DocumentStatus string

const (
	// StatusComplete means every record of the document is in the embedding log.
	StatusComplete DocumentStatus = "complete"
	// StatusFailed means the document was skipped; Error says why.
	StatusFailed DocumentStatus = "failed"
)

// DocumentRecord is the catalog row for one corpus document.
type DocumentRecord struct {
	Source      string // File name without extension
	ContentHash string // SHA256 hex of the file bytes
	Status      DocumentStatus
	ChunkCount  int
	RecordCount int
	Error       string
	UpdatedAt   time.Time
}

// BuildRecord is the manifest of one index build.
type BuildRecord struct {
	ID          string // UUID
	VectorCount int
	Dimension   int
	LogSHA256   string
	IndexSHA256 string
	MetaSHA256  string
	CreatedAt   time.Time
}

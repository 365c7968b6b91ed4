package index

import (
	"fmt"
	"io"
	"os"

	"legal-rag/internal/embedlog"
)

// Metadata is the table row aligned with an index position.
type Metadata struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	ChunkID string `json:"chunk_id"`
}

// Build reads the embedding log top to bottom and returns the index and its
// aligned metadata table. The first vector fixes the dimension; a later
// mismatch fails with ErrDimensionMismatch naming the line.
func Build(r io.Reader) (*Store, error) {
	var x *FlatIndex
	var meta []Metadata

	err := embedlog.Scan(r, func(line int, rec embedlog.Record) error {
		if x == nil {
			var err error
			if x, err = NewFlatIndex(len(rec.Embedding)); err != nil {
				return err
			}
		}
		if err := x.Add(rec.Embedding); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		meta = append(meta, Metadata{Text: rec.Text, Source: rec.Source, ChunkID: rec.ChunkID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, ErrEmptyLog
	}

	return NewStore(x, meta)
}

// BuildFile builds from the embedding log at path.
func BuildFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Build(f)
}

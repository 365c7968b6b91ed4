// Package embedlog reads and writes the append-only embedding log: one JSON
// object per line, one line per sub-chunk, in sub-chunk order.
package embedlog

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

var (
	// ErrMalformedRecord is returned when a log line fails to parse or misses a required field.
	ErrMalformedRecord = errors.New("malformed embedding record")
	// ErrDimensionMismatch is returned when a vector length disagrees with the log's dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

var chunkIDPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Record is one embedded sub-chunk.
type Record struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Source    string    `json:"source"`
	ChunkID   string    `json:"chunk_id"`
}

// rawRecord distinguishes missing fields from zero values while decoding.
type rawRecord struct {
	Text      *string   `json:"text"`
	Embedding []float32 `json:"embedding"`
	Source    *string   `json:"source"`
	ChunkID   *string   `json:"chunk_id"`
}

func (r rawRecord) record() (Record, error) {
	switch {
	case r.Text == nil:
		return Record{}, fmt.Errorf("missing field %q", "text")
	case r.Embedding == nil:
		return Record{}, fmt.Errorf("missing field %q", "embedding")
	case r.Source == nil:
		return Record{}, fmt.Errorf("missing field %q", "source")
	case r.ChunkID == nil:
		return Record{}, fmt.Errorf("missing field %q", "chunk_id")
	}
	rec := Record{
		Text:      *r.Text,
		Embedding: r.Embedding,
		Source:    *r.Source,
		ChunkID:   *r.ChunkID,
	}
	return rec, rec.Validate()
}

// Validate checks the fields every record must carry.
func (r Record) Validate() error {
	if len(r.Embedding) == 0 {
		return errors.New("embedding is empty")
	}
	for i, v := range r.Embedding {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding[%d] is not finite", i)
		}
	}
	if r.Source == "" {
		return errors.New("source is empty")
	}
	if !chunkIDPattern.MatchString(r.ChunkID) {
		return fmt.Errorf("chunk_id %q is not of the form i.j", r.ChunkID)
	}
	return nil
}

package embedlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer appends records to an embedding log. The first record written (or
// found in an existing log) fixes the vector dimension for the whole log.
type Writer struct {
	buf    *bufio.Writer
	closer io.Closer
	file   *os.File
	dim    int
	count  int
}

// NewWriter wraps w. The dimension is fixed by the first record.
func NewWriter(w io.Writer) *Writer {
	writer := &Writer{buf: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		writer.closer = c
	}
	return writer
}

// Create truncates (or creates) the log at path.
func Create(path string) (*Writer, error) {
	w, err := Reserve(path)
	if err != nil {
		return nil, err
	}
	if err := w.Truncate(); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Reserve opens (or creates) the log at path for writing but leaves any
// existing content in place until Truncate is called.
func Reserve(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding log: %w", err)
	}
	w := NewWriter(f)
	w.file = f
	return w, nil
}

// Truncate empties a reserved log. It must be called before the first write.
func (w *Writer) Truncate() error {
	if w.file == nil {
		return errors.New("embedding log is not a reserved file")
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate embedding log: %w", err)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind embedding log: %w", err)
	}
	w.dim, w.count = 0, 0
	return nil
}

// Append opens the log at path for appending. Existing records are validated
// and their dimension carries over to new records.
func Append(path string) (*Writer, error) {
	dim, count := 0, 0
	existing, err := os.Open(path)
	switch {
	case err == nil:
		scanErr := Scan(existing, func(line int, rec Record) error {
			if dim == 0 {
				dim = len(rec.Embedding)
			} else if len(rec.Embedding) != dim {
				return fmt.Errorf("%w: line %d: got %d, want %d", ErrDimensionMismatch, line, len(rec.Embedding), dim)
			}
			count++
			return nil
		})
		_ = existing.Close()
		if scanErr != nil {
			return nil, scanErr
		}
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to open embedding log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding log for append: %w", err)
	}

	w := NewWriter(f)
	w.dim = dim
	w.count = count
	return w, nil
}

// Write validates rec and appends it as one line.
func (w *Writer) Write(rec Record) error {
	return w.WriteBatch([]Record{rec})
}

// WriteBatch appends all records and flushes, or writes none of them if any
// record is invalid.
func (w *Writer) WriteBatch(records []Record) error {
	dim := w.dim
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrMalformedRecord, i, err)
		}
		if dim == 0 {
			dim = len(rec.Embedding)
		} else if len(rec.Embedding) != dim {
			return fmt.Errorf("%w: source %s chunk %s: got %d, want %d",
				ErrDimensionMismatch, rec.Source, rec.ChunkID, len(rec.Embedding), dim)
		}
	}

	// Encode the whole batch before any of it reaches the log.
	var batch bytes.Buffer
	enc := json.NewEncoder(&batch)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	if _, err := w.buf.Write(batch.Bytes()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush embedding log: %w", err)
	}

	w.dim = dim
	w.count += len(records)
	return nil
}

// Dim returns the log dimension, or 0 before the first record.
func (w *Writer) Dim() int {
	return w.dim
}

// Count returns the number of records in the log.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes buffered output and closes the underlying file, if any.
// Closing twice is a no-op.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush embedding log: %w", err)
	}
	if w.closer == nil {
		return nil
	}
	c := w.closer
	w.closer = nil
	return c.Close()
}

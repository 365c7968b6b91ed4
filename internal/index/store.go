package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Hit is a search result resolved against the metadata table.
type Hit struct {
	Metadata
	Position int
	Distance float32
}

// Store pairs a FlatIndex with its metadata table. It is read-only after
// construction and safe for concurrent searches.
type Store struct {
	index *FlatIndex
	meta  []Metadata
}

// NewStore pairs x with meta. Both must have the same length.
func NewStore(x *FlatIndex, meta []Metadata) (*Store, error) {
	if x.Len() != len(meta) {
		return nil, fmt.Errorf("%w: %d vectors, %d metadata rows", ErrMisalignment, x.Len(), len(meta))
	}
	return &Store{index: x, meta: meta}, nil
}

// Len returns the number of indexed vectors.
func (s *Store) Len() int {
	return s.index.Len()
}

// Dim returns the vector dimension.
func (s *Store) Dim() int {
	return s.index.Dim()
}

// Index returns the underlying vector index.
func (s *Store) Index() *FlatIndex {
	return s.index
}

// Metadata returns the metadata table in position order.
func (s *Store) Metadata() []Metadata {
	return s.meta
}

// Search returns the k nearest hits to query.
func (s *Store) Search(_ context.Context, query []float32, k int) ([]Hit, error) {
	neighbors, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = Hit{Metadata: s.meta[n.ID], Position: n.ID, Distance: n.Distance}
	}
	return hits, nil
}

// Checksums holds the sha256 hex digests of the saved artifacts.
type Checksums struct {
	Index    string
	Metadata string
}

// Save writes the index and metadata files atomically and returns their checksums.
func (s *Store) Save(indexPath, metaPath string) (Checksums, error) {
	indexSum, err := writeFileAtomic(indexPath, func(w io.Writer) error {
		_, err := s.index.WriteTo(w)
		return err
	})
	if err != nil {
		return Checksums{}, fmt.Errorf("failed to save index: %w", err)
	}

	metaSum, err := writeFileAtomic(metaPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.meta)
	})
	if err != nil {
		return Checksums{}, fmt.Errorf("failed to save metadata: %w", err)
	}

	return Checksums{Index: indexSum, Metadata: metaSum}, nil
}

// Load reads the index and metadata files and checks that they align.
func Load(indexPath, metaPath string) (*Store, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	x, err := ReadFlatIndex(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta []Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return NewStore(x, meta)
}

// FileSHA256 returns the sha256 hex digest of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path once fully synced. It returns the sha256 of what was written.
func writeFileAtomic(path string, write func(io.Writer) error) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	h := sha256.New()
	if err := write(io.MultiWriter(tmp, h)); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Package index builds, persists and searches the flat exact-L2 vector index
// and its aligned metadata table.
package index

import (
	"errors"
	"fmt"
	"slices"

	"legal-rag/internal/embedlog"
)

var (
	// ErrDimensionMismatch is returned when a vector length disagrees with the index dimension.
	ErrDimensionMismatch = embedlog.ErrDimensionMismatch
	// ErrMisalignment is returned when the index and metadata table differ in length.
	ErrMisalignment = errors.New("index and metadata are misaligned")
	// ErrEmptyLog is returned when a build finds no records.
	ErrEmptyLog = errors.New("embedding log is empty")
	// ErrCorruptIndex is returned when an index file fails to decode or its checksum differs.
	ErrCorruptIndex = errors.New("corrupt index file")
)

// Neighbor is one search result: a position in insertion order and its
// squared L2 distance from the query.
type Neighbor struct {
	ID       int
	Distance float32
}

// FlatIndex stores vectors contiguously and answers exact nearest-neighbour
// queries by scanning all of them.
type FlatIndex struct {
	dim  int
	data []float32
}

// NewFlatIndex creates an empty index of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim returns the vector dimension.
func (x *FlatIndex) Dim() int {
	return x.dim
}

// Len returns the number of stored vectors.
func (x *FlatIndex) Len() int {
	return len(x.data) / x.dim
}

// Add appends vec at position Len().
func (x *FlatIndex) Add(vec []float32) error {
	if len(vec) != x.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), x.dim)
	}
	x.data = append(x.data, vec...)
	return nil
}

// Vector returns the stored vector at position i.
func (x *FlatIndex) Vector(i int) []float32 {
	return x.data[i*x.dim : (i+1)*x.dim : (i+1)*x.dim]
}

// Search returns the k nearest vectors to query, ascending by distance.
// Equal distances keep insertion order. k larger than Len returns all vectors.
func (x *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(query), x.dim)
	}

	n := x.Len()
	all := make([]Neighbor, n)
	for i := 0; i < n; i++ {
		all[i] = Neighbor{ID: i, Distance: squaredL2(query, x.Vector(i))}
	}

	slices.SortStableFunc(all, func(a, b Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	if k > n {
		k = n
	}
	return all[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

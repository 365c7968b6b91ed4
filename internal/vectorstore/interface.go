// Package vectorstore mirrors the built index into a Qdrant collection and
// serves searches from it.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks legal-rag/internal/vectorstore VectorStore

import "context"

// Point is one mirrored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is one nearest point. Score is the collection metric, the
// plain Euclidean distance for collections created by ResetCollection.
type SearchResult struct {
	PointID string
	Score   float32
	Payload map[string]any
}

// VectorStore is the collection API the mirror and the searcher need.
type VectorStore interface {
	// ResetCollection drops collection if it exists and creates it empty
	// with Euclidean distance and the given vector size.
	ResetCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert writes points, replacing any with the same ID.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points to query, nearest first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Count returns the exact number of points in collection.
	Count(ctx context.Context, collection string) (int, error)
}

package vectorstore

import (
	"context"
	"fmt"
	"slices"

	"legal-rag/internal/index"
)

// CollectionSearcher serves index searches from a mirrored collection.
type CollectionSearcher struct {
	store      VectorStore
	collection string
}

// NewCollectionSearcher creates a searcher over collection.
func NewCollectionSearcher(store VectorStore, collection string) *CollectionSearcher {
	return &CollectionSearcher{store: store, collection: collection}
}

// Search returns the k nearest hits to query, ascending by squared L2
// distance with ties broken by index position.
func (s *CollectionSearcher) Search(ctx context.Context, query []float32, k int) ([]index.Hit, error) {
	results, err := s.store.Search(ctx, s.collection, query, k)
	if err != nil {
		return nil, err
	}

	hits := make([]index.Hit, len(results))
	for i, r := range results {
		hit, err := hitFromResult(r)
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", r.PointID, err)
		}
		hits[i] = hit
	}

	slices.SortStableFunc(hits, func(a, b index.Hit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return a.Position - b.Position
	})
	return hits, nil
}

// hitFromResult decodes a mirrored payload. Qdrant reports the plain
// Euclidean distance, which is squared to match the flat index.
func hitFromResult(r SearchResult) (index.Hit, error) {
	text, _ := r.Payload["text"].(string)
	source, ok := r.Payload["source"].(string)
	if !ok {
		return index.Hit{}, fmt.Errorf("payload has no source")
	}
	chunkID, ok := r.Payload["chunk_id"].(string)
	if !ok {
		return index.Hit{}, fmt.Errorf("payload has no chunk_id")
	}

	var position int
	switch p := r.Payload["position"].(type) {
	case int64:
		position = int(p)
	case float64:
		position = int(p)
	case int:
		position = p
	default:
		return index.Hit{}, fmt.Errorf("payload has no position")
	}

	return index.Hit{
		Metadata: index.Metadata{Text: text, Source: source, ChunkID: chunkID},
		Position: position,
		Distance: r.Score * r.Score,
	}, nil
}

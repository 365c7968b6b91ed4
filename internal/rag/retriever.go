package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"legal-rag/internal/contextutil"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// ErrInvalidK is returned for a non-positive retrieval depth.
var ErrInvalidK = errors.New("k must be greater than 0")

// Retriever embeds a question and looks up its nearest chunks.
type Retriever struct {
	embedder Embedder
	searcher Searcher
}

// NewRetriever creates a retriever.
func NewRetriever(embedder Embedder, searcher Searcher) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher}
}

// Retrieve returns up to k chunks nearest to question, ascending by distance.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]RetrievedChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}

	query, err := r.embedder.Embed(ctx, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := r.searcher.Search(ctx, query, k)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search index", "error", err)
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	chunks := make([]RetrievedChunk, len(hits))
	for i, hit := range hits {
		chunks[i] = RetrievedChunk{
			Text:     hit.Text,
			Source:   hit.Source,
			ChunkID:  hit.ChunkID,
			Distance: hit.Distance,
			Rank:     i,
		}
		logger.DebugContext(ctx, "retrieved chunk",
			slog.Int("rank", i),
			slog.String("source", hit.Source),
			slog.String("chunk_id", hit.ChunkID),
			slog.Float64("distance", float64(hit.Distance)),
			slog.Int("text_length", len(hit.Text)))
	}

	logger.InfoContext(ctx, "retrieval completed", "results_count", len(chunks), "k_requested", k)
	return chunks, nil
}

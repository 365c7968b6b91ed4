package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag.go -package=mocks legal-rag/internal/rag Embedder,Generator,Searcher

import (
	"context"

	"legal-rag/internal/index"
	"legal-rag/internal/llm"
)

// Embedder turns text into a vector. It must be the embedder the index was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
}

// Searcher returns the k nearest indexed chunks to a query vector,
// ascending by distance.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]index.Hit, error)
}

// RetrievedChunk represents a retrieved chunk with its distance and rank.
type RetrievedChunk struct {
	// Text is the chunk text as stored in the metadata table.
	Text string `json:"text"`
	// Source is the document the chunk came from.
	Source string `json:"source"`
	// ChunkID is the "chunk.sub" identifier within the source.
	ChunkID string `json:"chunk_id"`
	// Distance is the squared L2 distance from the query.
	Distance float32 `json:"distance"`
	// Rank is the 0-based position in the retrieval results.
	Rank int `json:"rank"`
}

// Answer is the generation output for one question.
type Answer struct {
	// Text is the model output, unmodified.
	Text string `json:"answer"`
	// Refused is true when Text is the refusal sentinel.
	Refused bool `json:"refused"`
	// Chunks are the retrieved chunks the answer was grounded on.
	Chunks []RetrievedChunk `json:"chunks"`
}

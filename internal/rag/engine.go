package rag

import (
	"context"
	"fmt"
	"time"

	"legal-rag/internal/contextutil"
)

// Engine answers questions from the indexed legal corpus.
type Engine interface {
	// Ask retrieves the k nearest chunks to question and generates a grounded answer.
	Ask(ctx context.Context, question string, k int) (Answer, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	retriever *Retriever
	answerer  *AnswerEngine
}

// NewEngine creates a new RAG engine.
func NewEngine(retriever *Retriever, answerer *AnswerEngine) Engine {
	return &ragEngine{retriever: retriever, answerer: answerer}
}

// Ask answers a question using RAG. Each call is independent; no history is kept.
func (e *ragEngine) Ask(ctx context.Context, question string, k int) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	logger.InfoContext(ctx, "RAG query started", "question_length", len(question), "k", k)

	chunks, err := e.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to retrieve chunks: %w", err)
	}

	answer, err := e.answerer.Answer(ctx, question, chunks)
	if err != nil {
		return Answer{}, err
	}

	logger.InfoContext(ctx, "RAG query completed",
		"chunks_used", len(answer.Chunks),
		"refused", answer.Refused,
		"answer_length", len(answer.Text),
		"duration", time.Since(start))
	return answer, nil
}

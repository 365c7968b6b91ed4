package service

import (
	"context"
	"errors"
	"fmt"

	"legal-rag/internal/index"
	"legal-rag/internal/llm"
	"legal-rag/internal/rag"
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Diagnostic returns a short user-facing message for err.
func Diagnostic(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return fmt.Sprintf("%s %s", ve.Field, ve.Message)
	case errors.Is(err, llm.ErrEmbeddingService):
		return "embedding service unavailable, check that Ollama is running and the embedding model is pulled"
	case errors.Is(err, llm.ErrGenerationService):
		return "generation service unavailable, check that Ollama is running and the chat model is pulled"
	case errors.Is(err, index.ErrDimensionMismatch):
		return "query embedding does not match the index, rebuild it with the current embedding model"
	case errors.Is(err, rag.ErrInvalidK):
		return "k must be greater than 0"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	default:
		return "unexpected error: " + err.Error()
	}
}

// IsServiceFailure reports whether err came from the embedding or generation service.
func IsServiceFailure(err error) bool {
	return errors.Is(err, llm.ErrEmbeddingService) || errors.Is(err, llm.ErrGenerationService)
}

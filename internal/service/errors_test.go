package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"legal-rag/internal/index"
	"legal-rag/internal/llm"
	"legal-rag/internal/rag"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "k", Message: "must be at most 20"}
	if got, want := err.Error(), "validation error on field k: must be at most 20"; got != want {
		t.Errorf("ValidationError.Error() = %q, want %q", got, want)
	}

	var ve *ValidationError
	if !errors.As(fmt.Errorf("ask: %w", err), &ve) || ve.Field != "k" {
		t.Errorf("errors.As() through wrapping = %v", ve)
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "failed to answer question") != nil {
		t.Error("WrapError(nil) should be nil")
	}

	got := WrapError(llm.ErrGenerationService, "failed to answer question")
	if !errors.Is(got, llm.ErrGenerationService) {
		t.Errorf("WrapError() = %v, should wrap the cause", got)
	}
	if want := "failed to answer question: " + llm.ErrGenerationService.Error(); got.Error() != want {
		t.Errorf("WrapError() = %q, want %q", got.Error(), want)
	}
}

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: &ValidationError{Field: "question", Message: "cannot be empty"}, want: "question cannot be empty"},
		{name: "embedding", err: fmt.Errorf("retrieve: %w", llm.ErrEmbeddingService), want: "embedding service unavailable"},
		{name: "generation", err: WrapError(llm.ErrGenerationService, "answer"), want: "generation service unavailable"},
		{name: "dimension", err: fmt.Errorf("search: %w", index.ErrDimensionMismatch), want: "rebuild it"},
		{name: "k", err: fmt.Errorf("retrieve: %w", rag.ErrInvalidK), want: "k must be greater than 0"},
		{name: "timeout", err: context.DeadlineExceeded, want: "request timed out"},
		{name: "cancelled", err: WrapError(context.Canceled, "ask"), want: "request cancelled"},
		{name: "other", err: errors.New("disk on fire"), want: "unexpected error: disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diagnostic(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("Diagnostic() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Diagnostic() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestIsServiceFailure(t *testing.T) {
	if !IsServiceFailure(WrapError(llm.ErrEmbeddingService, "x")) {
		t.Error("IsServiceFailure(embedding) = false, want true")
	}
	if !IsServiceFailure(fmt.Errorf("x: %w", llm.ErrGenerationService)) {
		t.Error("IsServiceFailure(generation) = false, want true")
	}
	if IsServiceFailure(&ValidationError{Field: "question"}) {
		t.Error("IsServiceFailure(validation) = true, want false")
	}
}

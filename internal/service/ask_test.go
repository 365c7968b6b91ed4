package service

import (
	"context"
	"errors"
	"testing"

	"legal-rag/internal/llm"
	"legal-rag/internal/rag"
)

// stubEngine records the last call and returns a fixed answer.
type stubEngine struct {
	answer   rag.Answer
	err      error
	calls    int
	question string
	k        int
}

func (s *stubEngine) Ask(_ context.Context, question string, k int) (rag.Answer, error) {
	s.calls++
	s.question = question
	s.k = k
	return s.answer, s.err
}

func TestAskService_Ask(t *testing.T) {
	tests := []struct {
		name      string
		req       AskRequest
		engine    *stubEngine
		wantField string
		wantK     int
		wantErr   error
		wantCalls int
	}{
		{
			name:      "default k",
			req:       AskRequest{Question: "  What must directors disclose?  "},
			engine:    &stubEngine{answer: rag.Answer{Text: "Section 4.", Chunks: []rag.RetrievedChunk{{ChunkID: "0.0"}}}},
			wantK:     3,
			wantCalls: 1,
		},
		{
			name:      "explicit k",
			req:       AskRequest{Question: "q", K: 5},
			engine:    &stubEngine{},
			wantK:     5,
			wantCalls: 1,
		},
		{
			name:      "empty question",
			req:       AskRequest{Question: "   "},
			engine:    &stubEngine{},
			wantField: "question",
		},
		{
			name:      "negative k",
			req:       AskRequest{Question: "q", K: -1},
			engine:    &stubEngine{},
			wantField: "k",
		},
		{
			name:      "k above cap",
			req:       AskRequest{Question: "q", K: MaxTopK + 1},
			engine:    &stubEngine{},
			wantField: "k",
		},
		{
			name:      "engine failure",
			req:       AskRequest{Question: "q"},
			engine:    &stubEngine{err: llm.ErrGenerationService},
			wantErr:   llm.ErrGenerationService,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAskService(tt.engine, 0)
			resp, err := svc.Ask(context.Background(), tt.req)

			if tt.engine.calls != tt.wantCalls {
				t.Errorf("engine called %d times, want %d", tt.engine.calls, tt.wantCalls)
			}

			if tt.wantField != "" {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Ask() error = %v, want ValidationError", err)
				}
				if ve.Field != tt.wantField {
					t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.wantField)
				}
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Ask() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ask() unexpected error: %v", err)
			}

			if tt.engine.k != tt.wantK {
				t.Errorf("engine k = %d, want %d", tt.engine.k, tt.wantK)
			}
			if tt.engine.question != "What must directors disclose?" && tt.name == "default k" {
				t.Errorf("engine question = %q, want trimmed question", tt.engine.question)
			}
			if resp.Answer != tt.engine.answer.Text || len(resp.Chunks) != len(tt.engine.answer.Chunks) {
				t.Errorf("Ask() = %+v, want answer of %+v", resp, tt.engine.answer)
			}
		})
	}
}

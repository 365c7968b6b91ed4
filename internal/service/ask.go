package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ask_service.go -package=mocks legal-rag/internal/service AskService

import (
	"context"
	"strings"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/rag"
)

// MaxTopK caps the retrieval depth a caller may request.
const MaxTopK = 20

// AskRequest represents a question in the domain layer.
type AskRequest struct {
	Question string
	// K is the retrieval depth. Zero selects the service default.
	K int
}

// AskResponse represents an answer in the domain layer.
type AskResponse struct {
	Answer  string
	Refused bool
	Chunks  []rag.RetrievedChunk
}

// AskService answers legal questions.
type AskService interface {
	// Ask validates req and answers it from the indexed corpus.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// askService implements AskService.
type askService struct {
	engine rag.Engine
	topK   int
}

// NewAskService creates a new AskService. A non-positive topK selects rag.DefaultTopK.
func NewAskService(engine rag.Engine, topK int) AskService {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &askService{engine: engine, topK: topK}
}

// Ask processes a question.
func (s *askService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in ask request")
		return AskResponse{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}

	k := req.K
	switch {
	case k == 0:
		k = s.topK
	case k < 0:
		return AskResponse{}, &ValidationError{Field: "k", Message: "must be greater than 0"}
	case k > MaxTopK:
		return AskResponse{}, &ValidationError{Field: "k", Message: "must be at most 20"}
	}

	answer, err := s.engine.Ask(ctx, question, k)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		return AskResponse{}, WrapError(err, "failed to answer question")
	}

	logger.InfoContext(ctx, "ask request processed successfully",
		"question_length", len(question),
		"refused", answer.Refused,
		"answer_length", len(answer.Text))

	return AskResponse{
		Answer:  answer.Text,
		Refused: answer.Refused,
		Chunks:  answer.Chunks,
	}, nil
}

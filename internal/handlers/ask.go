package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/service"
)

// AskHandler handles HTTP requests for legal questions.
type AskHandler struct {
	askService service.AskService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(askService service.AskService) *AskHandler {
	return &AskHandler{askService: askService}
}

// AskRequest represents the HTTP request payload for questions.
// This mirrors the service.AskRequest but is defined here for HTTP layer separation.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

// AskResponse represents the HTTP response payload for questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer, returned exactly as the model produced it
	Answer string `json:"answer"`

	// Refused is true when the answer is the not-found sentinel.
	Refused bool `json:"refused"`

	// Chunks are the retrieved passages the answer was grounded on, nearest first.
	Chunks []ChunkResponse `json:"chunks"`
}

// ChunkResponse represents a retrieved chunk in the HTTP response.
//
// swagger:model ChunkResponse
type ChunkResponse struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	ChunkID  string  `json:"chunk_id"`
	Distance float32 `json:"distance"`
	Rank     int     `json:"rank"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about the indexed legal documents
//
// Retrieves the nearest chunks and answers strictly from them. When the
// documents do not contain the answer, the answer is the refusal sentinel
// and refused is true.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with the retrieved chunks
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Bad request (empty question or invalid k)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: External service error (embedding or generation service unavailable)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.askService.Ask(ctx, service.AskRequest{Question: req.Question, K: req.K})
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case service.IsServiceFailure(err):
			logger.ErrorContext(ctx, "external service error", "error", err)
			writeError(w, http.StatusBadGateway, service.Diagnostic(err))
		default:
			logger.ErrorContext(ctx, "failed to answer question", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to answer question")
		}
		return
	}

	chunks := make([]ChunkResponse, len(resp.Chunks))
	for i, c := range resp.Chunks {
		chunks[i] = ChunkResponse{
			Text:     c.Text,
			Source:   c.Source,
			ChunkID:  c.ChunkID,
			Distance: c.Distance,
			Rank:     c.Rank,
		}
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:  resp.Answer,
		Refused: resp.Refused,
		Chunks:  chunks,
	})
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"legal-rag/internal/llm"
	"legal-rag/internal/rag"
	"legal-rag/internal/service"
	"legal-rag/internal/service/mocks"
)

func TestAskHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		setupMock      func(*mocks.MockAskService)
		expectedStatus int
		checkBody      func(*testing.T, *bytes.Buffer)
	}{
		{
			name:   "valid question",
			method: http.MethodPost,
			body:   `{"question":"Who must keep the register?"}`,
			setupMock: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{Question: "Who must keep the register?"}).
					Return(service.AskResponse{
						Answer: `"Every company shall keep a register of members."`,
						Chunks: []rag.RetrievedChunk{
							{Text: "Every company shall keep a register of members.", Source: "companies_act", ChunkID: "3.0", Distance: 0.25, Rank: 0},
						},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body *bytes.Buffer) {
				var resp AskResponse
				if err := json.NewDecoder(body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Refused {
					t.Error("Refused = true, want false")
				}
				if len(resp.Chunks) != 1 || resp.Chunks[0].ChunkID != "3.0" || resp.Chunks[0].Source != "companies_act" {
					t.Errorf("Chunks = %+v", resp.Chunks)
				}
			},
		},
		{
			name:   "refusal with explicit k",
			method: http.MethodPost,
			body:   `{"question":"What is the tax rate?","k":5}`,
			setupMock: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{Question: "What is the tax rate?", K: 5}).
					Return(service.AskResponse{Answer: rag.RefusalSentinel, Refused: true}, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body *bytes.Buffer) {
				var resp AskResponse
				if err := json.NewDecoder(body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Answer != rag.RefusalSentinel || !resp.Refused {
					t.Errorf("response = %+v, want refusal", resp)
				}
				if resp.Chunks == nil {
					t.Error("Chunks should encode as an empty array, not null")
				}
			},
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"question":"   "}`,
			setupMock: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, &service.ValidationError{Field: "question", Message: "cannot be empty"})
			},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body *bytes.Buffer) {
				if !strings.Contains(body.String(), "question") {
					t.Errorf("body = %s, want field name", body.String())
				}
			},
		},
		{
			name:   "embedding service failure",
			method: http.MethodPost,
			body:   `{"question":"Who must keep the register?"}`,
			setupMock: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, fmt.Errorf("failed to answer question: %w", llm.ErrEmbeddingService))
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:   "unexpected failure",
			method: http.MethodPost,
			body:   `{"question":"Who must keep the register?"}`,
			setupMock: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, errors.New("disk on fire"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "invalid JSON",
			method:         http.MethodPost,
			body:           `{invalid}`,
			setupMock:      func(*mocks.MockAskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			setupMock:      func(*mocks.MockAskService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockAskService(ctrl)
			tt.setupMock(mockService)

			handler := NewAskHandler(mockService)

			req := httptest.NewRequest(tt.method, "/api/v1/ask", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("ServeHTTP() status = %v, want %v (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.checkBody != nil {
				tt.checkBody(t, w.Body)
			}
		})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"legal-rag/internal/storage"
	storage_mocks "legal-rag/internal/storage/mocks"
)

type fixedIndex struct{ n, dim int }

func (f fixedIndex) Len() int { return f.n }
func (f fixedIndex) Dim() int { return f.dim }

func TestIndexHandler_ServeHTTP(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMock  func(*storage_mocks.MockBuildStore)
		wantStatus int
		wantBuild  bool
	}{
		{
			name: "with manifest",
			setupMock: func(m *storage_mocks.MockBuildStore) {
				m.EXPECT().Latest(gomock.Any()).Return(&storage.BuildRecord{
					ID: "build-1", VectorCount: 42, Dimension: 768, CreatedAt: created,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBuild:  true,
		},
		{
			name: "no builds yet",
			setupMock: func(m *storage_mocks.MockBuildStore) {
				m.EXPECT().Latest(gomock.Any()).Return(nil, storage.ErrNotFound)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "catalog failure",
			setupMock: func(m *storage_mocks.MockBuildStore) {
				m.EXPECT().Latest(gomock.Any()).Return(nil, errors.New("database is locked"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			builds := storage_mocks.NewMockBuildStore(ctrl)
			tt.setupMock(builds)

			handler := NewIndexHandler(fixedIndex{n: 42, dim: 768}, builds, "abc123")

			req := httptest.NewRequest(http.MethodGet, "/api/v1/index", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp IndexResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Vectors != 42 || resp.Dimension != 768 || resp.IndexVersion != "abc123" {
				t.Errorf("response = %+v", resp)
			}
			if (resp.Build != nil) != tt.wantBuild {
				t.Fatalf("Build = %+v, wantBuild %v", resp.Build, tt.wantBuild)
			}
			if tt.wantBuild && (resp.Build.ID != "build-1" || resp.Build.CreatedAt != "2026-03-01T12:00:00Z") {
				t.Errorf("Build = %+v", resp.Build)
			}
		})
	}
}

func TestIndexHandler_NoCatalog(t *testing.T) {
	handler := NewIndexHandler(fixedIndex{n: 3, dim: 2}, nil, "")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/index", nil))

	if w.Code != http.StatusOK {
		t.Errorf("ServeHTTP() status = %v, want %v", w.Code, http.StatusOK)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/storage"
)

// IndexStats describes the loaded index.
type IndexStats interface {
	Len() int
	Dim() int
}

// IndexHandler handles HTTP requests for the loaded index description.
type IndexHandler struct {
	index        IndexStats
	builds       storage.BuildStore
	indexVersion string
}

// NewIndexHandler creates a new IndexHandler. builds may be nil when no catalog is configured.
func NewIndexHandler(index IndexStats, builds storage.BuildStore, indexVersion string) *IndexHandler {
	return &IndexHandler{
		index:        index,
		builds:       builds,
		indexVersion: indexVersion,
	}
}

// IndexResponse represents the response from the index endpoint.
//
// swagger:model IndexResponse
type IndexResponse struct {
	Vectors      int            `json:"vectors"`
	Dimension    int            `json:"dimension"`
	IndexVersion string         `json:"index_version"`
	Build        *BuildResponse `json:"build,omitempty"`
}

// BuildResponse is the manifest of the latest build.
//
// swagger:model BuildResponse
type BuildResponse struct {
	ID          string `json:"id"`
	VectorCount int    `json:"vector_count"`
	Dimension   int    `json:"dimension"`
	LogSHA256   string `json:"log_sha256"`
	IndexSHA256 string `json:"index_sha256"`
	MetaSHA256  string `json:"meta_sha256"`
	CreatedAt   string `json:"created_at"`
}

// ServeHTTP handles HTTP requests for the index description.
//
// swagger:route GET /api/v1/index indexInfo
//
// # Describe the loaded index
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Index size and latest build manifest
//	  schema:
//	    "$ref": "#/definitions/IndexResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := IndexResponse{
		Vectors:      h.index.Len(),
		Dimension:    h.index.Dim(),
		IndexVersion: h.indexVersion,
	}

	if h.builds != nil {
		build, err := h.builds.Latest(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			logger.ErrorContext(ctx, "failed to load latest build", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load build manifest")
			return
		default:
			resp.Build = &BuildResponse{
				ID:          build.ID,
				VectorCount: build.VectorCount,
				Dimension:   build.Dimension,
				LogSHA256:   build.LogSHA256,
				IndexSHA256: build.IndexSHA256,
				MetaSHA256:  build.MetaSHA256,
				CreatedAt:   build.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"legal-rag/internal/contextutil"
)

// ModelChecker reports whether a model is available on the model server.
type ModelChecker interface {
	HasModel(ctx context.Context, name string) (bool, error)
}

// healthCheck is one named probe. It returns the issue to report, or "".
type healthCheck struct {
	name string
	run  func(ctx context.Context) string
}

// HealthHandler reports whether questions can be answered: the index holds
// vectors and both models are pulled on the model server.
type HealthHandler struct {
	checks  []healthCheck
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(models ModelChecker, index IndexStats, embedModel, chatModel string) *HealthHandler {
	modelCheck := func(check, model string) healthCheck {
		return healthCheck{name: check, run: func(ctx context.Context) string {
			logger := contextutil.LoggerFromContext(ctx)
			ok, err := models.HasModel(ctx, model)
			if err != nil {
				logger.WarnContext(ctx, "model server health check failed", "model", model, "error", err)
				return check + "_unavailable"
			}
			if !ok {
				logger.WarnContext(ctx, "model is not pulled", "model", model)
				return check + "_unavailable"
			}
			return ""
		}}
	}

	return &HealthHandler{
		checks: []healthCheck{
			{name: "index", run: func(context.Context) string {
				if index == nil || index.Len() == 0 {
					return "index_empty"
				}
				return ""
			}},
			modelCheck("embed_model", embedModel),
			modelCheck("chat_model", chatModel),
		},
		timeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Result per check: "ok" or "error"
	Checks map[string]string `json:"checks"`

	// Failed checks in check order (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if every check passes, 503 Service Unavailable otherwise.
//
// swagger:route GET /api/v1/health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Index loaded and models available
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: At least one check failed
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.checks)),
	}
	for _, c := range h.checks {
		if issue := c.run(checkCtx); issue != "" {
			resp.Checks[c.name] = "error"
			resp.Issues = append(resp.Issues, issue)
			continue
		}
		resp.Checks[c.name] = "ok"
	}

	status := http.StatusOK
	if len(resp.Issues) > 0 {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

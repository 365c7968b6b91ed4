package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"legal-rag/internal/handlers"
	"legal-rag/internal/service"
	"legal-rag/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	AskService   service.AskService
	Models       handlers.ModelChecker
	EmbedModel   string
	ChatModel    string
	Index        handlers.IndexStats
	Builds       storage.BuildStore // Optional
	IndexVersion string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)

	// Add CORS middleware
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.AskService)
	healthHandler := handlers.NewHealthHandler(deps.Models, deps.Index, deps.EmbedModel, deps.ChatModel)
	indexHandler := handlers.NewIndexHandler(deps.Index, deps.Builds, deps.IndexVersion)

	// Register API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Method(http.MethodGet, "/index", indexHandler)
	})

	return r
}

package cli

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/spf13/cobra"

	"legal-rag/internal/http"
	"legal-rag/internal/llm"
)

// shutdownTimeout bounds how long in-flight requests may finish on shutdown.
const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var useQdrant bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question API over HTTP",
		Long: `Loads the index and serves POST /api/v1/ask, GET /api/v1/health and
GET /api/v1/index on API_PORT until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd, useQdrant)
		},
	}
	cmd.Flags().BoolVar(&useQdrant, "qdrant", false, "search the Qdrant mirror instead of the local index")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, useQdrant bool) error {
	ctx := cmd.Context()

	stack, err := a.openQueryStack(ctx, useQdrant, 0)
	if err != nil {
		return err
	}
	defer stack.Close()

	router := http.NewRouter(&http.Deps{
		AskService:   stack.service,
		Models:       llm.NewModelLister(a.cfg.OllamaURL),
		EmbedModel:   a.cfg.EmbedModel,
		ChatModel:    a.cfg.ChatModel,
		Index:        stack.store,
		Builds:       stack.builds,
		IndexVersion: a.indexParams().IndexVersion(),
	})

	srv := &nethttp.Server{
		Addr:              ":" + a.cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a.serve(ctx, srv)
}

// serve runs srv until it fails or ctx is done, then shuts it down gracefully.
func (a *app) serve(ctx context.Context, srv *nethttp.Server) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.InfoContext(ctx, "Starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.InfoContext(ctx, "Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}

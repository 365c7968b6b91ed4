// Package cli wires the configuration, catalog, clients and pipelines into
// the legalrag commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"legal-rag/internal/config"
	"legal-rag/internal/contextutil"
)

// app carries state shared by the subcommands once the root command has run
// its setup.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	logLevel string
}

// NewRootCommand returns the legalrag command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "legalrag",
		Short: "Answer questions from a local corpus of legal texts",
		Long: `legalrag chunks, embeds and indexes a directory of statutory texts and
answers questions strictly from the retrieved provisions.

Typical flow: legalrag embed, legalrag build, then legalrag ask or legalrag serve.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	root.AddCommand(
		newChunkCommand(a),
		newEmbedCommand(a),
		newBuildCommand(a),
		newStatsCommand(a),
		newAskCommand(a),
		newServeCommand(a),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Level(), cfg.LogFormat)
	slog.SetDefault(a.logger)
	slog.Debug("Logging configured", "level", cfg.Level().String(), "format", cfg.LogFormat)

	cmd.SetContext(contextutil.WithLogger(cmd.Context(), a.logger))
	return nil
}

// newLogger builds a text or JSON slog logger writing to w.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

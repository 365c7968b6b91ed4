package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"legal-rag/internal/indexer"
	"legal-rag/internal/storage"
)

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics as JSON",
		Long: `Summarizes the embedding log (records per document, record length
distribution, dimension) together with the documents whose last embedding
run failed, and the index version of the current settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStats(cmd)
		},
	}
}

func (a *app) runStats(cmd *cobra.Command) error {
	db, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	stats, err := indexer.ComputeStats(cmd.Context(), a.cfg.EmbedLogPath, storage.NewDocumentRepo(db), a.indexParams())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

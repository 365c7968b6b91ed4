package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"legal-rag/internal/corpus"
	"legal-rag/internal/indexer"
)

func newChunkCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chunk",
		Short: "Split the corpus into chunk files",
		Long: `Reads every .txt and .md document under INPUT_DIR, splits it into chunks
and writes <source>_chunks.txt files to CHUNK_DIR for inspection or for
embed --from-chunks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChunk(cmd)
		},
	}
}

func (a *app) runChunk(cmd *cobra.Command) error {
	ctx := cmd.Context()

	docs, err := corpus.NewLoader().LoadAll(ctx, a.cfg.InputDir)
	if err != nil {
		return err
	}

	chunker, err := a.newChunker()
	if err != nil {
		return err
	}

	summary, err := indexer.NewPipeline(chunker, nil, nil).ChunkAll(ctx, docs, a.cfg.ChunkDir)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Chunked %d of %d documents into %d chunks in %s\n",
		summary.Processed, summary.Documents, summary.Records, a.cfg.ChunkDir)
	return failedDocuments(summary.Failed)
}

// failedDocuments turns the failed sources of a run into the command error.
func failedDocuments(failed []string) error {
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d documents failed: %s", len(failed), strings.Join(failed, ", "))
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"legal-rag/internal/corpus"
	"legal-rag/internal/indexer"
	"legal-rag/internal/storage"
)

type embedOptions struct {
	resume     bool
	fromChunks bool
}

func newEmbedCommand(a *app) *cobra.Command {
	var opts embedOptions

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed the corpus into the embedding log",
		Long: `Chunks every document under INPUT_DIR, embeds each sub-chunk with the
embedding model and writes one JSON record per line to EMBED_LOG_PATH.

A document that fails is recorded in the catalog and skipped; the command
exits non-zero and names every failed document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runEmbed(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "append to the existing log, skipping documents already embedded")
	cmd.Flags().BoolVar(&opts.fromChunks, "from-chunks", false, "read chunks from CHUNK_DIR instead of chunking the documents")
	return cmd
}

func (a *app) runEmbed(cmd *cobra.Command, opts embedOptions) error {
	ctx := cmd.Context()

	docs, err := corpus.NewLoader().LoadAll(ctx, a.cfg.InputDir)
	if err != nil {
		return err
	}

	db, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	chunker, err := a.newChunker()
	if err != nil {
		return err
	}
	builder := indexer.NewRecordBuilder(a.newEmbedder(), indexer.RecordBuilderOptions{
		EmbedMaxChars: a.cfg.EmbedMaxChars,
		Interval:      a.cfg.EmbedInterval,
		Workers:       a.cfg.EmbedWorkers,
	})
	pipeline := indexer.NewPipeline(chunker, builder, storage.NewDocumentRepo(db))

	runOpts := indexer.RunOptions{LogPath: a.cfg.EmbedLogPath, Resume: opts.resume}
	if opts.fromChunks {
		runOpts.ChunkDir = a.cfg.ChunkDir
	}

	summary, err := pipeline.Run(ctx, docs, runOpts)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d documents (%d skipped, %d failed) into %d records of dimension %d\n",
		summary.Processed, summary.Skipped, len(summary.Failed), summary.Records, summary.Dimension)
	return failedDocuments(summary.Failed)
}

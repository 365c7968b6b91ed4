package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"legal-rag/internal/index"
	"legal-rag/internal/storage"
	"legal-rag/internal/vectorstore"
)

func newBuildCommand(a *app) *cobra.Command {
	var mirror bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the vector index from the embedding log",
		Long: `Reads EMBED_LOG_PATH top to bottom and writes the vector index to
INDEX_PATH and the aligned metadata table to META_PATH. The build manifest,
with checksums of all three files, is recorded in the catalog.

With --qdrant the index is also mirrored into the QDRANT_COLLECTION collection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, mirror)
		},
	}
	cmd.Flags().BoolVar(&mirror, "qdrant", false, "mirror the index into Qdrant")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, mirror bool) error {
	ctx := cmd.Context()

	store, err := index.BuildFile(a.cfg.EmbedLogPath)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	sums, err := store.Save(a.cfg.IndexPath, a.cfg.MetaPath)
	if err != nil {
		return err
	}
	logSum, err := index.FileSHA256(a.cfg.EmbedLogPath)
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

	build := &storage.BuildRecord{
		VectorCount: store.Len(),
		Dimension:   store.Dim(),
		LogSHA256:   logSum,
		IndexSHA256: sums.Index,
		MetaSHA256:  sums.Metadata,
	}
	if err := storage.NewBuildRepo(db).Insert(ctx, build); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "index built",
		"build_id", build.ID,
		"vectors", build.VectorCount,
		"dimension", build.Dimension,
		"index", a.cfg.IndexPath,
		"metadata", a.cfg.MetaPath)

	if mirror {
		qdrant, err := vectorstore.NewQdrantStore(a.cfg.QdrantURL, a.cfg.QdrantAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		defer func() {
			_ = qdrant.Close()
		}()

		if err := vectorstore.NewMirror(qdrant, a.cfg.QdrantCollection).Sync(ctx, store); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d vectors into Qdrant collection %s\n", store.Len(), a.cfg.QdrantCollection)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Index built with %d vectors of dimension %d (build %s)\n", store.Len(), store.Dim(), build.ID)
	return nil
}

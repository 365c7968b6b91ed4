package cli

import (
	"context"
	"errors"
	"fmt"

	"legal-rag/internal/index"
	"legal-rag/internal/rag"
	"legal-rag/internal/service"
	"legal-rag/internal/storage"
	"legal-rag/internal/vectorstore"
)

// ErrStaleIndex is returned when the index files on disk are not the ones
// recorded by the last build.
var ErrStaleIndex = errors.New("index files do not match the last recorded build")

// queryStack is everything the online commands need to answer questions.
type queryStack struct {
	service service.AskService
	store   *index.Store
	builds  storage.BuildStore
	closers []func() error
}

func (q *queryStack) Close() {
	for i := len(q.closers) - 1; i >= 0; i-- {
		_ = q.closers[i]()
	}
}

// openQueryStack loads the index, checks it against the catalog manifest and
// assembles the ask service. With useQdrant the Qdrant mirror serves the
// nearest-neighbor searches instead of the local index.
func (a *app) openQueryStack(ctx context.Context, useQdrant bool, topK int) (*queryStack, error) {
	store, err := index.Load(a.cfg.IndexPath, a.cfg.MetaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load index, run legalrag build first: %w", err)
	}

	db, err := a.openCatalog()
	if err != nil {
		return nil, err
	}
	stack := &queryStack{store: store, closers: []func() error{db.Close}}

	stack.builds = storage.NewBuildRepo(db)
	if err := a.verifyManifest(ctx, stack.builds, store); err != nil {
		stack.Close()
		return nil, err
	}

	var searcher rag.Searcher = store
	if useQdrant {
		qdrant, err := vectorstore.NewQdrantStore(a.cfg.QdrantURL, a.cfg.QdrantAPIKey)
		if err != nil {
			stack.Close()
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		stack.closers = append(stack.closers, qdrant.Close)
		searcher = vectorstore.NewCollectionSearcher(qdrant, a.cfg.QdrantCollection)
	}

	if topK <= 0 {
		topK = a.cfg.TopK
	}
	engine := rag.NewEngine(
		rag.NewRetriever(a.newEmbedder(), searcher),
		rag.NewAnswerEngine(a.newGenerator(), a.generateOptions()),
	)
	stack.service = service.NewAskService(engine, topK)

	a.logger.InfoContext(ctx, "index loaded",
		"vectors", store.Len(),
		"dimension", store.Dim(),
		"qdrant", useQdrant,
		"top_k", topK)
	return stack, nil
}

// verifyManifest compares the loaded index with the last build in the
// catalog. A catalog without builds only logs a warning.
func (a *app) verifyManifest(ctx context.Context, builds storage.BuildStore, store *index.Store) error {
	latest, err := builds.Latest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.WarnContext(ctx, "no build recorded in catalog, skipping manifest check")
		return nil
	}
	if err != nil {
		return err
	}

	if latest.VectorCount != store.Len() || latest.Dimension != store.Dim() {
		return fmt.Errorf("%w: index has %d vectors of dimension %d, build %s recorded %d of dimension %d",
			ErrStaleIndex, store.Len(), store.Dim(), latest.ID, latest.VectorCount, latest.Dimension)
	}

	indexSum, err := index.FileSHA256(a.cfg.IndexPath)
	if err != nil {
		return err
	}
	metaSum, err := index.FileSHA256(a.cfg.MetaPath)
	if err != nil {
		return err
	}
	if indexSum != latest.IndexSHA256 || metaSum != latest.MetaSHA256 {
		return fmt.Errorf("%w: checksums differ from build %s, run legalrag build", ErrStaleIndex, latest.ID)
	}
	return nil
}


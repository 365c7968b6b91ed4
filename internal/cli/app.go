package cli

import (
	"database/sql"
	"fmt"

	"legal-rag/internal/indexer"
	"legal-rag/internal/llm"
	"legal-rag/internal/storage"
)

// openCatalog opens and migrates the SQLite catalog. The caller closes it.
func (a *app) openCatalog() (*sql.DB, error) {
	db, err := storage.New(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (a *app) newChunker() (*indexer.Chunker, error) {
	segmenter, err := indexer.NewSegmenter(a.cfg.BoundaryPatterns)
	if err != nil {
		return nil, err
	}
	assembler, err := indexer.NewAssembler(a.cfg.MaxChunkChars, a.cfg.MinChunkChars)
	if err != nil {
		return nil, err
	}
	return indexer.NewChunker(segmenter, assembler), nil
}

func (a *app) newEmbedder() *llm.EmbeddingsClient {
	return llm.NewEmbeddingsClient(a.cfg.OllamaURL, a.cfg.EmbedModel, a.cfg.EmbedTimeout, a.cfg.RetryPolicy())
}

func (a *app) newGenerator() *llm.Client {
	return llm.NewClient(a.cfg.OllamaURL, a.cfg.ChatModel, a.cfg.GenerateTimeout, a.cfg.RetryPolicy())
}

func (a *app) generateOptions() llm.GenerateOptions {
	return llm.GenerateOptions{Temperature: a.cfg.Temperature, ContextWindow: a.cfg.ContextWindow}
}

func (a *app) indexParams() indexer.IndexParams {
	return indexer.IndexParams{
		EmbedModel:       a.cfg.EmbedModel,
		MaxChunkChars:    a.cfg.MaxChunkChars,
		MinChunkChars:    a.cfg.MinChunkChars,
		EmbedMaxChars:    a.cfg.EmbedMaxChars,
		BoundaryPatterns: a.cfg.BoundaryPatterns,
	}
}

package indexer

import (
	"context"
	"errors"
	"fmt"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/corpus"
	"legal-rag/internal/embedlog"
	"legal-rag/internal/storage"
)

// ErrDocumentChanged is returned on resume when a completed document no longer
// matches the content its records were built from.
var ErrDocumentChanged = errors.New("document changed since it was embedded")

// RunOptions configures a pipeline run.
type RunOptions struct {
	// LogPath is the embedding log to write.
	LogPath string
	// Resume appends to the existing log and skips documents already complete
	// with the same content hash. Without it the log and catalog start empty.
	Resume bool
	// ChunkDir, when set, reads each document's chunks from its chunk file
	// instead of chunking the document text.
	ChunkDir string
}

// Summary reports the outcome of a pipeline run.
type Summary struct {
	Documents int
	Processed int
	Skipped   int
	Records   int
	Failed    []string
	Dimension int
}

// Pipeline turns corpus documents into embedding log records.
type Pipeline struct {
	chunker *Chunker
	builder *RecordBuilder
	catalog storage.DocumentStore
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(chunker *Chunker, builder *RecordBuilder, catalog storage.DocumentStore) *Pipeline {
	return &Pipeline{
		chunker: chunker,
		builder: builder,
		catalog: catalog,
	}
}

// ChunkAll chunks every document and writes one chunk file per document to
// dir. Documents that yield no chunks are reported in Failed.
func (p *Pipeline) ChunkAll(ctx context.Context, docs []corpus.Document, dir string) (*Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)
	summary := &Summary{Documents: len(docs)}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		chunks, err := p.chunker.ChunkText(doc.Text)
		if err != nil {
			logger.WarnContext(ctx, "failed to chunk document", "source", doc.Source, "error", err)
			summary.Failed = append(summary.Failed, doc.Source)
			continue
		}

		path, err := WriteChunkFile(dir, doc.Source, chunks)
		if err != nil {
			return summary, err
		}

		summary.Processed++
		summary.Records += len(chunks)
		logger.InfoContext(ctx, "chunked document", "source", doc.Source, "chunks", len(chunks), "path", path)
	}

	return summary, nil
}

// Run embeds every document into the log at opts.LogPath. A failing document
// is logged, recorded in the catalog and skipped. Log write failures and
// dimension mismatches against the log stop the run.
func (p *Pipeline) Run(ctx context.Context, docs []corpus.Document, opts RunOptions) (*Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		w   *embedlog.Writer
		err error
	)
	if opts.Resume {
		w, err = embedlog.Append(opts.LogPath)
	} else {
		w, err = p.freshLog(ctx, opts.LogPath)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = w.Close() }()

	summary := &Summary{Documents: len(docs)}
	logger.InfoContext(ctx, "starting embedding run", "documents", len(docs), "resume", opts.Resume, "log", opts.LogPath)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if opts.Resume {
			skip, err := p.alreadyEmbedded(ctx, doc)
			if err != nil {
				return summary, err
			}
			if skip {
				logger.DebugContext(ctx, "skipping unchanged document", "source", doc.Source, "hash", doc.Hash)
				summary.Skipped++
				continue
			}
		}

		chunks, err := p.chunks(doc, opts.ChunkDir)
		if err != nil {
			if err := p.recordFailure(ctx, doc, err); err != nil {
				return summary, err
			}
			summary.Failed = append(summary.Failed, doc.Source)
			continue
		}

		records, err := p.builder.Build(ctx, doc.Source, chunks)
		if err != nil {
			if ctx.Err() != nil {
				return summary, err
			}
			if err := p.recordFailure(ctx, doc, err); err != nil {
				return summary, err
			}
			summary.Failed = append(summary.Failed, doc.Source)
			continue
		}

		if err := w.WriteBatch(records); err != nil {
			return summary, fmt.Errorf("failed to write records of %s: %w", doc.Source, err)
		}

		if err := p.catalog.Upsert(ctx, &storage.DocumentRecord{
			Source:      doc.Source,
			ContentHash: doc.Hash,
			Status:      storage.StatusComplete,
			ChunkCount:  len(chunks),
			RecordCount: len(records),
		}); err != nil {
			return summary, fmt.Errorf("failed to record document: %w", err)
		}

		summary.Processed++
		summary.Records += len(records)
		logger.InfoContext(ctx, "embedded document", "source", doc.Source, "chunks", len(chunks), "records", len(records))
	}

	summary.Dimension = w.Dim()
	if err := w.Close(); err != nil {
		return summary, err
	}

	logger.InfoContext(ctx, "embedding run completed",
		"documents", summary.Documents,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"records", summary.Records)

	return summary, nil
}

// freshLog empties the catalog and the log together. The old log stays intact
// when either the log cannot be opened or the catalog cannot be reset.
func (p *Pipeline) freshLog(ctx context.Context, path string) (*embedlog.Writer, error) {
	w, err := embedlog.Reserve(path)
	if err != nil {
		return nil, err
	}
	if err := p.catalog.DeleteAll(ctx); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to reset catalog: %w", err)
	}
	if err := w.Truncate(); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (p *Pipeline) alreadyEmbedded(ctx context.Context, doc corpus.Document) (bool, error) {
	existing, err := p.catalog.Get(ctx, doc.Source)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing.Status != storage.StatusComplete {
		return false, nil
	}
	if existing.ContentHash != doc.Hash {
		// Its old records are already in the log; appending would mix versions.
		return false, fmt.Errorf("%s: %w", doc.Source, ErrDocumentChanged)
	}
	return true, nil
}

func (p *Pipeline) chunks(doc corpus.Document, chunkDir string) ([]Chunk, error) {
	if chunkDir != "" {
		return ReadChunkFile(ChunkFilePath(chunkDir, doc.Source))
	}
	return p.chunker.ChunkText(doc.Text)
}

func (p *Pipeline) recordFailure(ctx context.Context, doc corpus.Document, cause error) error {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "failed to embed document", "source", doc.Source, "error", cause)

	if err := p.catalog.Upsert(ctx, &storage.DocumentRecord{
		Source:      doc.Source,
		ContentHash: doc.Hash,
		Status:      storage.StatusFailed,
		Error:       cause.Error(),
	}); err != nil {
		return fmt.Errorf("failed to record document failure: %w", err)
	}
	return nil
}

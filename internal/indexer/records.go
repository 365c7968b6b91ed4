package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/embedlog"
)

// DefaultEmbedInterval is the minimum spacing between embed calls during a build.
const DefaultEmbedInterval = 1500 * time.Millisecond

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecordBuilderOptions configures a RecordBuilder.
type RecordBuilderOptions struct {
	// EmbedMaxChars is the sub-chunk budget in runes.
	EmbedMaxChars int
	// Interval is the minimum spacing between embed calls. Zero disables throttling.
	Interval time.Duration
	// Workers bounds concurrent embed calls. Values below 1 mean 1.
	Workers int
}

// RecordBuilder embeds the sub-chunks of a document into embedding records.
type RecordBuilder struct {
	embedder Embedder
	limiter  *rate.Limiter
	budget   int
	workers  int
}

// NewRecordBuilder creates a record builder.
func NewRecordBuilder(embedder Embedder, opts RecordBuilderOptions) *RecordBuilder {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}

	budget := opts.EmbedMaxChars
	if budget <= 0 {
		budget = DefaultEmbedMaxChars
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &RecordBuilder{
		embedder: embedder,
		limiter:  limiter,
		budget:   budget,
		workers:  workers,
	}
}

// Build embeds every sub-chunk of chunks and returns the records in
// sub-chunk order. Any failure fails the whole document and no records are
// returned.
func (b *RecordBuilder) Build(ctx context.Context, source string, chunks []Chunk) ([]embedlog.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	subs := embeddable(SplitChunks(chunks, b.budget))
	if len(subs) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyCorpus)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(subs))
	embedErrs := make([]error, len(subs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, b.workers)
	for i, sub := range subs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sub SubChunk) {
			defer func() { <-sem; wg.Done() }()

			if err := b.limiter.Wait(ctx); err != nil {
				return
			}
			vec, err := b.embedder.Embed(ctx, strings.TrimSpace(sub.Text))
			if err != nil {
				embedErrs[i] = fmt.Errorf("failed to embed chunk %s: %w", sub.ID(), err)
				// Remaining calls are pointless once the document has failed.
				cancel()
				return
			}
			vectors[i] = vec
		}(i, sub)
	}
	wg.Wait()

	// The first failure in sub-chunk order, ignoring the cancellations it caused.
	var firstErr error
	for _, err := range embedErrs {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if !errors.Is(err, context.Canceled) {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		return nil, fmt.Errorf("%s: %w", source, firstErr)
	}
	for _, vec := range vectors {
		if vec == nil {
			// Only reachable when the caller's context ended mid-document.
			return nil, fmt.Errorf("%s: embedding interrupted: %w", source, context.Cause(ctx))
		}
	}

	records := make([]embedlog.Record, len(subs))
	dim := len(vectors[0])
	for i, sub := range subs {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%s: chunk %s: %w: got %d, want %d",
				source, sub.ID(), embedlog.ErrDimensionMismatch, len(vectors[i]), dim)
		}
		records[i] = embedlog.Record{
			Text:      sub.Text,
			Embedding: vectors[i],
			Source:    source,
			ChunkID:   sub.ID(),
		}
	}

	logger.DebugContext(ctx, "embedded document",
		slog.String("source", source),
		slog.Int("chunks", len(chunks)),
		slog.Int("records", len(records)),
		slog.Int("dimension", dim))

	return records, nil
}

// embeddable drops whitespace-only sub-chunks. A whitespace run longer than
// the budget splits into such pieces, and they would go out as empty prompts.
// The remaining sub-chunks keep their ids.
func embeddable(subs []SubChunk) []SubChunk {
	kept := subs[:0]
	for _, sub := range subs {
		if strings.TrimSpace(sub.Text) != "" {
			kept = append(kept, sub)
		}
	}
	return kept
}

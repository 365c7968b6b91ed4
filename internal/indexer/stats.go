package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"legal-rag/internal/embedlog"
	"legal-rag/internal/storage"
)

// ChunkerVersion is the version identifier for the chunker implementation.
// Update this when chunking logic changes significantly.
const ChunkerVersion = "v1.0"

// IndexParams are the settings that shape the records of a build.
type IndexParams struct {
	EmbedModel       string
	MaxChunkChars    int
	MinChunkChars    int
	EmbedMaxChars    int
	BoundaryPatterns []string
}

// IndexVersion returns a short hash identifying the chunker, the embedding
// model and the chunking parameters.
func (p IndexParams) IndexVersion() string {
	patterns := p.BoundaryPatterns
	if len(patterns) == 0 {
		patterns = DefaultBoundaryPatterns
	}
	input := fmt.Sprintf("%s|%s|max=%d|min=%d|embed_max=%d|patterns=%s",
		ChunkerVersion, p.EmbedModel, p.MaxChunkChars, p.MinChunkChars, p.EmbedMaxChars,
		strings.Join(patterns, "\x00"))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// CorpusStats describes the embedding log of a run.
type CorpusStats struct {
	// Documents is the number of distinct sources in the log.
	Documents int `json:"documents"`
	// DocumentsFailed is the number of catalog documents whose last run failed.
	DocumentsFailed int `json:"documents_failed"`
	// FailedSources lists those documents.
	FailedSources []string `json:"failed_sources,omitempty"`
	// Records is the number of embedding records.
	Records int `json:"records"`
	// Dimension is the embedding vector length.
	Dimension int `json:"dimension"`
	// RecordsPerSource counts records by document.
	RecordsPerSource map[string]int `json:"records_per_source"`
	// RecordChars contains statistics about record text lengths in runes.
	RecordChars CharStats `json:"record_chars"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build parameters.
	IndexVersion string `json:"index_version"`
}

// CharStats contains statistics about text lengths.
type CharStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeStats reads the embedding log at logPath and, when catalog is not
// nil, the per-document outcomes of the last run.
func ComputeStats(ctx context.Context, logPath string, catalog storage.DocumentStore, params IndexParams) (*CorpusStats, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding log: %w", err)
	}
	defer func() { _ = f.Close() }()

	stats := &CorpusStats{
		RecordsPerSource: make(map[string]int),
		ChunkerVersion:   ChunkerVersion,
		IndexVersion:     params.IndexVersion(),
	}

	var lengths []int
	err = embedlog.Scan(f, func(_ int, rec embedlog.Record) error {
		if stats.Dimension == 0 {
			stats.Dimension = len(rec.Embedding)
		}
		stats.RecordsPerSource[rec.Source]++
		lengths = append(lengths, utf8.RuneCountInString(rec.Text))
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.Records = len(lengths)
	stats.Documents = len(stats.RecordsPerSource)
	stats.RecordChars = computeCharStats(lengths)

	if catalog != nil {
		docs, err := catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, doc := range docs {
			if doc.Status == storage.StatusFailed {
				stats.FailedSources = append(stats.FailedSources, doc.Source)
			}
		}
		stats.DocumentsFailed = len(stats.FailedSources)
	}

	return stats, nil
}

// computeCharStats computes min, max, mean, and p95 from lengths.
func computeCharStats(lengths []int) CharStats {
	if len(lengths) == 0 {
		return CharStats{}
	}

	// Sort for percentile calculation
	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range lengths {
		sum += n
	}
	mean := float64(sum) / float64(len(lengths))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return CharStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}

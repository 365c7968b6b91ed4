package indexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkChars is the soft ceiling for an assembled chunk, in runes.
	DefaultMaxChunkChars = 1500
	// DefaultMinChunkChars is the soft floor for an assembled chunk, in runes.
	DefaultMinChunkChars = 500

	unitSeparator = "\n\n"
)

// ErrEmptyCorpus is returned when a document yields no units, chunks or records.
var ErrEmptyCorpus = errors.New("empty corpus")

// Assembler merges ordered units into chunks inside a MIN/MAX rune window.
type Assembler struct {
	maxChars int
	minChars int
}

// NewAssembler creates an assembler. minChars must be positive and below maxChars.
func NewAssembler(maxChars, minChars int) (*Assembler, error) {
	if minChars <= 0 {
		return nil, fmt.Errorf("min chunk size must be greater than 0, got %d", minChars)
	}
	if minChars >= maxChars {
		return nil, fmt.Errorf("min chunk size %d must be less than max chunk size %d", minChars, maxChars)
	}
	return &Assembler{maxChars: maxChars, minChars: minChars}, nil
}

// Assemble merges units greedily. A unit is appended while the buffer stays
// within MAX; past MAX the buffer is emitted only once it has reached MIN,
// otherwise the unit is appended anyway. The tail is always emitted.
func (a *Assembler) Assemble(units []string) []Chunk {
	var chunks []Chunk
	var buf strings.Builder
	bufRunes := 0

	emit := func() {
		chunks = append(chunks, Chunk{Index: len(chunks), Text: buf.String()})
		buf.Reset()
		bufRunes = 0
	}
	appendUnit := func(u string, n int) {
		if bufRunes > 0 {
			buf.WriteString(unitSeparator)
			bufRunes += len(unitSeparator)
		}
		buf.WriteString(u)
		bufRunes += n
	}

	for _, u := range units {
		if u == "" {
			continue
		}
		n := utf8.RuneCountInString(u)

		candidate := bufRunes + n
		if bufRunes > 0 {
			candidate += len(unitSeparator)
		}

		if candidate > a.maxChars && bufRunes >= a.minChars {
			emit()
		}
		appendUnit(u, n)
	}

	if bufRunes > 0 {
		emit()
	}

	return chunks
}

// Chunker turns document text into chunks.
type Chunker struct {
	segmenter *Segmenter
	assembler *Assembler
}

// NewChunker creates a new chunker from a segmenter and an assembler.
func NewChunker(segmenter *Segmenter, assembler *Assembler) *Chunker {
	return &Chunker{segmenter: segmenter, assembler: assembler}
}

// ChunkText segments and assembles text. When the boundary split collapses
// into at most one chunk, the paragraph split is assembled instead.
func (c *Chunker) ChunkText(text string) ([]Chunk, error) {
	chunks := c.assembler.Assemble(c.segmenter.Segment(text))

	if len(chunks) <= 1 {
		if paragraphs := c.assembler.Assemble(ParagraphSplit(text)); len(paragraphs) > 0 {
			chunks = paragraphs
		}
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	return chunks, nil
}

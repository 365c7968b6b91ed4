package indexer

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBoundaryPatterns are the heading markers that start a new unit, in
// priority order. Each pattern is matched at the start of the text or after a
// newline plus optional whitespace, and the matched heading is dropped.
var DefaultBoundaryPatterns = []string{
	`CHAPTER\s+[IVXLC]+\b`,
	`Chapter\s+[IVXLC]+\b`,
	`SECTION\s+\d+[A-Z]?`,
	`Section\s+\d+[A-Z]?`,
	`\d+\.\s+`, // numbered clauses
}

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

// Segmenter splits raw document text into ordered units.
type Segmenter struct {
	boundary *regexp.Regexp
}

// NewSegmenter compiles the boundary patterns into a single alternation.
// An empty pattern list selects DefaultBoundaryPatterns.
func NewSegmenter(patterns []string) (*Segmenter, error) {
	if len(patterns) == 0 {
		patterns = DefaultBoundaryPatterns
	}

	alternatives := make([]string, len(patterns))
	for i, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("invalid boundary pattern %q: %w", p, err)
		}
		alternatives[i] = "(?:" + p + ")"
	}

	re, err := regexp.Compile(`(?:\A|\n)\s*(?:` + strings.Join(alternatives, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile boundary patterns: %w", err)
	}

	return &Segmenter{boundary: re}, nil
}

// Segment returns the boundary split of text, or the paragraph split when no
// boundary produced more than one unit.
func (s *Segmenter) Segment(text string) []string {
	units := s.BoundarySplit(text)
	if len(units) <= 1 {
		return ParagraphSplit(text)
	}
	return units
}

// BoundarySplit splits text at heading markers. Heading text is discarded and
// the spans between headings become units.
func (s *Segmenter) BoundarySplit(text string) []string {
	return keepNonEmpty(s.boundary.Split(normalizeNewlines(text), -1))
}

// ParagraphSplit splits text on blank lines.
func ParagraphSplit(text string) []string {
	return keepNonEmpty(paragraphBreak.Split(normalizeNewlines(text), -1))
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// keepNonEmpty trims every fragment and drops the blank ones.
func keepNonEmpty(parts []string) []string {
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			units = append(units, trimmed)
		}
	}
	return units
}

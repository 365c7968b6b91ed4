package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChunkSeparator joins chunks inside a chunk file.
const ChunkSeparator = "\n\n---CHUNK---\n\n"

// ChunkFilePath returns the chunk file for source inside dir.
func ChunkFilePath(dir, source string) string {
	return filepath.Join(dir, source+"_chunks.txt")
}

// WriteChunkFile writes chunks of source to dir and returns the file path.
func WriteChunkFile(dir, source string, chunks []Chunk) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create chunk directory: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	path := ChunkFilePath(dir, source)
	if err := os.WriteFile(path, []byte(strings.Join(texts, ChunkSeparator)), 0644); err != nil {
		return "", fmt.Errorf("failed to write chunk file: %w", err)
	}
	return path, nil
}

// ReadChunkFile reads a chunk file back. Blank pieces are dropped, but every
// chunk keeps its position in the file as its index, so chunk ids stay stable
// when a chunk is blanked out by hand.
func ReadChunkFile(path string) ([]Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk file: %w", err)
	}

	var chunks []Chunk
	for i, piece := range strings.Split(string(content), ChunkSeparator) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: i, Text: piece})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyCorpus)
	}
	return chunks, nil
}

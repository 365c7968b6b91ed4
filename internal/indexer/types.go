package indexer

import "fmt"

// Chunk is a merged run of units from one document.
type Chunk struct {
	Index int    // Chunk index within the document (starts at 0)
	Text  string // Chunk text content
}

// SubChunk is a piece of a Chunk that fits the embedding input budget.
type SubChunk struct {
	ChunkIndex int
	SubIndex   int
	Text       string
}

// ID returns the "{chunk_index}.{sub_index}" identifier stored with each record.
func (s SubChunk) ID() string {
	return fmt.Sprintf("%d.%d", s.ChunkIndex, s.SubIndex)
}

package indexer

import "unicode"

// DefaultEmbedMaxChars is the embedding service input budget, in runes.
const DefaultEmbedMaxChars = 1500

// SplitOversize hard-splits text into pieces of at most budget runes.
// Each cut is made at the last whitespace rune within the budget, which then
// leads the next piece; with no whitespace in the window the cut falls at
// exactly budget runes. Concatenating the pieces gives back text.
func SplitOversize(text string, budget int) []string {
	runes := []rune(text)
	if budget < 1 || len(runes) <= budget {
		return []string{text}
	}

	var pieces []string
	for len(runes) > budget {
		cut := budget
		for i := budget; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		pieces = append(pieces, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(pieces, string(runes))
}

// SplitChunks applies SplitOversize to every chunk, keeping chunk order.
func SplitChunks(chunks []Chunk, budget int) []SubChunk {
	subs := make([]SubChunk, 0, len(chunks))
	for _, chunk := range chunks {
		for j, piece := range SplitOversize(chunk.Text, budget) {
			subs = append(subs, SubChunk{
				ChunkIndex: chunk.Index,
				SubIndex:   j,
				Text:       piece,
			})
		}
	}
	return subs
}

package retrieve

import "github.com/dgallion1/bookrag/internal/chunk"

// Result is one retrieval hit enriched with hierarchy context. Created
// fresh per query, never cached, never mutated after construction.
type Result struct {
	ChunkID    string     `json:"chunk_id"`
	Text       string     `json:"text"`
	Similarity float32    `json:"similarity"`
	Meta       chunk.Meta `json:"metadata"`

	// Flat-engine enrichment.
	ParentText string `json:"parent_text,omitempty"`
	ChildCount int    `json:"child_count"`

	// Hybrid-engine enrichment.
	ParentChunks []chunk.Chunk `json:"parent_chunks,omitempty"`
	ChildChunks  []chunk.Chunk `json:"child_chunks,omitempty"`
	Depth        int           `json:"depth"`
}

// truncate shortens text to n characters with an ellipsis marker.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}

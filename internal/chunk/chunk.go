package chunk

// Type classifies how a chunk was derived.
type Type string

const (
	TypeBookOverview  Type = "book_overview"  // rollup of a root and its subtree
	TypeSectionDetail Type = "section_detail" // rollup of a level-2 node
	TypeParagraph     Type = "paragraph"      // verbatim paragraph node
	TypeLogicalChunk  Type = "logical_chunk"  // subtree chunk from an external derivation
	TypeAtomicChunk   Type = "atomic_chunk"   // leaf chunk from an external derivation
)

// Meta is the retrieval-relevant metadata copied from the originating node.
type Meta struct {
	Type          Type   `json:"chunk_type"`
	Level         int    `json:"level"`
	ParentID      string `json:"parent_id,omitempty"`
	ChildrenCount int    `json:"children_count"`
	Kind          string `json:"kind,omitempty"`
	Label         string `json:"label,omitempty"`
	Tag           string `json:"tag,omitempty"`
}

// Chunk is a retrievable unit of text derived from one or more nodes.
// ID equals the originating node id; chunk ids are unique within a
// derived set.
type Chunk struct {
	ID   string `json:"chunk_id"`
	Text string `json:"text"`
	Meta Meta   `json:"metadata"`
}

package hierarchy

// MaxLevel is the finest granularity rank (paragraph level).
// Level 1 is the coarsest structural unit (book/chapter); level 0 is
// reserved for a document root, which this model does not materialize.
const MaxLevel = 4

// Node is a unit of document structure with a level and optional parent.
// Nodes are owned by the Tree registry, not by their parents; parent/child
// links are ids into that registry.
type Node struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Level       int      `json:"level"`
	ParentID    string   `json:"parent_id,omitempty"`
	ChildrenIDs []string `json:"children_ids"`
	Meta        Metadata `json:"metadata"`
}

// Metadata carries the fields the core interprets for a node, plus a small
// free-form map for passthrough fields it does not.
type Metadata struct {
	Kind      string            `json:"kind"` // "book", "section", "subsection", "paragraph"
	Label     string            `json:"label,omitempty"`
	Tag       string            `json:"tag,omitempty"`
	WordCount int               `json:"word_count"`
	Offset    int               `json:"offset"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Tree is the node registry plus the ordered list of root node ids.
type Tree struct {
	Nodes map[string]*Node `json:"nodes"`
	Roots []string         `json:"root_nodes"`
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id string) *Node {
	return t.Nodes[id]
}

// KindForLevel maps a hierarchy level to its node kind.
func KindForLevel(level int) string {
	switch level {
	case 1:
		return "book"
	case 2:
		return "section"
	case 3:
		return "subsection"
	default:
		return "paragraph"
	}
}

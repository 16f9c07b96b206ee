package chunk

import (
	"sort"
	"strings"

	"github.com/dgallion1/bookrag/internal/hierarchy"
)

// Config controls chunk derivation.
type Config struct {
	MinWords          int // minimum word count for a rollup chunk
	MaxWords          int // word budget for rollup assembly
	MaxSubtreeDepth   int // recursion depth for rollups
	MaxRollupChildren int // children considered per node during rollup
	MinAtomicWords    int // minimum word count for a verbatim paragraph chunk
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinWords:          50,
		MaxWords:          300,
		MaxSubtreeDepth:   2,
		MaxRollupChildren: 10,
		MinAtomicWords:    30,
	}
}

// Derive walks the tree and produces the retrievable chunk set:
// rollup chunks for every root and every level-2 node, verbatim chunks for
// substantial paragraphs, deduplicated by keep-longest and ordered coarse
// first. The ordering is a contract consumed by downstream formatting.
func Derive(tree *hierarchy.Tree, cfg Config) []Chunk {
	if cfg.MinWords <= 0 {
		cfg.MinWords = 50
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 300
	}
	if cfg.MaxSubtreeDepth <= 0 {
		cfg.MaxSubtreeDepth = 2
	}
	if cfg.MaxRollupChildren <= 0 {
		cfg.MaxRollupChildren = 10
	}
	if cfg.MinAtomicWords <= 0 {
		cfg.MinAtomicWords = 30
	}

	var chunks []Chunk

	// Rollup chunks for roots.
	for _, rootID := range tree.Roots {
		if c, ok := rollup(tree, rootID, cfg, TypeBookOverview); ok {
			chunks = append(chunks, c)
		}
	}

	// Rollup chunks for level-2 nodes, in stable node order.
	for _, id := range sortedNodeIDs(tree) {
		node := tree.Nodes[id]
		if node.Level != 2 {
			continue
		}
		if c, ok := rollup(tree, id, cfg, TypeSectionDetail); ok {
			chunks = append(chunks, c)
		}
	}

	// Verbatim paragraph chunks.
	for _, id := range sortedNodeIDs(tree) {
		node := tree.Nodes[id]
		if node.Level != hierarchy.MaxLevel {
			continue
		}
		if node.Meta.WordCount < cfg.MinAtomicWords {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:   node.ID,
			Text: node.Text,
			Meta: Meta{
				Type:          TypeParagraph,
				Level:         node.Level,
				ParentID:      node.ParentID,
				ChildrenCount: 0,
				Kind:          node.Meta.Kind,
				Label:         node.Meta.Label,
				Tag:           node.Meta.Tag,
			},
		})
	}

	return dedupe(chunks)
}

// rollup assembles a chunk from a node plus a depth- and budget-bounded
// subset of its descendants.
func rollup(tree *hierarchy.Tree, id string, cfg Config, typ Type) (Chunk, bool) {
	node := tree.Node(id)
	if node == nil {
		return Chunk{}, false
	}
	text := collectSubtree(tree, id, cfg.MaxSubtreeDepth, cfg.MaxWords, cfg.MaxRollupChildren)
	if wordCount(text) < cfg.MinWords {
		return Chunk{}, false
	}
	return Chunk{
		ID:   node.ID,
		Text: text,
		Meta: Meta{
			Type:          typ,
			Level:         node.Level,
			ParentID:      node.ParentID,
			ChildrenCount: len(node.ChildrenIDs),
			Kind:          node.Meta.Kind,
			Label:         node.Meta.Label,
			Tag:           node.Meta.Tag,
		},
	}, true
}

// collectSubtree concatenates a node's text with its children's assembled
// text, depth-first. The word budget is checked before taking each child:
// a child whose assembled text would exceed the remaining budget is skipped
// entirely, never truncated mid-text.
func collectSubtree(tree *hierarchy.Tree, id string, depth, budget, maxChildren int) string {
	node := tree.Node(id)
	if node == nil {
		return ""
	}

	texts := []string{node.Text}
	words := wordCount(node.Text)

	if depth > 0 {
		children := node.ChildrenIDs
		if len(children) > maxChildren {
			children = children[:maxChildren]
		}
		for _, childID := range children {
			remaining := budget - words
			if remaining <= 0 {
				break
			}
			childText := collectSubtree(tree, childID, depth-1, remaining, maxChildren)
			cw := wordCount(childText)
			if cw == 0 || cw > remaining {
				continue
			}
			texts = append(texts, childText)
			words += cw
		}
	}

	return strings.Join(texts, "\n\n")
}

// dedupe groups by chunk id keeping the longer text, then orders the final
// set ascending by level.
func dedupe(chunks []Chunk) []Chunk {
	byID := make(map[string]int, len(chunks))
	var unique []Chunk
	for _, c := range chunks {
		if i, ok := byID[c.ID]; ok {
			if len(c.Text) > len(unique[i].Text) {
				unique[i] = c
			}
			continue
		}
		byID[c.ID] = len(unique)
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Meta.Level < unique[j].Meta.Level
	})
	return unique
}

// sortedNodeIDs returns node ids in stable document order. Node ids carry a
// monotonically increasing counter, so offset order is recoverable from the
// registry without a separate sequence.
func sortedNodeIDs(tree *hierarchy.Tree) []string {
	ids := make([]string, 0, len(tree.Nodes))
	for id := range tree.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := tree.Nodes[ids[i]], tree.Nodes[ids[j]]
		if a.Meta.Offset != b.Meta.Offset {
			return a.Meta.Offset < b.Meta.Offset
		}
		return ids[i] < ids[j]
	})
	return ids
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

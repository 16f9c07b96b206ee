package hierarchy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/bookrag/internal/segment"
)

// Rule maps a structural-label pattern to the hierarchy level it implies.
// MaxWords, when positive, rejects matches on long text: a match that reads
// like a header pattern but runs paragraph-length is treated as content.
type Rule struct {
	Pattern  *regexp.Regexp
	Level    int
	MaxWords int
}

// DefaultRules returns the level-assignment rules for classical long-form
// texts: BOOK/CHAPTER headers are level 1, numbered headers level 2,
// lettered headers level 3.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: regexp.MustCompile(`^(?:BOOK|Book)\s+[IVXLCDM]+\b`), Level: 1},
		{Pattern: regexp.MustCompile(`^(?:BOOK|Book)\s+\d+\b`), Level: 1},
		{Pattern: regexp.MustCompile(`^(?:CHAPTER|Chapter)\s+[IVXLCDM\d]+\b`), Level: 1},
		{Pattern: regexp.MustCompile(`^[IVXLCDM]+\.`), Level: 2, MaxWords: 20},
		{Pattern: regexp.MustCompile(`^\d+\.`), Level: 2, MaxWords: 20},
		{Pattern: regexp.MustCompile(`^[A-Z]\.`), Level: 3, MaxWords: 20},
	}
}

// DefaultTagLevels maps structural markup tags to levels for segments no
// rule matched.
func DefaultTagLevels() map[string]int {
	return map[string]int{
		"h1": 1,
		"h2": 2,
		"h3": 3,
		"h4": 4,
	}
}

// Builder assembles a Tree from a flat tagged segment stream.
type Builder struct {
	rules     []Rule
	tagLevels map[string]int
	minWords  int // content below this word count is discarded
}

// Option configures a Builder.
type Option func(*Builder)

// WithRules replaces the default level-assignment rules.
func WithRules(rules []Rule) Option {
	return func(b *Builder) { b.rules = rules }
}

// WithTagLevels replaces the default tag→level table.
func WithTagLevels(tags map[string]int) Option {
	return func(b *Builder) { b.tagLevels = tags }
}

// WithMinWords sets the word-count threshold below which plain content
// segments are discarded.
func WithMinWords(n int) Option {
	return func(b *Builder) { b.minWords = n }
}

// NewBuilder returns a Builder with the Odyssey-tuned defaults.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		rules:     DefaultRules(),
		tagLevels: DefaultTagLevels(),
		minWords:  10,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build walks the segment stream and produces the document tree.
//
// A fixed-size level stack tracks the most recent node at each level.
// Creating a node at level L clears every remembered node below L: the
// scope of any deeper ancestor ended when the new node began. Each node's
// parent is always an already-registered node, so the tree is acyclic by
// construction and parent levels are strictly less than child levels.
func (b *Builder) Build(segments []segment.Segment) *Tree {
	tree := &Tree{Nodes: make(map[string]*Node)}

	// current[l] holds the id of the most recent node at level l.
	var current [MaxLevel + 1]string
	counter := 0

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		level, label, structural := b.assignLevel(text, seg.Tag)
		if level == 0 {
			// Plain content below the word threshold is discarded,
			// not attached to the tree.
			continue
		}

		parentID := nearestAncestor(&current, level)
		if level == MaxLevel && !structural && parentID == "" {
			// Content with no structural ancestor at any level is dropped.
			continue
		}

		kind := KindForLevel(level)
		node := &Node{
			ID:    fmt.Sprintf("%s_%d", idPrefix(kind), counter),
			Text:  text,
			Level: level,
			Meta: Metadata{
				Kind:      kind,
				Label:     label,
				Tag:       seg.Tag,
				WordCount: wordCount(text),
				Offset:    seg.Offset,
			},
		}
		counter++

		node.ParentID = parentID
		tree.Nodes[node.ID] = node
		if level == 1 {
			tree.Roots = append(tree.Roots, node.ID)
		}
		if parentID != "" {
			parent := tree.Nodes[parentID]
			parent.ChildrenIDs = append(parent.ChildrenIDs, node.ID)
		}

		current[level] = node.ID
		for l := level + 1; l <= MaxLevel; l++ {
			current[l] = ""
		}
	}

	return tree
}

// assignLevel resolves a segment to a hierarchy level. Pattern rules win
// over the tag table, which wins over the paragraph fallback. A zero level
// means the segment is discarded.
func (b *Builder) assignLevel(text, tag string) (level int, label string, structural bool) {
	words := wordCount(text)

	for _, rule := range b.rules {
		if rule.MaxWords > 0 && words >= rule.MaxWords {
			continue
		}
		if m := rule.Pattern.FindString(text); m != "" {
			return rule.Level, strings.TrimSpace(m), true
		}
	}

	if l, ok := b.tagLevels[tag]; ok {
		return l, "", true
	}

	if words > b.minWords {
		return MaxLevel, "", false
	}
	return 0, "", false
}

// nearestAncestor finds the most recent node strictly above the given level,
// scanning upward from level-1. A structural node whose declared level is not
// contiguous with existing ancestors still attaches to whatever ancestor
// exists; if none exists it is parentless. Graceful degradation, not an error.
func nearestAncestor(current *[MaxLevel + 1]string, level int) string {
	for l := level - 1; l >= 1; l-- {
		if current[l] != "" {
			return current[l]
		}
	}
	return ""
}

func idPrefix(kind string) string {
	switch kind {
	case "book":
		return "book"
	case "section":
		return "section"
	case "subsection":
		return "subsection"
	default:
		return "para"
	}
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

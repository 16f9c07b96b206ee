package segment

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsAndParagraphs(t *testing.T) {
	input := `# BOOK I

Tell me, O Muse, of that ingenious hero.

## The Council of the Gods

Now Poseidon had gone off to the Ethiopians.
`
	p := &MarkdownParser{}
	segs, err := p.Parse(strings.NewReader(input), "odyssey.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d: %v", len(segs), segs)
	}

	if segs[0].Text != "BOOK I" || segs[0].Tag != "h1" {
		t.Errorf("segment[0]: got (%q, %q)", segs[0].Text, segs[0].Tag)
	}
	if segs[2].Text != "The Council of the Gods" || segs[2].Tag != "h2" {
		t.Errorf("segment[2]: got (%q, %q)", segs[2].Text, segs[2].Tag)
	}
	if segs[1].Tag != "p" || !strings.Contains(segs[1].Text, "ingenious hero") {
		t.Errorf("segment[1]: got (%q, %q)", segs[1].Text, segs[1].Tag)
	}
	if segs[3].Tag != "p" || !strings.Contains(segs[3].Text, "Ethiopians") {
		t.Errorf("segment[3]: got (%q, %q)", segs[3].Text, segs[3].Tag)
	}

	for i, s := range segs {
		if s.Offset != i {
			t.Errorf("segment[%d]: expected offset %d, got %d", i, i, s.Offset)
		}
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	segs, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected 0 segments, got %d", len(segs))
	}
}

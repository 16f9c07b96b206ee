package segment

import (
	"strings"
	"testing"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>The Odyssey</title><style>p { margin: 0 }</style></head>
<body>
<nav>Table of contents</nav>
<h1>BOOK I</h1>
<p>Tell me, O Muse, of that ingenious hero.</p>
<h2>The Council of the Gods</h2>
<p>Now Poseidon had gone off to the Ethiopians.</p>
<blockquote>Sing in me, Muse.</blockquote>
<script>trackPageView()</script>
<footer>Copyright notice</footer>
</body>
</html>`

func TestHTMLParser_HeadingsKeepTheirTag(t *testing.T) {
	p := &HTMLParser{}
	segs, err := p.Parse(strings.NewReader(sampleHTML), "odyssey.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		text string
		tag  string
	}{
		{"BOOK I", "h1"},
		{"Tell me, O Muse, of that ingenious hero.", "p"},
		{"The Council of the Gods", "h2"},
		{"Now Poseidon had gone off to the Ethiopians.", "p"},
		{"Sing in me, Muse.", "p"},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d: %v", len(want), len(segs), segs)
	}
	for i, w := range want {
		if segs[i].Text != w.text || segs[i].Tag != w.tag {
			t.Errorf("segment[%d]: got (%q, %q), want (%q, %q)", i, segs[i].Text, segs[i].Tag, w.text, w.tag)
		}
	}
}

func TestHTMLParser_SkipsChromeElements(t *testing.T) {
	p := &HTMLParser{}
	segs, err := p.Parse(strings.NewReader(sampleHTML), "odyssey.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range segs {
		for _, banned := range []string{"Table of contents", "trackPageView", "Copyright", "margin"} {
			if strings.Contains(s.Text, banned) {
				t.Errorf("segment leaked non-content text: %q", s.Text)
			}
		}
	}
}

func TestHTMLParser_CollapsesWhitespace(t *testing.T) {
	input := "<html><body><p>spread\n  over\n  lines</p></body></html>"
	p := &HTMLParser{}
	segs, err := p.Parse(strings.NewReader(input), "ws.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "spread over lines" {
		t.Errorf("expected collapsed whitespace, got %v", segs)
	}
}

func TestHTMLParser_OffsetsAreDocumentOrder(t *testing.T) {
	p := &HTMLParser{}
	segs, err := p.Parse(strings.NewReader(sampleHTML), "odyssey.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range segs {
		if s.Offset != i {
			t.Errorf("segment[%d]: expected offset %d, got %d", i, i, s.Offset)
		}
	}
}

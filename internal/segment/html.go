package segment

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings are emitted with their tag so the
// hierarchy builder can use the tag→level table; everything else that carries
// prose is emitted as a "p" segment in document order.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]Segment, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var segments []Segment
	offset := 0

	emit := func(text, tag string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		segments = append(segments, Segment{Text: text, Tag: tag, Offset: offset})
		offset++
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				emit(textContent(n), n.Data)
				return // text already extracted, don't recurse
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head", "meta", "link":
				return
			case "p", "li", "td", "blockquote", "pre":
				emit(textContent(n), "p")
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return segments, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

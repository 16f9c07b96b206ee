package segment

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Segment is one tagged text element emitted by a markup parser.
// The indexing core consumes this flat stream; it never sees markup itself.
type Segment struct {
	Text   string // extracted text, whitespace-trimmed
	Tag    string // source element tag: "h1".."h6", "p", ...
	Offset int    // source position: page number or element ordinal
}

// Parser converts raw document bytes into a flat segment stream.
type Parser interface {
	Parse(r io.Reader, filename string) ([]Segment, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

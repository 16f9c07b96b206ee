package segment

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text files. Each blank-line-delimited paragraph
// becomes a "p" segment.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var segments []Segment
	var current strings.Builder
	offset := 0

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, Segment{
				Text:   current.String(),
				Tag:    "p",
				Offset: offset,
			})
			offset++
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return segments, nil
}

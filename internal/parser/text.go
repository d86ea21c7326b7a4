package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"golang.org/x/net/html"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Convert(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs [][]string
	var current []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
		} else {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out := &doctree.Document{Path: filename, Title: titleFromName(filename)}

	// Each paragraph becomes a <p>; line breaks inside it become <br>.
	for _, lines := range paragraphs {
		out.Nodes = append(out.Nodes, &doctree.Node{Node: paragraph(lines)})
	}

	return out, nil
}

// paragraph builds a <p> from lines joined by <br>.
func paragraph(lines []string) *html.Node {
	p := doctree.Element("p")
	for i, line := range lines {
		if i > 0 {
			p.AppendChild(doctree.Element("br"))
		}
		p.AppendChild(doctree.Text(line))
	}
	return p
}

package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownParser handles Markdown files using goldmark. The rendered HTML is
// split into its top-level blocks.
type MarkdownParser struct{}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

func (p *MarkdownParser) Convert(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	nodes, err := doctree.FromHTML(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}

	return &doctree.Document{
		Path:  filename,
		Title: titleFromName(filename),
		Nodes: nodes,
	}, nil
}

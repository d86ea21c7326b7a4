package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML files. The element children of <body> become the
// document's blocks.
type HTMLParser struct{}

func (p *HTMLParser) Convert(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := &doctree.Document{Path: filename, Title: titleFromName(filename)}
	if title := findTitle(root); title != "" {
		out.Title = title
	}

	body := findBody(root)
	if body == nil {
		return out, nil
	}

	// Detach children first; appending to a new parent requires it.
	var kids []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, c)
	}
	for _, c := range kids {
		body.RemoveChild(c)
		switch c.Type {
		case html.ElementNode:
			// Skip non-content elements.
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Noscript:
				continue
			}
			out.Nodes = append(out.Nodes, &doctree.Node{Node: c})
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			para := doctree.Element("p")
			para.AppendChild(c)
			out.Nodes = append(out.Nodes, &doctree.Node{Node: para})
		}
	}

	return out, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return strings.TrimSpace(doctree.TextContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// Package render turns extracted sections into the viewer's render tree and
// serializes it. It is the only place that builds viewer markup.
package render

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/highlight"
	"github.com/dgallion1/docview/internal/section"
	"golang.org/x/net/html"
)

// ViewerID is the id of the viewer root element.
const ViewerID = "viewer"

// Viewer builds the viewer root holding the given children.
func Viewer(children ...*html.Node) *html.Node {
	root := doctree.Element("div", "id", ViewerID)
	for _, c := range children {
		if c != nil {
			root.AppendChild(c)
		}
	}
	return root
}

// Block builds the section block for one document match. Body nodes are
// cloned so the converted document stays untouched.
func Block(path string, sec *section.Section) *html.Node {
	block := doctree.Element("div", "class", highlight.BlockClass, "data-source", path)

	from := doctree.Element("h3", "class", "section-source")
	from.AppendChild(doctree.Text("📄 From: " + path))
	block.AppendChild(from)

	title := doctree.Element("h2")
	title.AppendChild(doctree.Text(sec.Title()))
	block.AppendChild(title)

	for _, n := range sec.Body {
		block.AppendChild(Clone(n.Node))
	}
	return block
}

// NoMatches builds the message shown when no document has the topic.
func NoMatches(topic string) *html.Node {
	p := doctree.Element("p", "class", "no-matches")
	p.AppendChild(doctree.Text("❌ No matches found for \""))
	b := doctree.Element("b")
	b.AppendChild(doctree.Text(topic))
	p.AppendChild(b)
	p.AppendChild(doctree.Text("\"."))
	return p
}

// Loading builds the placeholder shown while documents are searched.
func Loading(topic string) *html.Node {
	p := doctree.Element("p", "class", "loading")
	p.AppendChild(doctree.Text("⏳ Searching documents for \""))
	b := doctree.Element("b")
	b.AppendChild(doctree.Text(topic))
	p.AppendChild(b)
	p.AppendChild(doctree.Text("\"..."))
	return p
}

// Clone deep-copies a subtree. The copy has no parent or siblings.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// HTML serializes a subtree.
func HTML(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

// Markdown converts a subtree to Markdown.
func Markdown(n *html.Node) (string, error) {
	markup, err := HTML(n)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return md, nil
}

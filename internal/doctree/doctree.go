package doctree

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the flattened result of converting one source file.
type Document struct {
	Path  string  // Source path as configured (e.g. /docs/operations/creation.docx)
	Title string  // Title from metadata or filename
	Nodes []*Node // Top-level blocks in document order
}

// Node is one block-level element of a converted document.
type Node struct {
	*html.Node
}

// Tag returns the lower-case element name.
func (n *Node) Tag() string {
	if n == nil || n.Node == nil {
		return ""
	}
	return n.Data
}

// InnerText returns the plain-text rendering of the node. Line breaks are
// rendered as newlines; script and style content is omitted.
func (n *Node) InnerText() string {
	if n == nil || n.Node == nil {
		return ""
	}
	return TextContent(n.Node)
}

// OuterHTML serializes the node including its own tag.
func (n *Node) OuterHTML() string {
	if n == nil || n.Node == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n.Node)
	return buf.String()
}

// InnerHTML serializes the node's children.
func (n *Node) InnerHTML() string {
	if n == nil || n.Node == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// TextContent concatenates the text of a subtree.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Br:
				buf.WriteByte('\n')
				return
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// FromHTML parses a markup fragment and returns its top-level element
// children as nodes. Whitespace-only text between blocks is dropped; stray
// non-blank text is wrapped in a paragraph so it is not lost.
func FromHTML(r io.Reader) ([]*Node, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	frags, err := html.ParseFragment(r, container)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, f := range frags {
		switch f.Type {
		case html.ElementNode:
			nodes = append(nodes, &Node{Node: f})
		case html.TextNode:
			if strings.TrimSpace(f.Data) == "" {
				continue
			}
			p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
			p.AppendChild(f)
			nodes = append(nodes, &Node{Node: p})
		}
	}
	return nodes, nil
}

// FromString is FromHTML over a string.
func FromString(s string) ([]*Node, error) {
	return FromHTML(strings.NewReader(s))
}

// Element creates a detached element with the given attributes (key, value pairs).
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr returns the value of an attribute, or "" if absent.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether the class attribute contains name.
func HasClass(n *html.Node, name string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// Package highlight marks occurrences of a search term inside the viewer's
// render tree and hides section blocks that have none.
//
// Refresh can be called on every keystroke: each call first removes the marks
// left by the previous call, so the tree never carries marks for a stale term.
package highlight

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// MarkClass is the class of the span wrapped around each match.
	MarkClass = "highlight"
	// BlockClass is the class of a top-level section block.
	BlockClass = "section-block"
	// HiddenAttr hides a block that has no match for the current term.
	HiddenAttr = "hidden"
)

// Result summarises one Refresh call.
type Result struct {
	Term   string        `json:"term"`
	Marks  int           `json:"marks"`
	Blocks []BlockResult `json:"blocks"`
}

// BlockResult is the outcome for one section block.
type BlockResult struct {
	Marks   int  `json:"marks"`
	Visible bool `json:"visible"`
}

// Visible counts blocks left visible.
func (r Result) Visible() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Visible {
			n++
		}
	}
	return n
}

// Segment is a piece of a text leaf after splitting on matches.
type Segment struct {
	Text   string
	Marked bool
}

// Refresh removes existing marks under root, then marks every case-insensitive
// literal occurrence of term in the section blocks and shows only the blocks
// that contain a match. A blank term shows every block.
func Refresh(root *html.Node, term string) Result {
	res := Result{Term: strings.TrimSpace(strings.ToValidUTF8(term, "\uFFFD"))}
	if root == nil {
		return res
	}

	Unmark(root)
	blocks := Blocks(root)

	if res.Term == "" {
		for _, b := range blocks {
			setHidden(b, false)
			res.Blocks = append(res.Blocks, BlockResult{Visible: true})
		}
		return res
	}

	re := Compile(res.Term)
	for _, b := range blocks {
		n := markTree(b, re)
		setHidden(b, n == 0)
		res.Marks += n
		res.Blocks = append(res.Blocks, BlockResult{Marks: n, Visible: n > 0})
	}
	return res
}

// Compile builds the matcher for a term. Metacharacters are escaped so the
// term is always matched literally. Invalid UTF-8 is replaced first.
func Compile(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(strings.ToValidUTF8(term, "\uFFFD")))
}

// Split cuts text into alternating plain and marked segments. Matches are
// taken left to right without overlap. Joining the segment texts yields text.
func Split(text string, re *regexp.Regexp) []Segment {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []Segment{{Text: text}}
	}

	var segs []Segment
	prev := 0
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > prev {
			segs = append(segs, Segment{Text: text[prev:loc[0]]})
		}
		segs = append(segs, Segment{Text: text[loc[0]:loc[1]], Marked: true})
		prev = loc[1]
	}
	if prev < len(text) {
		segs = append(segs, Segment{Text: text[prev:]})
	}
	return segs
}

// Blocks returns the element children of root that carry BlockClass.
func Blocks(root *html.Node) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if doctree.HasClass(c, BlockClass) {
			out = append(out, c)
		}
	}
	return out
}

// Unmark replaces every mark span under root with its text and merges the
// resulting adjacent text nodes.
func Unmark(root *html.Node) {
	var marks []*html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if isMark(n) {
			marks = append(marks, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)

	for _, m := range marks {
		if m.Parent == nil {
			continue
		}
		m.Parent.InsertBefore(doctree.Text(doctree.TextContent(m)), m)
		m.Parent.RemoveChild(m)
	}
	Normalize(root)
}

// Normalize merges adjacent text nodes and drops empty ones, like the DOM's
// Node.normalize.
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode {
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
			if c.Data == "" {
				n.RemoveChild(c)
			}
		} else {
			Normalize(c)
		}
		c = next
	}
}

// Count returns the number of marks under root.
func Count(root *html.Node) int {
	n := 0
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if isMark(x) {
			n++
			return
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return n
}

func markTree(n *html.Node, re *regexp.Regexp) int {
	if n.Type == html.TextNode {
		return markText(n, re)
	}
	if n.Type != html.ElementNode && n.Type != html.DocumentNode {
		return 0
	}
	if skip(n) {
		return 0
	}

	// Collect first: markText replaces children while we iterate.
	var kids []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, c)
	}
	count := 0
	for _, c := range kids {
		count += markTree(c, re)
	}
	return count
}

func markText(n *html.Node, re *regexp.Regexp) int {
	parent := n.Parent
	if parent == nil {
		return 0
	}
	segs := Split(n.Data, re)
	marks := 0
	for _, s := range segs {
		if s.Marked {
			marks++
		}
	}
	if marks == 0 {
		return 0
	}

	for _, s := range segs {
		if !s.Marked {
			parent.InsertBefore(doctree.Text(s.Text), n)
			continue
		}
		span := doctree.Element("span", "class", MarkClass)
		span.AppendChild(doctree.Text(s.Text))
		parent.InsertBefore(span, n)
	}
	parent.RemoveChild(n)
	return marks
}

func skip(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return isMark(n)
}

func isMark(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Span && doctree.HasClass(n, MarkClass)
}

func setHidden(n *html.Node, hidden bool) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != HiddenAttr {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
	if hidden {
		n.Attr = append(n.Attr, html.Attribute{Key: HiddenAttr})
	}
}

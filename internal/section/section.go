// Package section locates the part of a converted document that belongs to a
// topic heading.
package section

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"golang.org/x/text/cases"
)

// Bullet is the disclosure glyph the navigation menu prefixes to expandable
// topics. It is never part of a topic.
const Bullet = "▶"

// headingPrefix marks a node as a section boundary when its text is non-empty.
const headingPrefix = "h"

var whitespace = regexp.MustCompile(`\s+`)

// Section is a heading plus the run of nodes that follows it.
type Section struct {
	Heading *doctree.Node
	Body    []*doctree.Node
	Index   int // position of Heading in the source node list
}

// Title returns the heading text as it appears in the document.
func (s *Section) Title() string {
	if s == nil {
		return ""
	}
	return s.Heading.InnerText()
}

// Match is a section found in one document of a multi-document search.
type Match struct {
	Path    string
	Section *Section
}

// Clean strips bullet glyphs, collapses whitespace and trims. The result keeps
// its case and is suitable for display.
func Clean(s string) string {
	s = strings.ReplaceAll(s, Bullet, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeTopic returns the comparison form of a topic or node text.
func NormalizeTopic(s string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(Clean(s))
}

// Equal reports whether two topics are the same after normalization.
func Equal(a, b string) bool {
	return NormalizeTopic(a) == NormalizeTopic(b)
}

// Extract finds the first node whose text equals topic and returns it with
// every following node up to the next heading that has visible text. Headings
// with blank text do not end the section. Any node type can match the topic.
func Extract(nodes []*doctree.Node, topic string) (*Section, bool) {
	want := NormalizeTopic(topic)
	if want == "" {
		return nil, false
	}

	for i, n := range nodes {
		if n == nil {
			continue
		}
		if NormalizeTopic(n.InnerText()) != want {
			continue
		}

		sec := &Section{Heading: n, Index: i}
		for _, next := range nodes[i+1:] {
			if next == nil {
				continue
			}
			if isBoundary(next) {
				break
			}
			sec.Body = append(sec.Body, next)
		}
		return sec, true
	}
	return nil, false
}

// ExtractAll runs Extract over each document and keeps the hits in document
// order. Documents without a match contribute nothing.
func ExtractAll(docs []*doctree.Document, topic string) []Match {
	var matches []Match
	for _, d := range docs {
		if d == nil {
			continue
		}
		if sec, ok := Extract(d.Nodes, topic); ok {
			matches = append(matches, Match{Path: d.Path, Section: sec})
		}
	}
	return matches
}

// Outline lists the non-empty heading texts of a document in order.
func Outline(nodes []*doctree.Node) []string {
	var out []string
	for _, n := range nodes {
		if n != nil && isBoundary(n) {
			out = append(out, Clean(n.InnerText()))
		}
	}
	return out
}

func isBoundary(n *doctree.Node) bool {
	return strings.HasPrefix(strings.ToLower(n.Tag()), headingPrefix) &&
		strings.TrimSpace(n.InnerText()) != ""
}

// Package nav builds the topic menu and the quick-links list shown next to
// the viewer.
//
// The menu is written in Markdown: each heading opens a group and the bullet
// lists under it are the topics. A nested list makes its parent item
// expandable.
package nav

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/docview/internal/section"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Item is one topic in the menu.
type Item struct {
	Label    string  `json:"label"`
	Topic    string  `json:"topic"`
	Children []*Item `json:"children,omitempty"`

	parent *Item
	group  *Group
}

// Display is the label as shown in the menu. Expandable items carry the
// bullet glyph.
func (it *Item) Display() string {
	if len(it.Children) > 0 {
		return it.Label + " " + section.Bullet
	}
	return it.Label
}

// siblings is the list that directly encloses the item.
func (it *Item) siblings() []*Item {
	if it.parent != nil {
		return it.parent.Children
	}
	return it.group.Items
}

// Group is a titled block of top-level items.
type Group struct {
	Title string  `json:"title"`
	Items []*Item `json:"items"`
}

// Link is one entry of the quick-links list.
type Link struct {
	Topic  string `json:"topic"`
	Active bool   `json:"active"`
}

// Menu is the parsed navigation menu.
type Menu struct {
	Groups []*Group `json:"groups"`

	index map[string]*Item
}

// TopicFromLabel turns a menu label, glyph included, into a topic.
func TopicFromLabel(label string) string {
	return section.Clean(label)
}

// Load reads and parses a menu file.
func Load(path string) (*Menu, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nav file: %w", err)
	}
	return Parse(src), nil
}

// Parse builds a menu from Markdown. Lists that appear before the first
// heading go into an untitled group.
func Parse(src []byte) *Menu {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	m := &Menu{}
	var current *Group
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			current = &Group{Title: inlineText(node, src)}
			m.Groups = append(m.Groups, current)
		case *ast.List:
			if current == nil {
				current = &Group{}
				m.Groups = append(m.Groups, current)
			}
			current.Items = append(current.Items, listItems(node, src, nil, current)...)
		}
	}
	m.reindex()
	return m
}

// FromOutlines builds a menu with one group per document whose items are the
// document's headings.
func FromOutlines(groups []string, headings [][]string) *Menu {
	m := &Menu{}
	for i, title := range groups {
		g := &Group{Title: title}
		if i < len(headings) {
			for _, h := range headings[i] {
				g.Items = append(g.Items, &Item{Label: h, Topic: TopicFromLabel(h), group: g})
			}
		}
		m.Groups = append(m.Groups, g)
	}
	m.reindex()
	return m
}

func listItems(list *ast.List, src []byte, parent *Item, g *Group) []*Item {
	var items []*Item
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		it := &Item{parent: parent, group: g}
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch cn := c.(type) {
			case *ast.List:
				it.Children = append(it.Children, listItems(cn, src, it, g)...)
			default:
				if it.Label == "" {
					it.Label = section.Clean(inlineText(cn, src))
				}
			}
		}
		if it.Label == "" {
			continue
		}
		it.Topic = TopicFromLabel(it.Label)
		items = append(items, it)
	}
	return items
}

// inlineText collects the text of a node's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}

func (m *Menu) reindex() {
	m.index = make(map[string]*Item)
	m.Walk(func(it *Item) {
		key := section.NormalizeTopic(it.Topic)
		if _, dup := m.index[key]; !dup {
			m.index[key] = it
		}
	})
}

// Walk visits every item depth-first in menu order.
func (m *Menu) Walk(fn func(*Item)) {
	if m == nil {
		return
	}
	var walk func([]*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			fn(it)
			walk(it.Children)
		}
	}
	for _, g := range m.Groups {
		walk(g.Items)
	}
}

// Lookup finds the first item whose topic equals topic after normalization.
func (m *Menu) Lookup(topic string) (*Item, bool) {
	if m == nil {
		return nil, false
	}
	it, ok := m.index[section.NormalizeTopic(topic)]
	return it, ok
}

// Topics lists every topic in menu order.
func (m *Menu) Topics() []string {
	var out []string
	m.Walk(func(it *Item) { out = append(out, it.Topic) })
	return out
}

// QuickLinks lists every topic inside the list that directly encloses the
// selected item, nested topics included. A list with a single topic yields
// nothing, as does a topic that is not in the menu.
func (m *Menu) QuickLinks(topic string) []Link {
	sel, ok := m.Lookup(topic)
	if !ok {
		return nil
	}

	var links []Link
	var walk func([]*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			links = append(links, Link{Topic: it.Topic, Active: it == sel})
			walk(it.Children)
		}
	}
	walk(sel.siblings())

	if len(links) <= 1 {
		return nil
	}
	return links
}

// String renders the menu as an indented outline, mostly for the CLI.
func (m *Menu) String() string {
	var b strings.Builder
	var walk func([]*Item, int)
	walk = func(items []*Item, depth int) {
		for _, it := range items {
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", depth), it.Display())
			walk(it.Children, depth+1)
		}
	}
	for _, g := range m.Groups {
		if g.Title != "" {
			fmt.Fprintf(&b, "%s\n", g.Title)
		}
		walk(g.Items, 0)
	}
	return b.String()
}

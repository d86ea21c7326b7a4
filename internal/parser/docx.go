package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/dgallion1/docview/internal/doctree"
	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
)

// DOCXParser handles .docx files. Paragraph styles become h1..h6 or p,
// list paragraphs are grouped into ul, hyperlinks keep their targets and
// tables are kept as tables.
type DOCXParser struct{}

func (p *DOCXParser) Convert(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	links, err := docxRelationships(data)
	if err != nil {
		return nil, fmt.Errorf("read relationships: %w", err)
	}

	out := &doctree.Document{Path: filename, Title: titleFromName(filename)}
	var list *html.Node

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			style := docxStyle(it)
			if isListStyle(style) {
				if list == nil {
					list = doctree.Element("ul")
					out.Nodes = append(out.Nodes, &doctree.Node{Node: list})
				}
				li := doctree.Element("li")
				appendInline(li, it, links)
				list.AppendChild(li)
				continue
			}
			list = nil

			level := docxHeadingLevel(style)
			tag := "p"
			if level > 0 {
				tag = fmt.Sprintf("h%d", level)
			}
			el := doctree.Element(tag)
			appendInline(el, it, links)
			// Empty body paragraphs carry no content; empty headings are
			// kept because they still shape the document.
			if level == 0 && el.FirstChild == nil {
				continue
			}
			out.Nodes = append(out.Nodes, &doctree.Node{Node: el})

		case *docx.Table:
			list = nil
			out.Nodes = append(out.Nodes, &doctree.Node{Node: docxTable(it, links)})
		}
	}

	return out, nil
}

func docxTable(t *docx.Table, links map[string]string) *html.Node {
	table := doctree.Element("table")
	tbody := doctree.Element("tbody")
	table.AppendChild(tbody)
	for _, row := range t.TableRows {
		tr := doctree.Element("tr")
		for _, cell := range row.TableCells {
			td := doctree.Element("td")
			for _, para := range cell.Paragraphs {
				pe := doctree.Element("p")
				appendInline(pe, para, links)
				if pe.FirstChild != nil {
					td.AppendChild(pe)
				}
			}
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	return table
}

// appendInline adds the runs and hyperlinks of a paragraph to el.
func appendInline(el *html.Node, para *docx.Paragraph, links map[string]string) {
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			if t := runText(c); t != "" {
				el.AppendChild(doctree.Text(t))
			}
		case *docx.Hyperlink:
			t := runText(&c.Run)
			if t == "" {
				continue
			}
			a := doctree.Element("a", "href", links[c.ID])
			a.AppendChild(doctree.Text(t))
			el.AppendChild(a)
		}
	}
}

func runText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func isListStyle(style string) bool {
	return strings.EqualFold(style, "ListParagraph") || strings.EqualFold(style, "List Paragraph")
}

func docxHeadingLevel(style string) int {
	switch {
	case strings.EqualFold(style, "Heading1") || strings.EqualFold(style, "heading 1"):
		return 1
	case strings.EqualFold(style, "Heading2") || strings.EqualFold(style, "heading 2"):
		return 2
	case strings.EqualFold(style, "Heading3") || strings.EqualFold(style, "heading 3"):
		return 3
	case strings.EqualFold(style, "Heading4") || strings.EqualFold(style, "heading 4"):
		return 4
	case strings.EqualFold(style, "Heading5") || strings.EqualFold(style, "heading 5"):
		return 5
	case strings.EqualFold(style, "Heading6") || strings.EqualFold(style, "heading 6"):
		return 6
	}
	return 0
}

// docxRelationships maps relationship ids of word/document.xml to their
// targets. Hyperlinks refer to these ids.
func docxRelationships(data []byte) (map[string]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	links := make(map[string]string)
	for _, f := range zr.File {
		if f.Name != "word/_rels/document.xml.rels" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(raw); err != nil {
			return nil, err
		}
		for _, rel := range doc.FindElements("//Relationship") {
			links[rel.SelectAttrValue("Id", "")] = rel.SelectAttrValue("Target", "")
		}
	}
	return links, nil
}

package parser

import (
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.markdown", "*parser.MarkdownParser"},
		{"a.csv", "*parser.SheetParser"},
		{"a.xlsx", "*parser.SheetParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"/docs/operations/creation.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		c, err := ForFile(tt.filename, Options{})
		if err != nil {
			t.Fatalf("ForFile(%q): %v", tt.filename, err)
		}
		if got := typeName(c); got != tt.want {
			t.Errorf("ForFile(%q): expected %s, got %s", tt.filename, tt.want, got)
		}
	}

	if _, err := ForFile("a.odt", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	for _, name := range []string{"x.docx", "X.PDF", "y.Xlsx", "z.markdown"} {
		if !IsSupportedExtension(name) {
			t.Errorf("expected %q to be supported", name)
		}
	}
	for _, name := range []string{"x.doc", "noext", "y.odt"} {
		if IsSupportedExtension(name) {
			t.Errorf("expected %q to be unsupported", name)
		}
	}
}

func TestSheetParser_CSV(t *testing.T) {
	p := &SheetParser{}
	doc, err := p.Convert(strings.NewReader("Fund,NAV\nAlpha,101.5\n"), "/docs/reports/rates.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "rates" {
		t.Errorf("expected title %q, got %q", "rates", doc.Title)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Tag() != "table" {
		t.Fatalf("expected one table node, got %d", len(doc.Nodes))
	}
	if !strings.Contains(doc.Nodes[0].OuterHTML(), "<td>Alpha</td>") {
		t.Errorf("unexpected table %s", doc.Nodes[0].OuterHTML())
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *SheetParser:
		return "*parser.SheetParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	}
	return "unknown"
}

package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId9" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="rates.xlsx" TargetMode="External"/>
</Relationships>`

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Fund Creation</w:t></w:r></w:p>
<w:p><w:r><w:t>Create the fund record.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:pPr><w:pStyle w:val="ListParagraph"/></w:pPr><w:r><w:t>Open admin</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="ListParagraph"/></w:pPr><w:r><w:t>Fill details</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">See </w:t></w:r><w:hyperlink r:id="rId9"><w:r><w:t>rates.xlsx</w:t></w:r></w:hyperlink></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Fees</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", docxContentTypes},
		{"word/_rels/document.xml.rels", docxRels},
		{"word/document.xml", documentXML},
	}
	for _, p := range parts {
		f, err := w.Create(p.name)
		if err != nil {
			t.Fatalf("create %s: %v", p.name, err)
		}
		if _, err := f.Write([]byte(p.body)); err != nil {
			t.Fatalf("write %s: %v", p.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXParser_Blocks(t *testing.T) {
	p := &DOCXParser{}
	doc, err := p.Convert(bytes.NewReader(buildDOCX(t, docxBody)), "/docs/operations/creation.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "creation" {
		t.Errorf("expected title %q, got %q", "creation", doc.Title)
	}

	want := []string{
		"h1:Fund Creation",
		"p:Create the fund record.",
		"ul:Open adminFill details",
		"p:See rates.xlsx",
		"h2:Fees",
	}
	if len(doc.Nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(doc.Nodes))
	}
	for i, w := range want {
		got := doc.Nodes[i].Tag() + ":" + doc.Nodes[i].InnerText()
		if got != w {
			t.Errorf("node[%d]: expected %q, got %q", i, w, got)
		}
	}

	if got := doc.Nodes[3].InnerHTML(); !strings.Contains(got, `<a href="rates.xlsx">rates.xlsx</a>`) {
		t.Errorf("expected hyperlink target to be kept, got %s", got)
	}
}

func TestDOCXParser_Invalid(t *testing.T) {
	p := &DOCXParser{}
	if _, err := p.Convert(strings.NewReader("not a zip"), "bad.docx"); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"Heading6":  6,
		"Heading7":  0,
		"Normal":    0,
		"":          0,
	}
	for style, want := range tests {
		if got := docxHeadingLevel(style); got != want {
			t.Errorf("docxHeadingLevel(%q): expected %d, got %d", style, want, got)
		}
	}
	if !isListStyle("List Paragraph") || isListStyle("Normal") {
		t.Error("unexpected list style detection")
	}
}

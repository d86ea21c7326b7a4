package highlight

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/docview/internal/doctree"
	"golang.org/x/net/html"
)

const viewerFixture = `<div id="viewer">` +
	`<div class="section-block"><h3>From: /docs/a.docx</h3><p>The Fund manages the fund.</p></div>` +
	`<div class="section-block"><h3>From: /docs/b.docx</h3><p>Settlement <b>cut-off</b> at 17:00.</p><script>var fund = 1;</script></div>` +
	`</div>`

func parseViewer(t *testing.T, markup string) *html.Node {
	t.Helper()
	nodes, err := doctree.FromString(markup)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected a single root, got %d nodes", len(nodes))
	}
	return nodes[0].Node
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func markTexts(root *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isMark(n) {
			out = append(out, doctree.TextContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func TestRefresh_MarksCaseInsensitiveMatches(t *testing.T) {
	root := parseViewer(t, viewerFixture)

	res := Refresh(root, "fund")

	if res.Marks != 2 {
		t.Fatalf("expected 2 marks, got %d", res.Marks)
	}
	got := markTexts(root)
	if len(got) != 2 || got[0] != "Fund" || got[1] != "fund" {
		t.Errorf("expected marks [Fund fund], got %v", got)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("expected 2 block results, got %d", len(res.Blocks))
	}
	if !res.Blocks[0].Visible || res.Blocks[1].Visible {
		t.Errorf("expected first block visible and second hidden, got %+v", res.Blocks)
	}
	blocks := Blocks(root)
	if !hasAttr(blocks[1], HiddenAttr) {
		t.Error("expected second block to carry the hidden attribute")
	}
	if hasAttr(blocks[0], HiddenAttr) {
		t.Error("expected first block to be visible")
	}
}

func TestRefresh_NoMatchHidesBlock(t *testing.T) {
	root := parseViewer(t, `<div><div class="section-block"><p>The Fund manages the fund.</p></div></div>`)

	res := Refresh(root, "xyz")

	if res.Marks != 0 {
		t.Errorf("expected 0 marks, got %d", res.Marks)
	}
	if res.Visible() != 0 {
		t.Errorf("expected no visible blocks, got %d", res.Visible())
	}
	if !hasAttr(Blocks(root)[0], HiddenAttr) {
		t.Error("expected block to be hidden")
	}
}

func TestRefresh_SkipsScriptContent(t *testing.T) {
	root := parseViewer(t, viewerFixture)

	res := Refresh(root, "var fund")
	if res.Marks != 0 {
		t.Errorf("expected script text to be ignored, got %d marks", res.Marks)
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	root := parseViewer(t, viewerFixture)

	Refresh(root, "the")
	once := render(t, root)
	Refresh(root, "the")
	twice := render(t, root)

	if once != twice {
		t.Errorf("expected identical markup after repeated refresh\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestRefresh_NoStaleMarks(t *testing.T) {
	root := parseViewer(t, viewerFixture)

	Refresh(root, "fund")
	res := Refresh(root, "cut-off")

	if res.Marks != 1 {
		t.Fatalf("expected 1 mark, got %d", res.Marks)
	}
	for _, m := range markTexts(root) {
		if strings.EqualFold(m, "fund") {
			t.Errorf("found stale mark %q", m)
		}
	}
	if res.Blocks[0].Visible || !res.Blocks[1].Visible {
		t.Errorf("expected visibility recomputed for new term, got %+v", res.Blocks)
	}
}

func TestRefresh_BlankTermRestoresEverything(t *testing.T) {
	root := parseViewer(t, viewerFixture)
	original := render(t, root)

	Refresh(root, "fund")
	res := Refresh(root, "   ")

	if res.Marks != 0 || Count(root) != 0 {
		t.Errorf("expected no marks, got %d", Count(root))
	}
	if res.Visible() != 2 {
		t.Errorf("expected both blocks visible, got %d", res.Visible())
	}
	if got := render(t, root); got != original {
		t.Errorf("expected original markup restored\nwant: %s\ngot:  %s", original, got)
	}
}

func TestRefresh_DoesNotAccumulateFragments(t *testing.T) {
	root := parseViewer(t, `<div><div class="section-block"><p>aaa bbb aaa</p></div></div>`)
	p := Blocks(root)[0].FirstChild

	for range 5 {
		Refresh(root, "a")
	}
	Refresh(root, "")

	n := 0
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		n++
	}
	if n != 1 {
		t.Errorf("expected a single merged text node, got %d children", n)
	}
}

func TestRefresh_LiteralMetacharacters(t *testing.T) {
	root := parseViewer(t, `<div><div class="section-block"><p>Rate (a+b) vs ab</p></div></div>`)

	res := Refresh(root, "(a+b)")
	if res.Marks != 1 {
		t.Fatalf("expected 1 literal match, got %d", res.Marks)
	}
	if got := markTexts(root); got[0] != "(a+b)" {
		t.Errorf("expected mark %q, got %q", "(a+b)", got[0])
	}
}

func TestRefresh_InvalidUTF8Term(t *testing.T) {
	root := parseViewer(t, viewerFixture)

	res := Refresh(root, "\xff")
	if res.Term != "\uFFFD" {
		t.Errorf("expected invalid bytes replaced, got %q", res.Term)
	}
	if res.Marks != 0 || res.Visible() != 0 {
		t.Errorf("expected no matches, got %+v", res)
	}

	res = Refresh(root, "cut\xff")
	if res.Marks != 0 {
		t.Errorf("expected replaced byte to take part in the match, got %d marks", res.Marks)
	}
	if res = Refresh(root, "fund"); res.Marks != 2 {
		t.Errorf("expected state to recover after invalid term, got %d marks", res.Marks)
	}
}

func TestRefresh_NilRoot(t *testing.T) {
	res := Refresh(nil, "x")
	if res.Marks != 0 || len(res.Blocks) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSplit_ReconstructsText(t *testing.T) {
	tests := []struct {
		text  string
		term  string
		marks int
	}{
		{"The Fund manages the fund.", "fund", 2},
		{"aaaa", "aa", 2},
		{"aaa", "aa", 1},
		{"nothing here", "xyz", 0},
		{"fund", "fund", 1},
		{"Ünïcode ünïcode", "ÜNÏCODE", 2},
	}
	for _, tt := range tests {
		segs := Split(tt.text, Compile(tt.term))
		var sb strings.Builder
		marks := 0
		for _, s := range segs {
			sb.WriteString(s.Text)
			if s.Marked {
				marks++
			}
		}
		if sb.String() != tt.text {
			t.Errorf("Split(%q, %q): segments join to %q", tt.text, tt.term, sb.String())
		}
		if marks != tt.marks {
			t.Errorf("Split(%q, %q): expected %d marks, got %d", tt.text, tt.term, tt.marks, marks)
		}
	}
}

func TestNormalize_MergesAndDropsEmpty(t *testing.T) {
	p := doctree.Element("p")
	p.AppendChild(doctree.Text("a"))
	p.AppendChild(doctree.Text(""))
	p.AppendChild(doctree.Text("b"))
	b := doctree.Element("b")
	b.AppendChild(doctree.Text("c"))
	p.AppendChild(b)
	p.AppendChild(doctree.Text(""))

	Normalize(p)

	if p.FirstChild.Data != "ab" {
		t.Errorf("expected merged text %q, got %q", "ab", p.FirstChild.Data)
	}
	if p.LastChild != b {
		t.Error("expected trailing empty text node to be dropped")
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

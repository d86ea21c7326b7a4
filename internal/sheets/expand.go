package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/source"
	"golang.org/x/net/html"
)

const (
	// BrokenClass marks a spreadsheet link that could not be expanded.
	BrokenClass = "broken-link"
	// ErrorClass is the class of the indicator placed after a broken link.
	ErrorClass = "sheet-error"
	// TableClass wraps an expanded spreadsheet.
	TableClass = "sheet-table"
)

// Expander replaces spreadsheet links with the tables they point to.
type Expander struct {
	src source.Source
	log *slog.Logger
}

// Report counts the outcome of one Expand call.
type Report struct {
	Expanded int
	Broken   int
}

func NewExpander(src source.Source, log *slog.Logger) *Expander {
	return &Expander{src: src, log: log}
}

// Expand finds every link in block whose text ends in the spreadsheet
// extension, resolves it against the directory of docPath and inlines the
// rendered table. A link that cannot be loaded stays in place, gets
// BrokenClass and is followed by an error indicator.
func (e *Expander) Expand(ctx context.Context, block *html.Node, docPath string) Report {
	var rep Report
	doc := goquery.NewDocumentFromNode(block)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		if !strings.HasSuffix(strings.ToLower(text), Extension) {
			return
		}
		p := source.Resolve(docPath, text)

		table, err := e.load(ctx, p)
		if err != nil {
			e.log.Warn("spreadsheet link broken", "doc", docPath, "sheet", p, "error", err)
			a.AddClass(BrokenClass)
			a.AfterNodes(errorIndicator(text, err))
			rep.Broken++
			return
		}

		wrap := doctree.Element("div", "class", TableClass, "data-source", p)
		wrap.AppendChild(table)
		a.ReplaceWithNodes(wrap)
		rep.Expanded++
	})
	return rep
}

func (e *Expander) load(ctx context.Context, p string) (*html.Node, error) {
	data, err := e.src.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	rows, err := ReadXLSX(data)
	if err != nil {
		return nil, err
	}
	return Table(rows), nil
}

func errorIndicator(name string, err error) *html.Node {
	span := doctree.Element("span", "class", ErrorClass, "title", err.Error())
	span.AppendChild(doctree.Text(fmt.Sprintf(" ⚠️ Could not load %s", name)))
	return span
}

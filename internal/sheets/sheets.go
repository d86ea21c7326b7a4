// Package sheets renders spreadsheets as HTML tables and expands spreadsheet
// links inside rendered sections.
package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/render"
	"golang.org/x/net/html"
)

// Extension is the link suffix that triggers inline expansion.
const Extension = ".xlsx"

// Render converts spreadsheet bytes to a table, choosing the reader by the
// file extension of name.
func Render(name string, data []byte) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return RenderXLSX(data)
	case ".csv":
		return RenderCSV(data)
	default:
		return "", fmt.Errorf("unsupported spreadsheet: %s", name)
	}
}

// RenderCSV converts CSV bytes to a table.
func RenderCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	return render.HTML(Table(records))
}

// Table builds a table element from rows of cell text. Short rows are padded
// so every row has the same width.
func Table(rows [][]string) *html.Node {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	table := doctree.Element("table", "class", "sheet")
	tbody := doctree.Element("tbody")
	table.AppendChild(tbody)
	for _, r := range rows {
		tr := doctree.Element("tr")
		for i := range width {
			td := doctree.Element("td")
			if i < len(r) && r[i] != "" {
				td.AppendChild(doctree.Text(r[i]))
			}
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	return table
}

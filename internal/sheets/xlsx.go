package sheets

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/dgallion1/docview/internal/render"
)

// Worksheet limits of the format. References past them are rejected rather
// than allocated.
const (
	maxColumns = 16384
	maxRows    = 1048576
)

// RenderXLSX converts the first worksheet of an .xlsx package to a table.
func RenderXLSX(data []byte) (string, error) {
	rows, err := ReadXLSX(data)
	if err != nil {
		return "", err
	}
	return render.HTML(Table(rows))
}

// ReadXLSX returns the cell text of the first worksheet, row by row. Missing
// cells are returned as empty strings.
func ReadXLSX(data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	sheetName, err := firstSheet(files)
	if err != nil {
		return nil, err
	}

	var shared []string
	if f, ok := files["xl/sharedStrings.xml"]; ok {
		doc, err := readXML(f)
		if err != nil {
			return nil, fmt.Errorf("shared strings: %w", err)
		}
		for _, si := range doc.FindElements("//si") {
			shared = append(shared, richText(si))
		}
	}

	doc, err := readXML(files[sheetName])
	if err != nil {
		return nil, fmt.Errorf("worksheet %s: %w", sheetName, err)
	}

	type cell struct {
		col  int
		text string
	}
	byRow := make(map[int][]cell)
	maxRow := 0
	next := 1
	for _, row := range doc.FindElements("//sheetData/row") {
		r := next
		if n, err := strconv.Atoi(row.SelectAttrValue("r", "")); err == nil && n > 0 {
			r = n
		}
		if r > maxRows {
			return nil, fmt.Errorf("row %d exceeds the %d row limit", r, maxRows)
		}
		next = r + 1
		maxRow = max(maxRow, r)

		col := 0
		for _, c := range row.SelectElements("c") {
			if ref := c.SelectAttrValue("r", ""); ref != "" {
				if n := columnIndex(ref); n >= 0 {
					col = n
				}
			}
			if col >= maxColumns {
				return nil, fmt.Errorf("cell %s: column exceeds the %d column limit", c.SelectAttrValue("r", "?"), maxColumns)
			}
			text, err := cellText(c, shared)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", c.SelectAttrValue("r", "?"), err)
			}
			byRow[r] = append(byRow[r], cell{col: col, text: text})
			col++
		}
	}

	// Keep leading blank rows out, like spreadsheet viewers that start at
	// the used range.
	rowNums := make([]int, 0, len(byRow))
	for r := range byRow {
		rowNums = append(rowNums, r)
	}
	sort.Ints(rowNums)
	if len(rowNums) == 0 {
		return nil, nil
	}

	out := make([][]string, 0, maxRow-rowNums[0]+1)
	for r := rowNums[0]; r <= maxRow; r++ {
		cells := byRow[r]
		width := 0
		for _, c := range cells {
			width = max(width, c.col+1)
		}
		line := make([]string, width)
		for _, c := range cells {
			line[c.col] = c.text
		}
		out = append(out, line)
	}
	return out, nil
}

// firstSheet resolves the part name of the first worksheet through the
// workbook and its relationships, falling back to the lowest-numbered sheet.
func firstSheet(files map[string]*zip.File) (string, error) {
	if wb, ok := files["xl/workbook.xml"]; ok {
		if rels, ok := files["xl/_rels/workbook.xml.rels"]; ok {
			if name := sheetFromWorkbook(wb, rels); name != "" {
				if _, ok := files[name]; ok {
					return name, nil
				}
			}
		}
	}

	var names []string
	for name := range files {
		if strings.HasPrefix(name, "xl/worksheets/") && strings.HasSuffix(name, ".xml") && !strings.Contains(name, "/_rels/") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("xlsx has no worksheets")
	}
	sort.Strings(names)
	return names[0], nil
}

func sheetFromWorkbook(wb, rels *zip.File) string {
	wbDoc, err := readXML(wb)
	if err != nil {
		return ""
	}
	sheet := wbDoc.FindElement("//sheets/sheet")
	if sheet == nil {
		return ""
	}
	id := sheet.SelectAttrValue("id", "")

	relDoc, err := readXML(rels)
	if err != nil {
		return ""
	}
	for _, rel := range relDoc.FindElements("//Relationship") {
		if rel.SelectAttrValue("Id", "") != id {
			continue
		}
		target := rel.SelectAttrValue("Target", "")
		if strings.HasPrefix(target, "/") {
			return strings.TrimPrefix(target, "/")
		}
		return path.Join("xl", target)
	}
	return ""
}

func cellText(c *etree.Element, shared []string) (string, error) {
	typ := c.SelectAttrValue("t", "")
	if typ == "inlineStr" {
		if is := c.SelectElement("is"); is != nil {
			return richText(is), nil
		}
		return "", nil
	}

	v := c.SelectElement("v")
	if v == nil {
		return "", nil
	}
	val := v.Text()
	switch typ {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || idx < 0 || idx >= len(shared) {
			return "", fmt.Errorf("bad shared string index %q", val)
		}
		return shared[idx], nil
	case "b":
		if strings.TrimSpace(val) == "1" {
			return "TRUE", nil
		}
		return "FALSE", nil
	default:
		return val, nil
	}
}

// richText joins every <t> run under el, skipping phonetic runs.
func richText(el *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			switch child.Tag {
			case "t":
				sb.WriteString(child.Text())
			case "rPh":
			default:
				walk(child)
			}
		}
	}
	walk(el)
	return sb.String()
}

// columnIndex converts the letters of a cell reference ("C7") to a zero-based
// column index. It returns -1 when the reference has no letters. Once the
// index passes maxColumns it stops growing, so long references cannot
// overflow.
func columnIndex(ref string) int {
	n := 0
	letters := 0
	for _, r := range strings.ToUpper(ref) {
		if r < 'A' || r > 'Z' {
			break
		}
		if n <= maxColumns {
			n = n*26 + int(r-'A'+1)
		}
		letters++
	}
	if letters == 0 {
		return -1
	}
	return n - 1
}

func readXML(f *zip.File) (*etree.Document, error) {
	if f == nil {
		return nil, fmt.Errorf("missing part")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}

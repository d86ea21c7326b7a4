package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/sheets"
)

// SheetParser handles .csv and .xlsx files as a single table block.
type SheetParser struct{}

func (p *SheetParser) Convert(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	table, err := sheets.Render(filename, data)
	if err != nil {
		return nil, fmt.Errorf("render sheet: %w", err)
	}
	nodes, err := doctree.FromString(table)
	if err != nil {
		return nil, fmt.Errorf("parse sheet table: %w", err)
	}
	return &doctree.Document{Path: filename, Title: titleFromName(filename), Nodes: nodes}, nil
}

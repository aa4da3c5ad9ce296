// Package tabular converts an offer and its computed emissions to a
// spreadsheet-shaped report and back.
//
// A report is a Document: one header row, one row per line item grouped by
// category, and a trailing total row. Documents are encoded as CSV or XLSX.
package tabular

import (
	"errors"
	"strings"
)

// Column headers in document order.
const (
	ColCategory        = "Category"
	ColItemName        = "Item name"
	ColUnit            = "Unit"
	ColQuantity        = "Quantity"
	ColEmissionFactor  = "Emission factor"
	ColCementMass      = "Cement mass (kg/m³)"
	ColRebarFactor     = "Rebar factor"
	ColRebarMass       = "Rebar mass (kg/m³)"
	ColTransportWeight = "Transport weight (tonnes)"
	ColCO2e            = "CO2e (kg)"

	// ColReinforced is only written when ExportOptions.ReinforcedColumn is set.
	ColReinforced = "Reinforced"
)

// bom is the UTF-8 byte order mark spreadsheet tools expect on CSV files.
const bom = "\ufeff"

// TotalLabel is the Category cell of the trailing total row.
const TotalLabel = "Total"

// Errors reported when a document cannot be used at all.
var (
	ErrUnreadableDocument = errors.New("unreadable tabular document")
	ErrUnsupportedFormat  = errors.New("unsupported tabular format")
)

// Columns returns the fixed column header, without the optional
// ColReinforced column.
func Columns() []string {
	return []string{
		ColCategory,
		ColItemName,
		ColUnit,
		ColQuantity,
		ColEmissionFactor,
		ColCementMass,
		ColRebarFactor,
		ColRebarMass,
		ColTransportWeight,
		ColCO2e,
	}
}

// Document is a grid of text cells with a header row.
type Document struct {
	Header []string
	Rows   [][]string
}

// columnIndex maps normalized header names to column positions.
type columnIndex map[string]int

// indexHeader resolves header cells by name. Matching ignores case,
// surrounding spaces, a leading BOM and any parenthesized unit suffix, so
// "cement mass" finds "Cement mass (kg/m³)".
func indexHeader(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		key := headerKey(h)
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// cell returns the trimmed cell of row under the named column, or "" when the
// column or the cell is missing.
func (ci columnIndex) cell(row []string, name string) string {
	i, ok := ci[headerKey(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (ci columnIndex) has(name string) bool {
	_, ok := ci[headerKey(name)]
	return ok
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, bom)
	if i := strings.Index(h, "("); i >= 0 {
		h = h[:i]
	}
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

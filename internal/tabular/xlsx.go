package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet reports are written to.
const SheetName = "Carbon report"

const defaultSheet = "Sheet1"

// WriteXLSX encodes doc as a single-sheet workbook. Cells are written as
// text; the header is bold and the descriptive cells of the total row are
// merged.
func WriteXLSX(w io.Writer, doc *Document) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	if err = f.SetSheetName(defaultSheet, SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	rows := append([][]string{doc.Header}, doc.Rows...)
	for i, row := range rows {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+1)
		if cellErr != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, cellErr)
		}
		values := row
		if err = f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err = styleHeader(f, len(doc.Header)); err != nil {
		return err
	}
	if err = mergeTotalRow(f, doc, len(rows)); err != nil {
		return err
	}

	if err = f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, width int) error {
	if width == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err = f.SetRowStyle(SheetName, 1, 1, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	last, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err = f.SetColWidth(SheetName, "A", last, 18); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	return nil
}

// mergeTotalRow spans the Total label over every column left of CO2e.
func mergeTotalRow(f *excelize.File, doc *Document, lastRow int) error {
	if len(doc.Rows) == 0 {
		return nil
	}
	co2e, ok := indexHeader(doc.Header)[headerKey(ColCO2e)]
	if !ok || co2e < 2 {
		return nil
	}
	if total := doc.Rows[len(doc.Rows)-1]; len(total) == 0 || total[0] != TotalLabel {
		return nil
	}

	from, err := excelize.CoordinatesToCellName(1, lastRow)
	if err != nil {
		return fmt.Errorf("merging total row: %w", err)
	}
	to, err := excelize.CoordinatesToCellName(co2e, lastRow)
	if err != nil {
		return fmt.Errorf("merging total row: %w", err)
	}
	if err = f.MergeCell(SheetName, from, to); err != nil {
		return fmt.Errorf("merging total row: %w", err)
	}
	return nil
}

// ReadXLSX decodes a workbook report. It reads the SheetName worksheet, or
// the first sheet when that one is absent.
func ReadXLSX(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableDocument)
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if s == SheetName {
			sheet = s
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %w", ErrUnreadableDocument, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrUnreadableDocument, sheet)
	}
	return &Document{Header: rows[0], Rows: rows[1:]}, nil
}

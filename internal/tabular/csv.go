package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// WriteCSV encodes doc as comma-separated UTF-8 with a leading BOM so that
// spreadsheet tools detect the encoding of "m³".
func WriteCSV(w io.Writer, doc *Document) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(doc.Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteAll(doc.Rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}

// ReadCSV decodes a CSV report. The first record is the header. Files saved
// by spreadsheet tools in locales that use ";" as the list separator are
// detected from the header line.
func ReadCSV(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && string(b) == bom {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if sep, ok := sniffSeparator(br); ok {
		cr.Comma = sep
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrUnreadableDocument)
	}
	return &Document{Header: records[0], Rows: records[1:]}, nil
}

// sniffSeparator inspects the buffered first line without consuming it.
func sniffSeparator(br *bufio.Reader) (rune, bool) {
	line, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, false
	}
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';', true
	}
	return 0, false
}

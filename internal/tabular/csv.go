package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// naValues are the cell spellings read as missing, matching what the
// spreadsheets in this workflow were produced with.
var naValues = map[string]bool{
	"":        true,
	"NA":      true,
	"N/A":     true,
	"n/a":     true,
	"NaN":     true,
	"nan":     true,
	"-NaN":    true,
	"-nan":    true,
	"NULL":    true,
	"null":    true,
	"None":    true,
	"<NA>":    true,
	"#N/A":    true,
	"#NA":     true,
	"1.#QNAN": true,
}

// ReadCSV parses comma (or tab) separated data with a header row. A leading
// UTF-8 byte-order mark is ignored and short rows are padded with nulls.
func ReadCSV(r io.Reader, tsv bool) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	if tsv {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	t := New(records[0]...)
	for _, rec := range records[1:] {
		row := make(Row, len(t.Columns))
		for i := range row {
			if i < len(rec) {
				row[i] = parseCell(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseCell(s string) Cell {
	if naValues[strings.TrimSpace(s)] {
		return Null()
	}
	return Text(s)
}

// WriteCSV writes the header and every row; missing cells become empty fields.
func WriteCSV(w io.Writer, t *Table, tsv bool) error {
	cw := csv.NewWriter(w)
	if tsv {
		cw.Comma = '\t'
	}

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) && row[j].Valid {
				record[j] = row[j].Value
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

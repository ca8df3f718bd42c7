package tabular

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrEmptyTable     = errors.New("empty table")
	ErrUnsupported    = errors.New("unsupported table format")
)

// Cell is a single table value. Valid is false for missing values.
type Cell struct {
	Value string
	Valid bool
}

// Row is an ordered list of cells aligned with Table.Columns.
type Row []Cell

// Table is an in-memory tabular dataset with a fixed column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// Text returns a valid cell holding s.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// Null returns a missing cell.
func Null() Cell { return Cell{} }

// Float returns a cell holding a formatted number; NaN and Inf are null.
func Float(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Text(FormatScore(f))
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds a row of values in column order. Missing trailing values are null.
func (t *Table) Append(cells ...Cell) {
	row := make(Row, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of name or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MustColumn returns the position of name or ErrColumnNotFound.
func (t *Table) MustColumn(name string) (int, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return idx, nil
}

// EnsureColumn appends name as an all-null column if it is absent and
// returns its position.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], Null())
	}
	return len(t.Columns) - 1
}

// Column returns a copy of every cell in the named column.
func (t *Table) Column(name string) ([]Cell, error) {
	idx, err := t.MustColumn(name)
	if err != nil {
		return nil, err
	}
	out := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// NullRows returns the indexes of rows whose cell in column idx is missing.
func (t *Table) NullRows(idx int) []int {
	var rows []int
	for i, row := range t.Rows {
		if !row[idx].Valid {
			rows = append(rows, i)
		}
	}
	return rows
}

// IsTextColumn reports whether a column holds text rather than numbers.
// A column is numeric when every valid cell parses as a float; an
// all-null column is not text.
func (t *Table) IsTextColumn(idx int) bool {
	for _, row := range t.Rows {
		c := row[idx]
		if !c.Valid {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64); err != nil {
			return true
		}
	}
	return false
}

// DropIncomplete removes rows with a missing value in any of the given
// columns, keeping the order of the remaining rows. An empty column list
// means every column. It returns the number of dropped rows.
func (t *Table) DropIncomplete(columns []string) (int, error) {
	var idxs []int
	if len(columns) == 0 {
		for i := range t.Columns {
			idxs = append(idxs, i)
		}
	} else {
		for _, name := range columns {
			idx, err := t.MustColumn(name)
			if err != nil {
				return 0, err
			}
			idxs = append(idxs, idx)
		}
	}

	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		complete := true
		for _, idx := range idxs {
			if !row[idx].Valid {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, row)
		} else {
			dropped++
		}
	}
	t.Rows = kept
	return dropped, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append(Row(nil), row...)
	}
	return out
}

// FormatScore renders a score the way the downstream spreadsheets expect:
// whole numbers keep one decimal ("12.0"), others use the shortest form.
func FormatScore(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseScore parses a numeric cell.
func ParseScore(c Cell) (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

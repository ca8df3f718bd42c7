package repairer

import (
	"github.com/nguyentantai21042004/recall-scorer/internal/tabular"
	"github.com/nguyentantai21042004/recall-scorer/internal/textfix"
)

// Report counts changed cells per text column.
type Report struct {
	Columns map[string]int
	Total   int
}

// Repair returns a copy of t with every text column passed through fixer,
// and a count of cells whose value changed. Numeric columns and missing
// cells are copied as is.
func Repair(t *tabular.Table, fixer *textfix.Fixer) (*tabular.Table, Report) {
	out := t.Clone()
	report := Report{Columns: make(map[string]int)}

	for col, name := range out.Columns {
		if !t.IsTextColumn(col) {
			continue
		}
		changed := 0
		for _, row := range out.Rows {
			cell := row[col]
			if !cell.Valid {
				continue
			}
			fixed := fixer.Fix(cell.Value)
			if fixed != cell.Value {
				row[col] = tabular.Text(fixed)
				changed++
			}
		}
		if changed > 0 {
			report.Columns[name] = changed
			report.Total += changed
		}
	}

	return out, report
}

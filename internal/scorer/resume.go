package scorer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/nguyentantai21042004/recall-scorer/internal/tabular"
)

// previousOutput loads the output of an earlier run, or nil when there is
// none or resuming is disabled.
func (s *implScorer) previousOutput() (*tabular.Table, error) {
	if !s.cfg.ResumesFromOutput() || s.cfg.OutputFile == s.cfg.InputFile {
		return nil, nil
	}
	if _, err := os.Stat(s.cfg.OutputFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", s.cfg.OutputFile, err)
	}
	prev, err := tabular.Read(s.cfg.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("read previous output %s: %w", s.cfg.OutputFile, err)
	}
	return prev, nil
}

// carryOver copies finished scores from prev onto rows of t with the same
// identity (id column and text). Only null cells of t are filled. Rows
// sharing an identity are paired in order. It returns the number of cells
// filled.
func (s *implScorer) carryOver(t, prev *tabular.Table) int {
	keyCols := s.keyColumns(t, prev)
	if keyCols == nil {
		return 0
	}
	tKey := columnIndexes(t, keyCols)
	pKey := columnIndexes(prev, keyCols)

	filled := 0
	for _, dim := range s.cfg.Dimensions {
		pCol := prev.ColumnIndex(dim.Column)
		if pCol < 0 {
			continue
		}
		tCol := t.EnsureColumn(dim.Column)

		pending := make(map[string][]int)
		for i, row := range prev.Rows {
			if row[pCol].Valid {
				k := rowKey(row, pKey)
				pending[k] = append(pending[k], i)
			}
		}

		for _, row := range t.Rows {
			k := rowKey(row, tKey)
			queue := pending[k]
			if len(queue) == 0 {
				continue
			}
			// one previous row per input row, even when the cell is already set
			pending[k] = queue[1:]
			if row[tCol].Valid {
				continue
			}
			row[tCol] = prev.Rows[queue[0]][pCol]
			filled++
		}
	}
	return filled
}

// keyColumns returns the identity columns present in both tables.
func (s *implScorer) keyColumns(t, prev *tabular.Table) []string {
	if prev.ColumnIndex(s.cfg.TextColumn) < 0 {
		return nil
	}
	cols := []string{s.cfg.TextColumn}
	if s.cfg.IDColumn != "" && t.ColumnIndex(s.cfg.IDColumn) >= 0 && prev.ColumnIndex(s.cfg.IDColumn) >= 0 {
		cols = append([]string{s.cfg.IDColumn}, cols...)
	}
	return cols
}

func columnIndexes(t *tabular.Table, names []string) []int {
	idxs := make([]int, len(names))
	for i, n := range names {
		idxs[i] = t.ColumnIndex(n)
	}
	return idxs
}

func rowKey(row tabular.Row, idxs []int) string {
	parts := make([]string, len(idxs))
	for i, idx := range idxs {
		if c := row[idx]; c.Valid {
			parts[i] = "v" + c.Value
		} else {
			parts[i] = "n"
		}
	}
	return strings.Join(parts, "\x1f")
}

func equalTables(a, b *tabular.Table) bool {
	if len(a.Columns) != len(b.Columns) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for i := range a.Rows {
		for j := range a.Rows[i] {
			if a.Rows[i][j] != b.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

package repairer

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/recall-scorer/internal/tabular"
)

// OutputPath inserts suffix before the extension of input:
// "memories.csv" with "_cleaned" becomes "memories_cleaned.csv".
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

func (r *implRepairer) Run(ctx context.Context) (count int) {
	input := r.cfg.InputFile
	output := OutputPath(input, r.cfg.OutputSuffix)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(ctx, "❌ An unexpected error occurred: %v", rec)
			count = -1
		}
	}()

	table, err := tabular.Read(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Error(ctx, "❌ Error: File not found at %s", input)
		} else {
			r.logger.Error(ctx, "❌ An unexpected error occurred: %v", err)
		}
		return -1
	}

	cleaned, report := Repair(table, r.fixer)
	for column, n := range report.Columns {
		r.metrics.CellsFixedTotal.WithLabelValues(column).Add(float64(n))
	}

	if report.Total == 0 {
		r.logger.Info(ctx, "✅ No mojibake found in the file.")
		return 0
	}

	r.logger.Info(ctx, "✅ Found and fixed %d instances of mojibake in the file.", report.Total)
	columns := make([]string, 0, len(report.Columns))
	for column := range report.Columns {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		r.logger.Debug(ctx, "  %s: %d cells", column, report.Columns[column])
	}

	save := r.cfg.AssumeYes
	if !save {
		if r.prompter == nil {
			r.logger.Error(ctx, "❌ An unexpected error occurred: no confirmation prompt available")
			return -1
		}
		save, err = r.prompter.Confirm(ctx, ConfirmQuestion)
		if err != nil {
			r.logger.Error(ctx, "❌ An unexpected error occurred: %v", err)
			return -1
		}
	}

	if !save {
		r.logger.Info(ctx, "Action cancelled. The file was not modified.")
		return report.Total
	}

	if err := tabular.Write(output, cleaned); err != nil {
		r.logger.Error(ctx, "❌ An unexpected error occurred: %v", err)
		return -1
	}
	r.logger.Info(ctx, "✅ Successfully wrote the cleaned file to: %s", output)

	return report.Total
}

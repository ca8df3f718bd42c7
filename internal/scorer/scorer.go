package scorer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/internal/tabular"
)

// Run scores every dimension in order. The table is written to the output
// file after each dimension, and after a failed batch, so a later run
// resumes where this one stopped.
func (s *implScorer) Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	input := s.cfg.InputFile
	logger.Banner(ctx, s.logger,
		"Batch Scorer",
		"Input: "+input,
		"Output: "+s.cfg.OutputFile,
		fmt.Sprintf("Device: %s, batch size: %d", s.device, s.cfg.BatchSize),
	)

	t, err := tabular.Read(input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	if _, err := t.MustColumn(s.cfg.TextColumn); err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}

	summary := &Summary{Input: input}

	dropped, err := t.DropIncomplete(s.requiredColumns(t))
	if err != nil {
		return nil, fmt.Errorf("filter incomplete rows: %w", err)
	}
	summary.Dropped = dropped
	if dropped > 0 {
		s.metrics.RowsDroppedTotal.Add(float64(dropped))
		s.logger.Warn(ctx, "Dropped %d rows with missing required values, %d rows remain", dropped, t.Len())
	}

	prev, err := s.previousOutput()
	if err != nil {
		return nil, err
	}
	if prev != nil {
		summary.Carried = s.carryOver(t, prev)
		s.logger.Info(ctx, "Reused %d scores from %s", summary.Carried, s.cfg.OutputFile)
	}

	wrote := false
	for _, dim := range s.cfg.Dimensions {
		ds, err := s.scoreDimension(ctx, t, dim)
		summary.Dimensions = append(summary.Dimensions, ds)
		if err != nil {
			if ds.Scored > 0 {
				if werr := s.checkpoint(ctx, t); werr != nil {
					s.logger.Error(ctx, "Failed to save partial %s scores: %v", dim.Name, werr)
				}
			}
			return summary, fmt.Errorf("score %s: %w", dim.Name, err)
		}
		if ds.Skipped {
			continue
		}
		if err := s.checkpoint(ctx, t); err != nil {
			return summary, err
		}
		wrote = true
	}

	// input rows may have been removed since the last run
	if !wrote && prev != nil && !equalTables(prev, t) {
		if err := s.checkpoint(ctx, t); err != nil {
			return summary, err
		}
	}

	s.logger.Info(ctx, "✅ Scoring finished in %s", time.Since(startTime))
	return summary, nil
}

// requiredColumns defaults to every loaded column except the score columns,
// whose nulls mark rows still to be scored.
func (s *implScorer) requiredColumns(t *tabular.Table) []string {
	if len(s.cfg.RequiredColumns) > 0 {
		return s.cfg.RequiredColumns
	}
	scoreCols := make(map[string]bool, len(s.cfg.Dimensions))
	for _, d := range s.cfg.Dimensions {
		scoreCols[d.Column] = true
	}
	cols := []string{}
	for _, c := range t.Columns {
		if !scoreCols[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s *implScorer) checkpoint(ctx context.Context, t *tabular.Table) error {
	if err := tabular.Write(s.cfg.OutputFile, t); err != nil {
		return fmt.Errorf("write %s: %w", s.cfg.OutputFile, err)
	}
	s.logger.Info(ctx, "Saved %d rows to %s", t.Len(), s.cfg.OutputFile)
	return nil
}

// scoreDimension scores the rows whose dim column is null. The session is
// closed on every return path.
func (s *implScorer) scoreDimension(ctx context.Context, t *tabular.Table, dim config.DimensionConfig) (ds DimensionSummary, err error) {
	ds = DimensionSummary{Name: dim.Name, Column: dim.Column}

	col := t.EnsureColumn(dim.Column)
	textCol := t.ColumnIndex(s.cfg.TextColumn)
	pending := t.NullRows(col)
	if len(pending) == 0 {
		s.logger.Info(ctx, "All rows already have %s, skipping %s", dim.Column, dim.Name)
		ds.Skipped = true
		return ds, nil
	}

	s.logger.Info(ctx, "Scoring %d rows for %s with %s", len(pending), dim.Name, dim.ModelID)
	sess, err := s.backend.Open(ctx, inference.Dimension{
		Name:    dim.Name,
		ModelID: dim.ModelID,
		Model:   dim.TritonModel,
		Device:  s.device,
	})
	if err != nil {
		return ds, fmt.Errorf("open model %s: %w", dim.ModelID, err)
	}
	s.metrics.ModelLoadsTotal.WithLabelValues(dim.Name).Inc()
	defer func() {
		// unload even when ctx was cancelled
		if cerr := sess.Close(context.WithoutCancel(ctx)); cerr != nil {
			s.logger.Warn(ctx, "Failed to release %s model: %v", dim.Name, cerr)
			if err == nil {
				err = fmt.Errorf("release model %s: %w", dim.ModelID, cerr)
			}
		}
	}()

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription("Scoring "+dim.Name),
		progressbar.OptionSetWriter(s.progress),
	)
	defer func() { _ = bar.Finish() }()

	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return ds, err
		}
		end := min(start+s.cfg.BatchSize, len(pending))
		rows := pending[start:end]

		n, err := s.scoreBatch(ctx, sess, t, rows, textCol, col, dim.Name)
		if err != nil {
			return ds, fmt.Errorf("batch %d: %w", ds.Batches+1, err)
		}
		ds.Batches++
		ds.Scored += n
		_ = bar.Add(len(rows))
	}

	return ds, nil
}

// scoreBatch scores rows and writes the rounded scores back into col.
func (s *implScorer) scoreBatch(ctx context.Context, sess inference.Session, t *tabular.Table, rows []int, textCol, col int, dimension string) (int, error) {
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = t.Rows[r][textCol].Value
	}

	batchStart := time.Now()
	scores, err := sess.Score(ctx, texts)
	s.metrics.BatchDuration.WithLabelValues(dimension).Observe(time.Since(batchStart).Seconds())
	if err == nil && len(scores) != len(rows) {
		err = fmt.Errorf("%w: got %d scores for %d rows", inference.ErrShapeMismatch, len(scores), len(rows))
	}
	if err != nil {
		s.metrics.BatchesTotal.WithLabelValues(dimension, "error").Inc()
		return 0, err
	}

	for i, r := range rows {
		t.Rows[r][col] = tabular.Float(math.RoundToEven(scores[i]))
	}
	s.metrics.BatchesTotal.WithLabelValues(dimension, "ok").Inc()
	s.metrics.RowsScoredTotal.WithLabelValues(dimension).Add(float64(len(rows)))

	if s.cfg.ReleaseAfterBatch() {
		clear(texts)
		clear(scores)
		runtime.GC()
	}
	return len(rows), nil
}

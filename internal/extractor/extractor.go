package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/nguyentantai21042004/recall-scorer/internal/docx"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/internal/tabular"
)

// Run processes every transcript in the input directory, writes the
// narrative table and, when configured, the manifest of skipped files.
// Unreadable or marker-less documents are recorded and skipped; only a
// failure to list the directory or to write the outputs aborts the run.
func (e *implExtractor) Run(ctx context.Context) (*Manifest, error) {
	startTime := time.Now()
	logger.Banner(ctx, e.logger, "Transcript Extractor", "Input: "+e.cfg.InputDir)

	objects, err := e.listDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	e.logger.Info(ctx, "Found %d %s files", len(objects), e.cfg.Extension)

	manifest := &Manifest{}
	bar := progressbar.NewOptions(len(objects),
		progressbar.OptionSetDescription("Processing files"),
		progressbar.OptionSetWriter(e.progress),
	)

	for _, object := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := e.processObject(ctx, object)
		manifest.Items = append(manifest.Items, item)
		e.metrics.DocumentsTotal.WithLabelValues(string(item.Status)).Inc()

		if item.Status == StatusExtracted {
			e.logger.Debug(ctx, "[%s] extracted %d characters", item.File, len(item.Memory))
		} else {
			e.logger.Debug(ctx, "[%s] skipped: %s %s", item.File, item.Status, item.Reason)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := tabular.Write(e.cfg.OutputFile, manifest.Records()); err != nil {
		return nil, fmt.Errorf("write %s: %w", e.cfg.OutputFile, err)
	}

	if e.cfg.ManifestFile != "" {
		if err := tabular.Write(e.cfg.ManifestFile, manifest.Table()); err != nil {
			return nil, fmt.Errorf("write manifest %s: %w", e.cfg.ManifestFile, err)
		}
	}

	counts := manifest.Counts()
	e.logger.Info(ctx, "✅ Extracted %d of %d documents into %s", counts[StatusExtracted], len(manifest.Items), e.cfg.OutputFile)
	if skipped := len(manifest.Items) - counts[StatusExtracted]; skipped > 0 {
		e.logger.Warn(ctx, "Skipped %d documents (no marker: %d, empty: %d, unreadable: %d)",
			skipped, counts[StatusNoMarker], counts[StatusEmptyText], counts[StatusParseError]+counts[StatusReadError])
	}
	e.logger.Info(ctx, "Processing time: %s", time.Since(startTime))

	return manifest, nil
}

// processObject turns one listed file into a manifest item.
func (e *implExtractor) processObject(ctx context.Context, object storage.Object) Item {
	name := object.Name()
	item := Item{
		File:          name,
		ParticipantID: ParticipantID(name, e.cfg.Extension),
	}

	data, err := e.fs.Download(ctx, object)
	if err != nil {
		item.Status = StatusReadError
		item.Reason = err.Error()
		return item
	}

	paragraphs, err := docx.Paragraphs(data)
	if err != nil {
		item.Status = StatusParseError
		item.Reason = err.Error()
		return item
	}

	text, ok := Extract(paragraphs, e.cfg.Marker)
	switch {
	case !ok:
		item.Status = StatusNoMarker
		item.Reason = fmt.Sprintf("marker %q not found", e.cfg.Marker)
	case text == "":
		item.Status = StatusEmptyText
		item.Reason = "no text after marker"
	default:
		item.Status = StatusExtracted
		item.Memory = text
	}
	return item
}

// listDocuments returns the regular files in the input location whose
// name ends with the configured extension, sorted by name.
func (e *implExtractor) listDocuments(ctx context.Context) ([]storage.Object, error) {
	location := e.cfg.InputDir
	if url.Scheme(location, "") == "" {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", location, err)
		}
		location = url.ToFileURL(abs)
	}

	exists, err := e.fs.Exists(ctx, location)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, e.cfg.InputDir)
	}

	objects, err := e.fs.List(ctx, location)
	if err != nil {
		return nil, err
	}

	var docs []storage.Object
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if !strings.HasSuffix(object.Name(), e.cfg.Extension) {
			continue
		}
		docs = append(docs, object)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Name() < docs[j].Name()
	})
	return docs, nil
}

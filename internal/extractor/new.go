package extractor

import (
	"io"

	"github.com/viant/afs"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/internal/metrics"
)

type implExtractor struct {
	cfg      config.ExtractorConfig
	fs       afs.Service
	logger   logger.Logger
	metrics  *metrics.Metrics
	progress io.Writer
}

// New creates an Extractor. Progress bars are drawn on progress; nil disables them.
func New(cfg config.ExtractorConfig, log logger.Logger, m *metrics.Metrics, progress io.Writer) Extractor {
	if progress == nil {
		progress = io.Discard
	}
	if m == nil {
		m = metrics.New()
	}
	return &implExtractor{
		cfg:      cfg,
		fs:       afs.New(),
		logger:   log,
		metrics:  m,
		progress: progress,
	}
}

package scorer

import (
	"io"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/internal/metrics"
)

const defaultBatchSize = 8

type implScorer struct {
	cfg      config.ScorerConfig
	backend  inference.Backend
	device   string
	logger   logger.Logger
	metrics  *metrics.Metrics
	progress io.Writer
}

// New creates a Scorer. device is the already resolved compute device and
// is used for every dimension of the run.
func New(cfg config.ScorerConfig, backend inference.Backend, device string, log logger.Logger, m *metrics.Metrics, progress io.Writer) Scorer {
	if progress == nil {
		progress = io.Discard
	}
	if m == nil {
		m = metrics.New()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &implScorer{
		cfg:      cfg,
		backend:  backend,
		device:   device,
		logger:   log,
		metrics:  m,
		progress: progress,
	}
}

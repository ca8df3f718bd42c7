package repairer

import (
	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/internal/metrics"
	"github.com/nguyentantai21042004/recall-scorer/internal/textfix"
)

type implRepairer struct {
	cfg      config.RepairerConfig
	fixer    *textfix.Fixer
	prompter Prompter
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// New creates a Repairer. When cfg.AssumeYes is set the prompter is never asked.
func New(cfg config.RepairerConfig, prompter Prompter, log logger.Logger, m *metrics.Metrics) Repairer {
	if m == nil {
		m = metrics.New()
	}
	return &implRepairer{
		cfg:      cfg,
		fixer:    textfix.NewFixer(cfg.RemoveSubstrings),
		prompter: prompter,
		logger:   log,
		metrics:  m,
	}
}

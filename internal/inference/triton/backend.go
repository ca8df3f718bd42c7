package triton

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/hub"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
)

const tokenizerFile = "tokenizer.json"

// Fetcher resolves a hub file to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, repo, file string) (string, error)
}

type implBackend struct {
	cfg     config.TritonConfig
	client  *Client
	fetcher Fetcher
	load    TokenizerLoader
	logger  logger.Logger
}

// New creates a Triton backend. A nil loader uses LoadTokenizer.
func New(cfg config.TritonConfig, fetcher Fetcher, load TokenizerLoader, l logger.Logger) inference.Backend {
	if load == nil {
		load = LoadTokenizer
	}
	return &implBackend{
		cfg:     cfg,
		client:  NewClient(cfg),
		fetcher: fetcher,
		load:    load,
		logger:  l,
	}
}

// NewFromHub wires the backend to a hub client.
func NewFromHub(cfg config.TritonConfig, h *hub.Client, l logger.Logger) inference.Backend {
	return New(cfg, h, nil, l)
}

func (b *implBackend) Open(ctx context.Context, dim inference.Dimension) (inference.Session, error) {
	path, err := b.fetcher.Fetch(ctx, dim.ModelID, tokenizerFile)
	if err != nil {
		return nil, fmt.Errorf("fetch tokenizer for %s: %w", dim.ModelID, err)
	}
	tk, err := b.load(path)
	if err != nil {
		return nil, err
	}

	if err := b.client.Ready(ctx); err != nil {
		return nil, fmt.Errorf("triton not ready: %w", err)
	}

	managed := b.cfg.ManagesModels()
	if managed {
		b.logger.Info(ctx, "Loading model %s on %s", dim.Model, dim.Device)
		if err := b.client.LoadModel(ctx, dim.Model, dim.Device); err != nil {
			return nil, err
		}
	}

	return &session{
		cfg:     b.cfg,
		client:  b.client,
		model:   dim.Model,
		tk:      tk,
		managed: managed,
		logger:  b.logger,
	}, nil
}

type session struct {
	cfg     config.TritonConfig
	client  *Client
	model   string
	tk      Tokenizer
	managed bool
	closed  bool
	logger  logger.Logger
}

func (s *session) Score(ctx context.Context, texts []string) ([]float64, error) {
	if s.closed {
		return nil, fmt.Errorf("session for %s is closed", s.model)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	batch, err := Encode(s.tk, texts, s.cfg.PadID)
	if err != nil {
		return nil, err
	}
	shape := []int{batch.Rows, batch.Length}
	inputs := []Tensor{
		{Name: s.cfg.InputIDsName, Shape: shape, DataType: "INT64", Data: batch.InputIDs},
		{Name: s.cfg.AttentionMaskName, Shape: shape, DataType: "INT64", Data: batch.AttentionMask},
	}

	out, err := s.client.Infer(ctx, s.model, inputs, s.cfg.OutputName)
	if err != nil {
		return nil, err
	}
	return regressionScores(out, len(texts))
}

// regressionScores reads a [B] or [B, 1] output as one value per row.
func regressionScores(out *Output, rows int) ([]float64, error) {
	perRow := 1
	switch {
	case len(out.Shape) == 1 && out.Shape[0] == rows:
	case len(out.Shape) == 2 && out.Shape[0] == rows:
		perRow = out.Shape[1]
	default:
		return nil, fmt.Errorf("%w: shape %v for %d rows", inference.ErrShapeMismatch, out.Shape, rows)
	}
	if perRow != 1 || len(out.Data) != rows {
		return nil, fmt.Errorf("%w: shape %v with %d values for %d rows", inference.ErrShapeMismatch, out.Shape, len(out.Data), rows)
	}

	scores := make([]float64, rows)
	copy(scores, out.Data)
	return scores, nil
}

func (s *session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.tk = nil
	if !s.managed {
		return nil
	}
	s.logger.Info(ctx, "Unloading model %s", s.model)
	return s.client.UnloadModel(ctx, s.model)
}

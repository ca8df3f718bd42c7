package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the batch counters of every stage on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal       *prometheus.CounterVec
	CellsFixedTotal      *prometheus.CounterVec
	RowsDroppedTotal     prometheus.Counter
	RowsScoredTotal      *prometheus.CounterVec
	BatchesTotal         *prometheus.CounterVec
	BatchDuration        *prometheus.HistogramVec
	ModelLoadsTotal      *prometheus.CounterVec
	LastSuccessTimestamp *prometheus.GaugeVec
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_documents_total",
				Help: "Transcript documents seen by the extractor, by outcome",
			},
			[]string{"status"},
		),
		CellsFixedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_cells_fixed_total",
				Help: "Cells changed by the encoding repairer, by column",
			},
			[]string{"column"},
		),
		RowsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recall_rows_dropped_total",
				Help: "Rows removed before scoring because a required value was missing",
			},
		),
		RowsScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_rows_scored_total",
				Help: "Rows scored, by dimension",
			},
			[]string{"dimension"},
		),
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_batches_total",
				Help: "Inference batches submitted, by dimension and status",
			},
			[]string{"dimension", "status"},
		),
		BatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recall_batch_duration_seconds",
				Help:    "Time taken to score one batch",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"dimension"},
		),
		ModelLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_model_loads_total",
				Help: "Inference sessions opened, by dimension",
			},
			[]string{"dimension"},
		),
		LastSuccessTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "recall_last_success_timestamp_seconds",
				Help: "Unix time of the last successful stage run",
			},
			[]string{"stage"},
		),
	}

	m.registry.MustRegister(
		m.DocumentsTotal,
		m.CellsFixedTotal,
		m.RowsDroppedTotal,
		m.RowsScoredTotal,
		m.BatchesTotal,
		m.BatchDuration,
		m.ModelLoadsTotal,
		m.LastSuccessTimestamp,
	)

	return m
}

// Registry exposes the underlying gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MarkSuccess records the completion time of a stage.
func (m *Metrics) MarkSuccess(stage string) {
	m.LastSuccessTimestamp.WithLabelValues(stage).SetToCurrentTime()
}

// WriteTextfile writes all metrics in the text exposition format for the
// node_exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes a run's report as Prometheus gauges, written to a
// node_exporter textfile after each successful run.
type Recorder struct {
	registry *prometheus.Registry

	SourceRows       *prometheus.GaugeVec
	SourceRowsValid  *prometheus.GaugeVec
	QualityMetric    *prometheus.GaugeVec
	ParseFailures    *prometheus.GaugeVec
	GroupsByMatch    *prometheus.GaugeVec
	DimBookRows      prometheus.Gauge
	DetailRows       prometheus.Gauge
	CollapsedRows    prometheus.Gauge
	RunDuration      prometheus.Gauge
	LastSuccessEpoch prometheus.Gauge
}

// NewRecorder registers the reconciler gauges on a private registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		SourceRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_source_rows",
				Help: "Rows ingested per source",
			},
			[]string{"source"},
		),
		SourceRowsValid: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_source_rows_valid",
				Help: "Rows passing q_record_valid per source",
			},
			[]string{"source"},
		),
		QualityMetric: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_quality_metric_ratio",
				Help: "Named quality metrics per source",
			},
			[]string{"source", "metric"},
		),
		ParseFailures: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_parse_failures",
				Help: "Present cells that failed to normalize, per source and field",
			},
			[]string{"source", "field"},
		),
		GroupsByMatch: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_identity_groups",
				Help: "Identity groups by how their records were paired",
			},
			[]string{"matched_by"},
		),
		DimBookRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reconciler_dim_book_rows",
			Help: "Rows in dim_book",
		}),
		DetailRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reconciler_book_source_detail_rows",
			Help: "Rows in book_source_detail",
		}),
		CollapsedRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reconciler_collapsed_rows",
			Help: "Merged rows dropped because they shared a book_id",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reconciler_run_duration_seconds",
			Help: "Wall time of the last successful run",
		}),
		LastSuccessEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reconciler_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}),
	}
}

// Observe copies a run report into the gauges
func (r *Recorder) Observe(m *Metadata) {
	for name, stats := range m.Sources {
		r.SourceRows.WithLabelValues(name).Set(float64(stats.Rows))
	}
	for name, q := range m.Quality {
		r.SourceRowsValid.WithLabelValues(name).Set(float64(q.RowsValid))
		for metric, v := range q.Metrics {
			r.QualityMetric.WithLabelValues(name, metric).Set(v)
		}
	}
	for name, failures := range m.ParseFailures {
		for field, n := range failures {
			r.ParseFailures.WithLabelValues(name, field).Set(float64(n))
		}
	}

	if in := m.Integration; in != nil {
		r.GroupsByMatch.WithLabelValues("isbn13").Set(float64(in.MatchedByISBN13))
		r.GroupsByMatch.WithLabelValues("title_author").Set(float64(in.MatchedByTitleAuthor))
		r.GroupsByMatch.WithLabelValues("none").Set(float64(in.PrimaryOnly + in.SecondaryOnly))
		r.DimBookRows.Set(float64(in.DimBookRows))
		r.DetailRows.Set(float64(in.BookSourceDetailRows))
		r.CollapsedRows.Set(float64(in.CollapsedRows))
	}

	if !m.FinishedAt.IsZero() {
		r.RunDuration.Set(m.FinishedAt.Sub(m.StartedAt).Seconds())
		r.LastSuccessEpoch.Set(float64(m.FinishedAt.Unix()))
	}
}

// WriteTextfile writes the gauges in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write prometheus textfile: %w", err)
	}
	return nil
}

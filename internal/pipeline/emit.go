package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/dataset"
)

// Artifacts are the paths written by Emit
type Artifacts struct {
	DimBook  string
	Detail   string
	Metrics  string
	Schema   string
	PromFile string
}

// MetricsFileName is the report file name for a metrics format
func MetricsFileName(format string) string {
	if format == "yaml" {
		return "quality_metrics.yaml"
	}
	return "quality_metrics.json"
}

// Emit writes the output tables, the run report and schema.md under out.Dir,
// plus the Prometheus textfile when one is configured.
func Emit(res *Result, out config.OutputConfig, rec *Recorder) (*Artifacts, error) {
	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	a := &Artifacts{
		DimBook: filepath.Join(out.Dir, DimBookTable+".parquet"),
		Detail:  filepath.Join(out.Dir, DetailTable+".parquet"),
		Metrics: filepath.Join(out.Dir, MetricsFileName(out.MetricsFormat)),
		Schema:  filepath.Join(out.Dir, "schema.md"),
	}

	if err := dataset.WriteParquet(a.DimBook, res.Books); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", DimBookTable, err)
	}
	if err := dataset.WriteParquet(a.Detail, res.Details); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", DetailTable, err)
	}
	if err := res.Metadata.Save(a.Metrics, out.MetricsFormat); err != nil {
		return nil, err
	}
	if err := SaveSchema(a.Schema); err != nil {
		return nil, err
	}

	if out.PromFile != "" {
		if rec == nil {
			rec = NewRecorder()
		}
		rec.Observe(res.Metadata)
		if err := rec.WriteTextfile(out.PromFile); err != nil {
			return nil, err
		}
		a.PromFile = out.PromFile
	}

	slog.Info("Wrote artifacts",
		"dir", out.Dir,
		"dim_book", a.DimBook,
		"detail", a.Detail,
		"metrics", a.Metrics)

	return a, nil
}

package reconcilecmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/pipeline"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/quality"
)

// NewRunCmd creates the run command: the full reconciliation pipeline
func NewRunCmd() *cobra.Command {
	var flags sourceFlags
	var outputDir string
	var metricsFormat string
	var promFile string
	var collapse string
	var duplicateKey string
	var noFallback bool
	var dropUnmatched bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile both sources into dim_book and book_source_detail",
		Long: `Run the reconciliation pipeline.

Both source tables are ingested and validated, the quality gates are checked,
records are normalized, matched by ISBN-13 (then title and first author), merged
field by field and written as Parquet tables together with a quality report and
schema.md. Nothing is written when a required column is missing or a quality
gate fails.`,
		Example: `  # Reconcile with the default configuration
  reconciler run --primary landing/goodreads_books.json --secondary landing/googlebooks_books.csv

  # YAML report, most complete row per book, Prometheus textfile
  reconciler run --config reconciler.yaml --metrics-format yaml --collapse most-complete \
    --prom-file /var/lib/node_exporter/reconciler.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("output") {
				cfg.Output.Dir = outputDir
			}
			if cmd.Flags().Changed("metrics-format") {
				cfg.Output.MetricsFormat = metricsFormat
			}
			if cmd.Flags().Changed("prom-file") {
				cfg.Output.PromFile = promFile
			}
			if cmd.Flags().Changed("collapse") {
				cfg.Merge.Collapse = collapse
			}
			if cmd.Flags().Changed("duplicate-key") {
				cfg.Identity.DuplicateKey = duplicateKey
			}
			if noFallback {
				cfg.Identity.TitleAuthorFallback = false
			}
			if dropUnmatched {
				cfg.Identity.KeepUnmatchedSecondary = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := requirePaths(cfg, cfg.Sources.Primary, cfg.Sources.Secondary); err != nil {
				return err
			}

			return executeRun(cmd, cfg, flags.sample)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default from config: output)")
	cmd.Flags().StringVar(&metricsFormat, "metrics-format", "", "Quality report format: json or yaml")
	cmd.Flags().StringVar(&promFile, "prom-file", "", "Write Prometheus gauges to this textfile")
	cmd.Flags().StringVar(&collapse, "collapse", "", "Rows sharing a book_id: keep-first or most-complete")
	cmd.Flags().StringVar(&duplicateKey, "duplicate-key", "", "Duplicate secondary keys: first or last")
	cmd.Flags().BoolVar(&noFallback, "no-title-author", false, "Match on ISBN-13 only")
	cmd.Flags().BoolVar(&dropUnmatched, "drop-unmatched-secondary", false, "Do not emit secondary records that matched nothing")

	return cmd
}

func executeRun(cmd *cobra.Command, cfg *config.Config, sample int) error {
	slog.Info("Starting reconciliation",
		"primary", cfg.Sources.Primary.Path,
		"secondary", cfg.Sources.Secondary.Path,
		"output", cfg.Output.Dir)

	p := pipeline.New(cfg, pipeline.WithSampleLimit(sample))
	res, runErr := p.Run(cmd.Context())

	out := cmd.OutOrStdout()
	if res != nil && len(res.Metadata.Quality) > 0 {
		if err := printQuality(out, res.Metadata); err != nil {
			slog.Warn("Failed to print quality summary", "error", err)
		}
	}
	if runErr != nil {
		return explain(runErr)
	}

	artifacts, err := pipeline.Emit(res, cfg.Output, nil)
	if err != nil {
		return err
	}

	in := res.Metadata.Integration
	fmt.Fprintf(out, "\nReconciliation complete (run %s)\n", res.Metadata.RunID)
	fmt.Fprintf(out, "  dim_book rows: %d\n", in.DimBookRows)
	fmt.Fprintf(out, "  book_source_detail rows: %d\n", in.BookSourceDetailRows)
	fmt.Fprintf(out, "  Matched by isbn13: %d\n", in.MatchedByISBN13)
	fmt.Fprintf(out, "  Matched by title/author: %d\n", in.MatchedByTitleAuthor)
	fmt.Fprintf(out, "  Unmatched (primary/secondary): %d/%d\n", in.PrimaryOnly, in.SecondaryOnly)
	fmt.Fprintf(out, "  Collapsed rows: %d\n", in.CollapsedRows)
	fmt.Fprintf(out, "\nArtifacts:\n  %s\n  %s\n  %s\n  %s\n", artifacts.DimBook, artifacts.Detail, artifacts.Metrics, artifacts.Schema)
	if artifacts.PromFile != "" {
		fmt.Fprintf(out, "  %s\n", artifacts.PromFile)
	}
	return nil
}

func printQuality(w io.Writer, meta *pipeline.Metadata) error {
	metrics := make([]*quality.SourceMetrics, 0, len(meta.Quality))
	for _, name := range meta.SourceNames() {
		if m, ok := meta.Quality[name]; ok {
			metrics = append(metrics, m)
		}
	}
	return quality.PrintSummary(w, metrics...)
}

// explain marks the fatal pipeline errors, which abort before any output
func explain(err error) error {
	var schemaErr *quality.SchemaError
	var gateErr *quality.QualityGateError
	if errors.As(err, &schemaErr) || errors.As(err, &gateErr) {
		return fmt.Errorf("%w (no artifacts written)", err)
	}
	return err
}

// NewValidateCmd creates the validate command: ingest, flag and gate only
func NewValidateCmd() *cobra.Command {
	var flags sourceFlags
	var reportPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check both sources against the quality rules and gates",
		Long: `Ingest and validate both sources without merging anything.

Prints per-source pass rates, named metrics and null ratios and exits non-zero
when a required column is missing or a quality gate fails.`,
		Example: `  reconciler validate --primary landing/goodreads_books.json --secondary landing/googlebooks_books.csv
  reconciler validate --report quality.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if err := requirePaths(cfg, cfg.Sources.Primary, cfg.Sources.Secondary); err != nil {
				return err
			}

			p := pipeline.New(cfg, pipeline.WithSampleLimit(flags.sample))
			meta, checkErr := p.Check(cmd.Context())
			if len(meta.Quality) > 0 {
				if err := printQuality(cmd.OutOrStdout(), meta); err != nil {
					slog.Warn("Failed to print quality summary", "error", err)
				}
			}
			if reportPath != "" {
				format := "json"
				if ext := extension(reportPath); ext == ".yaml" || ext == ".yml" {
					format = "yaml"
				}
				if err := meta.Save(reportPath, format); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nReport saved to: %s\n", reportPath)
			}
			if checkErr != nil {
				return explain(checkErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nAll quality gates passed.")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&reportPath, "report", "", "Also save the quality report (.json or .yaml)")
	return cmd
}

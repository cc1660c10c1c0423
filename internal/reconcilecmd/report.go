package reconcilecmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/pipeline"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <quality_metrics file>",
		Short: "Print a saved run report",
		Long: `Print the quality report written by a previous run or validate --report.

The file is read as YAML when it ends in .yaml or .yml and as JSON otherwise.`,
		Example: `  reconciler report output/quality_metrics.json
  reconciler report output/quality_metrics.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := pipeline.LoadMetadata(args[0])
			if err != nil {
				return err
			}
			return executeReport(cmd.OutOrStdout(), meta, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

func executeReport(w io.Writer, meta *pipeline.Metadata, format string) error {
	switch format {
	case "text":
		return printTextReport(w, meta)
	case "json":
		return meta.WriteJSON(w)
	case "yaml":
		return meta.WriteYAML(w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, meta *pipeline.Metadata) error {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "Catalog Reconciliation Report")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Run:      %s\n", meta.RunID)
	fmt.Fprintf(w, "Started:  %s\n", meta.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !meta.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Duration: %s\n", meta.FinishedAt.Sub(meta.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintln(w)

	table := tablewriter.NewTable(w)
	table.Header("Source", "File", "Rows", "Columns", "Bytes")
	for _, name := range meta.SourceNames() {
		s := meta.Sources[name]
		if err := table.Append(name, s.File, fmt.Sprint(s.Rows), fmt.Sprint(s.NumColumns), fmt.Sprint(s.FileSizeBytes)); err != nil {
			return fmt.Errorf("failed to append source row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render source table: %w", err)
	}

	if err := printQuality(w, meta); err != nil {
		return err
	}

	if failures := parseFailureRows(meta.ParseFailures); len(failures) > 0 {
		fmt.Fprintln(w, "\nParse failures:")
		pf := tablewriter.NewTable(w)
		pf.Header("Source", "Field", "Count")
		for _, row := range failures {
			if err := pf.Append(row...); err != nil {
				return fmt.Errorf("failed to append parse failure row: %w", err)
			}
		}
		if err := pf.Render(); err != nil {
			return fmt.Errorf("failed to render parse failures: %w", err)
		}
	}

	in := meta.Integration
	if in == nil {
		fmt.Fprintln(w, "\nNo integration results (validation only or aborted run).")
		return nil
	}
	fmt.Fprintln(w, "\nIntegration:")
	fmt.Fprintf(w, "  dim_book rows:            %d\n", in.DimBookRows)
	fmt.Fprintf(w, "  book_source_detail rows:  %d\n", in.BookSourceDetailRows)
	fmt.Fprintf(w, "  Distinct book ids:        %d\n", in.DistinctBookIDs)
	fmt.Fprintf(w, "  Shared book ids:          %d\n", in.DuplicatesGroups)
	fmt.Fprintf(w, "  Matched by isbn13:        %d\n", in.MatchedByISBN13)
	fmt.Fprintf(w, "  Matched by title/author:  %d\n", in.MatchedByTitleAuthor)
	fmt.Fprintf(w, "  Primary only:             %d\n", in.PrimaryOnly)
	fmt.Fprintf(w, "  Secondary only:           %d\n", in.SecondaryOnly)
	fmt.Fprintf(w, "  Collapsed rows:           %d\n", in.CollapsedRows)
	return nil
}

func parseFailureRows(failures map[string]map[string]int) [][]any {
	var rows [][]any
	for source, fields := range failures {
		for field, n := range fields {
			if n > 0 {
				rows = append(rows, []any{source, field, n})
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		si, sj := rows[i][0].(string), rows[j][0].(string)
		if si != sj {
			return si < sj
		}
		return rows[i][1].(string) < rows[j][1].(string)
	})
	return rows
}

package reconcilecmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/dataset"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/quality"
)

const previewChars = 120

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var rules string
	var limit int
	var interactive bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect raw source rows and their quality flags",
		Long: `Inspect records from a .jsonl, .json, .csv or .parquet source table.

Each column is shown with the shape its value had at ingestion (scalar, sequence,
mapping or malformed serialized text), which helps when a normalizer rejects a
field. With --rules the row's quality flags are printed too.`,
		Example: `  # First 5 rows of the scraped catalog with its quality flags
  reconciler inspect --dataset landing/goodreads_books.json --rules primary --limit 5

  # Step through the API table one row at a time
  reconciler inspect --dataset landing/googlebooks_books.csv --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}
			setupLogging(verbose)

			sources := config.Default().Sources
			var rs *quality.RuleSet
			switch rules {
			case "":
			case "primary":
				set := quality.PrimaryRuleSet(sources.Primary.Name, sources.Primary.FlagPrefix)
				rs = &set
			case "secondary":
				set := quality.SecondaryRuleSet(sources.Secondary.Name, sources.Secondary.FlagPrefix)
				rs = &set
			default:
				return fmt.Errorf("unknown rule set %q (use primary or secondary)", rules)
			}

			return executeInspect(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), datasetPath, rs, limit, interactive)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a source table (required)")
	cmd.Flags().StringVar(&rules, "rules", "", "Also evaluate quality flags: primary or secondary")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func executeInspect(ctx context.Context, out io.Writer, in io.Reader, datasetPath string, rs *quality.RuleSet, limit int, interactive bool) error {
	source := "inspect"
	if rs != nil {
		source = rs.Source
	}
	loader := dataset.NewLoader(datasetPath, source)

	var table *models.Table
	var err error
	if limit > 0 {
		table, err = loader.LoadSample(limit)
	} else {
		table, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	var flagged *quality.FlaggedTable
	if rs != nil {
		flagged, _, err = quality.Validate(table, *rs)
		if err != nil {
			// still useful to see the rows; report the schema problem first
			fmt.Fprintf(out, "Warning: %v\n", err)
		}
	}

	fmt.Fprintf(out, "Loaded %d records from %s\n", len(table.Rows), datasetPath)
	fmt.Fprintf(out, "Columns (%d): %s\n", len(table.Columns), strings.Join(table.Columns, ", "))
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)

	for i, row := range table.Rows {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(out, "RECORD %d/%d\n", i+1, len(table.Rows))
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, col := range table.Columns {
			c := row.Get(col)
			fmt.Fprintf(out, "%-24s %-10s %s\n", col, c.Kind, preview(c))
		}

		if flagged != nil {
			fmt.Fprintln(out)
			flags := flagged.Flags[i]
			names := make([]string, 0, len(flags))
			for name := range flags {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%-32s %t\n", name, flags[name])
			}
		}
		fmt.Fprintln(out)

		if interactive {
			fmt.Fprint(out, "Press Enter to continue to next record (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Fprintln(out, "\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Fprintln(out)
			}
		}
	}

	return nil
}

// preview renders a cell on one line, truncated
func preview(c models.Cell) string {
	var s string
	switch c.Kind {
	case models.CellAbsent:
		return "<null>"
	case models.CellSequence:
		parts := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			parts = append(parts, preview(item))
		}
		s = "[" + strings.Join(parts, ", ") + "]"
	case models.CellMapping:
		keys := make([]string, 0, len(c.Fields))
		for k := range c.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+preview(c.Fields[k]))
		}
		s = "{" + strings.Join(parts, ", ") + "}"
	default:
		s = strings.Join(strings.Fields(c.Text), " ")
	}

	if r := []rune(s); len(r) > previewChars {
		return string(r[:previewChars]) + "..."
	}
	return s
}

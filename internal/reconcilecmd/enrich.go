package reconcilecmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/dataset"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/enrich"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/pipeline"
)

// NewEnrichCmd creates the enrich command, which builds the secondary source
// by looking every primary record up in Google Books
func NewEnrichCmd() *cobra.Command {
	var flags sourceFlags
	var outputPath string
	var limit int
	var endpoint string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Build the secondary table from the Google Books API",
		Long: `Query Google Books for each record of the primary source and write the first
hit as one JSON line per book.

Records with an ISBN-13 are searched with isbn:<isbn13>, the others with
intitle:<title>+inauthor:<first author>. Requests are rate limited and wrapped in a
circuit breaker; failed lookups are logged and skipped. The API key is read from
GOOGLE_BOOKS_API_KEY or enrich.api_key.`,
		Example: `  # Enrich the scraped catalog
  reconciler enrich --primary landing/goodreads_books.json --output landing/googlebooks_books.jsonl

  # Only the first 20 records, verbose
  reconciler enrich --primary landing/goodreads_books.json --limit 20 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.Enrich.Limit = limit
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.Enrich.Endpoint = endpoint
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := requirePaths(cfg, cfg.Sources.Primary); err != nil {
				return err
			}

			ctx := cmd.Context()
			records, err := pipeline.New(cfg, pipeline.WithSampleLimit(flags.sample)).PrimaryRecords(ctx)
			if err != nil {
				return err
			}
			slog.Info("Loaded primary records", "source", cfg.Sources.Primary.Name, "records", len(records))

			client, err := enrich.NewClient(ctx, cfg.Enrich)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(outputPath); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			w, err := dataset.CreateJSONL(outputPath)
			if err != nil {
				return err
			}

			stats, enrichErr := client.Enrich(ctx, records, w, cfg.Enrich.Limit)
			if err := w.Close(); err != nil {
				return err
			}
			stats.PrintSummary(cmd.OutOrStdout(), outputPath)
			return enrichErr
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&outputPath, "output", "landing/googlebooks_books.jsonl", "Output JSONL file for the secondary source")
	cmd.Flags().IntVar(&limit, "limit", 0, "Look up at most this many records (0 for all)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Override the Google Books API endpoint")

	return cmd
}

package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/reconcilecmd"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Book metadata reconciliation between a scraped catalog and Google Books",
		Long: `Reconciler merges book records from a scraped catalog and the Google Books API
into one canonical table per book.

Both sources are validated against per-source quality rules and gates, normalized,
matched by ISBN-13 or title and first author, and merged field by field with
provenance kept for every value.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(reconcilecmd.NewRunCmd())
	cmd.AddCommand(reconcilecmd.NewValidateCmd())
	cmd.AddCommand(reconcilecmd.NewEnrichCmd())
	cmd.AddCommand(reconcilecmd.NewInspectCmd())
	cmd.AddCommand(reconcilecmd.NewReportCmd())
	cmd.AddCommand(reconcilecmd.NewSchemaCmd())

	return cmd
}

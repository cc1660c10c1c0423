package reconcilecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/pipeline"
)

// NewSchemaCmd creates the schema command
func NewSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema of the output tables as Markdown",
		Long: `Print the column layout of dim_book and book_source_detail.

This is the same document the run command writes as schema.md.`,
		Example: `  reconciler schema
  reconciler schema --output docs/schema.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return pipeline.WriteSchema(cmd.OutOrStdout())
			}
			if err := pipeline.SaveSchema(outputPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema saved to: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputPath, "output", "", "Write to this file instead of stdout")
	return cmd
}

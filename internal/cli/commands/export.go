package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/export"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format string
	Out    string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the model as a YAML or JSON manifest",
		Long: `Scan the model directory and write the complete extracted model as a
manifest: namespace, context sets, tables with fields, and relationships.

The manifest goes to stdout unless -o names a file.`,
		Example: `  # Export as YAML to stdout
  efscan export

  # Export as JSON
  efscan export --format json

  # Write the manifest to a file
  efscan export --format yaml -o model.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "yaml", "Manifest format: yaml or json")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write the manifest to this file instead of stdout")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{})
	if err != nil {
		return err
	}

	manifest := export.FromModel(result.Model)

	if opts.Out == "" {
		return manifest.Write(cmd.OutOrStdout(), opts.Format)
	}

	f, err := os.Create(opts.Out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.Out, err)
	}
	defer func() { _ = f.Close() }()

	if err := manifest.Write(f, opts.Format); err != nil {
		return err
	}

	cmdCtx.Renderer.Success(fmt.Sprintf("Wrote %s (%d tables, %d relationships)",
		opts.Out, len(manifest.Tables), len(manifest.Relationships)))
	return nil
}

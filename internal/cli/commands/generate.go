package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/gen"
	"github.com/spf13/cobra"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Package string
	OutDir  string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Go structs from the model",
		Long: `Scan the model directory and generate one Go source file of plain
structs mirroring the record types.

Scalar fields map to Go types, nullable fields to pointers, and collection
properties to slices. The file goes to stdout unless -o names a directory,
in which case it is written as <package>_gen.go.`,
		Example: `  # Print generated structs to stdout
  efscan generate

  # Write models_gen.go into ./models
  efscan generate --package models -o ./models

  # Generate under a different package name
  efscan generate --package entities -o ./internal/entities`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Package, "package", "", `Package name for the generated file (default "models")`)
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "Directory to write the generated file into")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	// Flags win over the config's generate section.
	pkg := opts.Package
	outDir := opts.OutDir
	if cmdCtx.Cfg.Generate != nil {
		genCfg := cmdCtx.Cfg.GetGenerateConfig()
		if pkg == "" {
			pkg = genCfg.Package
		}
		if outDir == "" {
			outDir = genCfg.OutDir
		}
	}
	if pkg == "" {
		pkg = "models"
	}

	result, err := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{})
	if err != nil {
		return err
	}

	src, err := gen.Source(result.Model, gen.Options{Package: pkg})
	if err != nil {
		return err
	}

	if outDir == "" {
		// Same raw-payload rule as ddl: auto mode stays pipeable.
		if output.Mode(cmdCtx.Cfg.OutputFormat) == output.ModeMarkdown {
			r.Println(output.FormatCodeBlock("go", string(src)))
			return nil
		}
		r.Printf("%s", src)
		return nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	path := filepath.Join(outDir, pkg+"_gen.go")
	if err := os.WriteFile(path, src, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.Success(fmt.Sprintf("Wrote %s (%d structs)", path, len(result.Model.Objects)))
	return nil
}

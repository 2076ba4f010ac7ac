package commands

import (
	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/ddl"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/spf13/cobra"
)

// DDLOptions holds options for the ddl command.
type DDLOptions struct {
	Dialect string
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand() *cobra.Command {
	opts := &DDLOptions{}

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Emit CREATE TABLE statements for the model",
		Long: `Scan the model directory and emit one CREATE TABLE statement per table.

Tables come out in creation order: every table appears after the tables it
holds foreign keys into, so the script replays cleanly against an empty
schema. Reserved-word table names are quoted.`,
		Example: `  # Postgres DDL to stdout
  efscan ddl

  # DuckDB type vocabulary
  efscan ddl --dialect duckdb

  # Pipe straight into psql
  efscan ddl | psql "$DATABASE_URL"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDDL(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "postgres", "SQL dialect: postgres or duckdb")

	_ = cmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// ddlJSON is the JSON shape of the generated script.
type ddlJSON struct {
	Dialect    string   `json:"dialect"`
	Statements []string `json:"statements"`
}

func runDDL(cmd *cobra.Command, opts *DDLOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	result, err := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{})
	if err != nil {
		return err
	}

	// SQL is the payload here. Auto mode stays raw even when piped, so the
	// script can go straight into psql; only an explicit --output wraps it.
	switch output.Mode(cmdCtx.Cfg.OutputFormat) {
	case output.ModeJSON:
		stmts, err := ddl.Statements(result.Model, ddl.Options{Dialect: opts.Dialect})
		if err != nil {
			return err
		}
		return r.JSON(ddlJSON{Dialect: opts.Dialect, Statements: stmts})
	case output.ModeMarkdown:
		script, err := ddl.Generate(result.Model, ddl.Options{Dialect: opts.Dialect})
		if err != nil {
			return err
		}
		r.Println(output.FormatCodeBlock("sql", script))
		return nil
	default:
		script, err := ddl.Generate(result.Model, ddl.Options{Dialect: opts.Dialect})
		if err != nil {
			return err
		}
		r.Printf("%s", script)
		return nil
	}
}

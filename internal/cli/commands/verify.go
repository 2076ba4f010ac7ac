package commands

import (
	"fmt"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/drift"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/spf13/cobra"
)

// VerifyOptions holds options for the verify command.
type VerifyOptions struct {
	Target string
	DSN    string
	Schema string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	opts := &VerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a live database against the model",
		Long: `Scan the model directory, connect to a live database, and report where
the schema has drifted from the model: missing tables, missing or extra
columns, nullability mismatches, and primary-key mismatches.

Connection settings come from flags or from the drift section of
efscan.yaml, where the DSN may reference environment variables as ${VAR}.
The command exits non-zero when any drift is found.`,
		Example: `  # Verify against Postgres
  efscan verify --target postgres --dsn "$DATABASE_URL"

  # Verify a DuckDB file
  efscan verify --target duckdb --dsn ./warehouse.db

  # Check a non-default schema
  efscan verify --target postgres --dsn "$DATABASE_URL" --schema inventory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "Database to verify: postgres or duckdb")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Connection string for the target database")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "Schema to inspect (default: public, or main for duckdb)")

	_ = cmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runVerify(cmd *cobra.Command, opts *VerifyOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	// Flags win over the config's drift section.
	target, dsn, schema := opts.Target, opts.DSN, opts.Schema
	if cmdCtx.Cfg.Drift != nil {
		if target == "" {
			target = cmdCtx.Cfg.Drift.Driver
		}
		if dsn == "" {
			dsn = cmdCtx.Cfg.Drift.DSN
		}
		if schema == "" {
			schema = cmdCtx.Cfg.Drift.Schema
		}
	}
	if target == "" {
		return fmt.Errorf("no target database (use --target or the drift section of efscan.yaml)")
	}
	if dsn == "" {
		return fmt.Errorf("no DSN configured (use --dsn or the drift section of efscan.yaml)")
	}

	result, err := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{})
	if err != nil {
		return err
	}

	checker, err := drift.Open(cmd.Context(), drift.Config{
		Driver: target,
		DSN:    dsn,
		Schema: schema,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = checker.Close() }()

	report, err := checker.Check(cmd.Context(), result.Model)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(report); err != nil {
			return err
		}
	case output.ModeMarkdown:
		verifyMarkdown(r, report)
	default:
		verifyText(r, report)
	}

	if !report.Clean() {
		return fmt.Errorf("schema drift detected: %d findings", len(report.Findings))
	}
	return nil
}

// verifyText outputs the drift report in styled text format.
func verifyText(r *output.Renderer, report *drift.Report) {
	r.Header(1, fmt.Sprintf("Drift Check (%s, schema %s)", report.Driver, report.Schema))
	r.Println()

	if report.Clean() {
		r.Success(fmt.Sprintf("No drift detected (%d tables checked)", report.TablesChecked))
		return
	}

	for _, f := range report.Findings {
		name := f.Table
		if f.Column != "" {
			name += "." + f.Column
		}
		r.StatusLine(name, "failed", f.Message)
	}
	r.Println()
	r.Error(fmt.Sprintf("%d findings across %d checked tables", len(report.Findings), report.TablesChecked))
}

// verifyMarkdown outputs the drift report in markdown format.
func verifyMarkdown(r *output.Renderer, report *drift.Report) {
	r.Println(output.FormatHeader(1, "Drift Check"))
	r.Println("")
	r.Println(output.FormatKeyValue("Driver", report.Driver))
	r.Println(output.FormatKeyValue("Schema", report.Schema))
	r.Println(output.FormatKeyValue("Tables checked", fmt.Sprintf("%d", report.TablesChecked)))
	r.Println("")

	if report.Clean() {
		r.Println("No drift detected.")
		return
	}

	r.Println(output.FormatHeader(2, "Findings"))
	for _, f := range report.Findings {
		r.Printf("- **%s** %s\n", f.Kind, f.Message)
	}
}

package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/rules"
	"github.com/leapstack-labs/efscan/pkg/validate"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the scanned model",
		Long: `Scan the model directory and report the outcome of every validation
step.

Validation is fail-fast: the first failing step aborts the scan, so steps
after it report as skipped. The command exits non-zero when any step fails.`,
		Example: `  # Validate the configured directory
  efscan validate

  # Validation report as JSON (for CI)
  efscan validate --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	// The same step list the engine runs, so the report can name every
	// step even when an early one aborts the scan.
	steps, err := buildSteps(cmdCtx.Cfg)
	if err != nil {
		return err
	}

	_, scanErr := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{})

	out, ok := buildValidateOutput(steps, scanErr)
	if !ok {
		// Not a validation failure: extraction or resolution broke before
		// any step could run.
		return scanErr
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		validateMarkdown(r, out)
	default:
		validateText(r, out)
	}

	if !out.Valid {
		return fmt.Errorf("validation failed")
	}
	return nil
}

// buildValidateOutput maps the scan outcome onto the step list. Returns
// ok=false when the error is not a validation failure.
func buildValidateOutput(steps []validate.Step, scanErr error) (output.ValidateOutput, bool) {
	out := output.ValidateOutput{Valid: scanErr == nil}

	if scanErr == nil {
		for _, s := range steps {
			out.Checks = append(out.Checks, output.CheckResult{RuleID: s.ID, Name: s.Name, Status: "passed"})
		}
		return out, true
	}

	failedID, table, ok := diagnosticFor(scanErr)
	if !ok {
		return output.ValidateOutput{}, false
	}

	status := "passed"
	for _, s := range steps {
		if s.ID == failedID {
			out.Checks = append(out.Checks, output.CheckResult{RuleID: s.ID, Name: s.Name, Status: "failed"})
			status = "skipped"
			continue
		}
		out.Checks = append(out.Checks, output.CheckResult{RuleID: s.ID, Name: s.Name, Status: status})
	}
	out.Error = &output.Diagnostic{RuleID: failedID, Table: table, Message: scanErr.Error()}

	return out, true
}

// diagnosticFor maps a validation error to the step that raised it.
func diagnosticFor(err error) (id, table string, ok bool) {
	var dbset *validate.MissingDbSetError
	if errors.As(err, &dbset) {
		return validate.DbSetCoverageID, dbset.ClassName, true
	}
	var key *validate.MissingPrimaryKeyError
	if errors.As(err, &key) {
		return validate.KeyPresenceID, key.ClassName, true
	}
	var naming *validate.SetNamingError
	if errors.As(err, &naming) {
		return validate.SetNamingID, naming.Set.TypeName, true
	}
	var rule *rules.RuleError
	if errors.As(err, &rule) {
		return rule.RuleID, "", true
	}
	return "", "", false
}

// validateText outputs the report in styled text format.
func validateText(r *output.Renderer, out output.ValidateOutput) {
	r.Header(1, "Validation")

	for _, c := range out.Checks {
		r.StatusLine(fmt.Sprintf("%s %s", c.RuleID, c.Name), statusIcon(c.Status), c.Status)
	}
	r.Println()

	if out.Valid {
		r.Success("Model is valid")
		return
	}
	r.Error(out.Error.Message)
}

// validateMarkdown outputs the report in markdown format.
func validateMarkdown(r *output.Renderer, out output.ValidateOutput) {
	r.Println(output.FormatHeader(1, "Validation"))
	r.Println("")

	for _, c := range out.Checks {
		r.Printf("- **%s** %s: %s\n", c.RuleID, c.Name, c.Status)
	}
	r.Println("")

	if out.Valid {
		r.Println("Model is valid.")
		return
	}
	r.Println(output.FormatKeyValue("Error", out.Error.Message))
}

// statusIcon maps a check status onto the StatusLine icon set.
func statusIcon(status string) string {
	switch status {
	case "passed":
		return "success"
	case "failed":
		return "failed"
	default:
		return "skipped"
	}
}

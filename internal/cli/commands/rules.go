package commands

import (
	"fmt"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the validation steps a scan would run",
		Long: `List the validation steps assembled from configuration: the selected
built-in checks followed by any rules loaded from a Starlark rules file.

Steps run in the listed order. Validation is fail-fast, so a scan stops at
the first step that reports a problem.`,
		Example: `  # List the configured validation steps
  efscan rules

  # List steps as JSON
  efscan rules --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd)
		},
	}

	return cmd
}

func runRules(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	steps, err := buildSteps(cmdCtx.Cfg)
	if err != nil {
		return err
	}

	out := output.RulesOutput{Rules: make([]output.RuleInfo, 0, len(steps))}
	for _, s := range steps {
		out.Rules = append(out.Rules, output.RuleInfo{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Source:      s.Source,
		})
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return rulesMarkdown(r, out)
	default:
		return rulesText(r, out)
	}
}

// rulesText outputs the step list in styled text format.
func rulesText(r *output.Renderer, out output.RulesOutput) error {
	styles := r.Styles()

	r.Header(1, fmt.Sprintf("Validation Steps (%d)", len(out.Rules)))
	r.Println()

	for _, rule := range out.Rules {
		r.Printf("  %s  %s %s\n",
			styles.Bold.Render(rule.ID),
			rule.Name,
			styles.Muted.Render("("+rule.Source+")"),
		)
		r.Println(styles.Muted.Render("        " + rule.Description))
	}

	return nil
}

// rulesMarkdown outputs the step list in markdown format.
func rulesMarkdown(r *output.Renderer, out output.RulesOutput) error {
	r.Println(output.FormatHeader(1, "Validation Steps"))
	r.Println("")

	for _, rule := range out.Rules {
		r.Printf("- **%s** %s (%s): %s\n", rule.ID, rule.Name, rule.Source, rule.Description)
	}

	return nil
}

package commands

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/efscan/internal/cli/config"
	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/rules"
	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/leapstack-labs/efscan/pkg/validate"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup and model health",
		Long: `Check everything a scan depends on and report problems before they
bite: configuration, the model directory, the state database, the rules
file, and advisory model checks that the fail-fast validation steps do not
enforce.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the health check
  efscan doctor

  # Output as JSON
  efscan doctor --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks          []DoctorCheck `json:"checks"`
	Passed          int           `json:"passed"`
	Warnings        int           `json:"warnings"`
	Failed          int           `json:"failed"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// DoctorCheck is a single health check result.
type DoctorCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "fail", "skip"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	out := buildDoctorOutput(cmd, cmdCtx)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func buildDoctorOutput(cmd *cobra.Command, cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	out := &DoctorOutput{}

	add := func(c DoctorCheck) {
		out.Checks = append(out.Checks, c)
		switch c.Status {
		case "pass":
			out.Passed++
		case "warn":
			out.Warnings++
		case "fail":
			out.Failed++
		}
	}
	recommend := func(rec string) {
		out.Recommendations = append(out.Recommendations, rec)
	}

	// Environment checks.
	if path := config.GetConfigFileUsed(); path != "" {
		add(DoctorCheck{Name: "config file", Group: "environment", Status: "pass", Details: []string{path}})
	} else {
		add(DoctorCheck{Name: "config file", Group: "environment", Status: "warn",
			Details: []string{"no efscan.yaml found, using defaults and flags"}})
	}

	sourceCount, dirErr := countSourceFiles(cfg.Dir)
	switch {
	case dirErr != nil:
		add(DoctorCheck{Name: "model directory", Group: "environment", Status: "fail",
			Details: []string{dirErr.Error()}})
		recommend("Point --dir (or dir in efscan.yaml) at the directory of generated sources")
	case sourceCount == 0:
		add(DoctorCheck{Name: "model directory", Group: "environment", Status: "warn",
			Details: []string{fmt.Sprintf("no .cs files under %s", cfg.Dir)}})
		recommend("Point --dir (or dir in efscan.yaml) at the directory of generated sources")
	default:
		add(DoctorCheck{Name: "model directory", Group: "environment", Status: "pass",
			Details: []string{fmt.Sprintf("%d source files under %s", sourceCount, cfg.Dir)}})
	}

	stateCheck := DoctorCheck{Name: "state database", Group: "environment", Status: "pass",
		Details: []string{cfg.StatePath}}
	if version, err := cmdCtx.Engine.Store().MigrationVersion(); err != nil {
		stateCheck.Status = "fail"
		stateCheck.Details = []string{err.Error()}
	} else {
		stateCheck.Details = append(stateCheck.Details, fmt.Sprintf("schema version %d", version))
		if scans, err := cmdCtx.Engine.Store().ListScans(1); err == nil && len(scans) > 0 {
			stateCheck.Details = append(stateCheck.Details,
				fmt.Sprintf("last scan %s at %s", scans[0].Status, scans[0].StartedAt.Format("2006-01-02 15:04:05")))
		}
	}
	add(stateCheck)

	// The snapshot reflects the previous completed scan, if any.
	if snap, err := cmdCtx.Engine.Store().LoadSnapshot(); err != nil {
		add(DoctorCheck{Name: "model snapshot", Group: "environment", Status: "fail",
			Details: []string{err.Error()}})
	} else if snap == nil {
		add(DoctorCheck{Name: "model snapshot", Group: "environment", Status: "warn",
			Details: []string{"no snapshot recorded yet"}})
		recommend("Run 'efscan scan' to record a first model snapshot")
	} else {
		add(DoctorCheck{Name: "model snapshot", Group: "environment", Status: "pass",
			Details: []string{fmt.Sprintf("%d tables, %d relationships from scan %s",
				len(snap.Tables), len(snap.Dependencies), shortID(snap.ScanID))}})
	}

	if cfg.RulesFile == "" {
		add(DoctorCheck{Name: "rules file", Group: "environment", Status: "pass",
			Details: []string{"not configured"}})
	} else if steps, err := rules.Load(cfg.RulesFile); err != nil {
		add(DoctorCheck{Name: "rules file", Group: "environment", Status: "fail",
			Details: []string{err.Error()}})
		recommend("Fix the Starlark rules file; 'efscan rules' lists what loaded")
	} else {
		add(DoctorCheck{Name: "rules file", Group: "environment", Status: "pass",
			Details: []string{fmt.Sprintf("%d rules from %s", len(steps), cfg.RulesFile)}})
	}

	// Model checks need a completed scan.
	result, scanErr := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{})
	if scanErr != nil {
		add(DoctorCheck{Name: "extraction", Group: "model", Status: "fail",
			Details: []string{scanErr.Error()}})
		recommend("Fix the reported extraction error, then re-run 'efscan scan'")

		skipped := []string{"skipped: no model"}
		add(DoctorCheck{Name: "duplicate dbsets", Group: "model", Status: "skip", Details: skipped})
		add(DoctorCheck{Name: "dbset naming", Group: "model", Status: "skip", Details: skipped})
		add(DoctorCheck{Name: "relationship cycles", Group: "model", Status: "skip", Details: skipped})
		return out
	}

	add(DoctorCheck{Name: "extraction", Group: "model", Status: "pass",
		Details: []string{fmt.Sprintf("%d tables, %d relationships from %d files",
			len(result.Model.Objects), result.Graph.EdgeCount(), result.FilesSeen)}})

	if dupes := duplicateDbSets(result.Model.Context.Tables); len(dupes) > 0 {
		add(DoctorCheck{Name: "duplicate dbsets", Group: "model", Status: "warn", Details: dupes})
		recommend("Remove duplicate DbSet declarations from the context class")
	} else {
		add(DoctorCheck{Name: "duplicate dbsets", Group: "model", Status: "pass"})
	}

	if issues := validate.NamingIssues(result.Model); len(issues) > 0 {
		details := make([]string, 0, len(issues))
		for i := range issues {
			details = append(details, issues[i].Error())
		}
		add(DoctorCheck{Name: "dbset naming", Group: "model", Status: "warn", Details: details})
		recommend("Rename DbSets to the plural of their element type, or enforce it with validation step MV03")
	} else {
		add(DoctorCheck{Name: "dbset naming", Group: "model", Status: "pass"})
	}

	if hasCycle, path := result.Graph.HasCycle(); hasCycle {
		add(DoctorCheck{Name: "relationship cycles", Group: "model", Status: "fail",
			Details: []string{strings.Join(path, " -> ")}})
		recommend("Break the relationship cycle; ddl and graph need an acyclic model")
	} else {
		add(DoctorCheck{Name: "relationship cycles", Group: "model", Status: "pass"})
	}

	return out
}

// countSourceFiles counts .cs files under dir, skipping hidden directories
// the same way the scanner does.
func countSourceFiles(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".cs") {
			count++
		}
		return nil
	})
	return count, err
}

// duplicateDbSets lists variable names declared by more than one DbSet.
func duplicateDbSets(sets []model.DbSet) []string {
	seen := make(map[string]int)
	for _, s := range sets {
		seen[s.VariableName]++
	}
	var dupes []string
	for _, s := range sets {
		if seen[s.VariableName] > 1 {
			dupes = append(dupes, fmt.Sprintf("DbSet %s declared %d times", s.VariableName, seen[s.VariableName]))
			seen[s.VariableName] = 0
		}
	}
	return dupes
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("efscan Health Report"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Header2.Render(titleCaser.String(currentGroup)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "fail":
			icon = styles.StatusFailed.String()
		case "skip":
			icon = styles.Muted.Render("-")
		}

		r.Printf("  %s %s\n", icon, check.Name)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("      " + detail))
		}
	}
	r.Println("")

	summary := fmt.Sprintf("%d passed, %d warnings, %d failed", out.Passed, out.Warnings, out.Failed)
	switch {
	case out.Failed > 0:
		r.Error(summary)
	case out.Warnings > 0:
		r.Warning(summary)
	default:
		r.Success(summary)
	}

	if len(out.Recommendations) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("  %d. %s\n", i+1, rec)
		}
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# efscan Health Report")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s\n", strings.ToUpper(check.Status), check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Summary")
	r.Println("")
	r.Println(output.FormatKeyValue("Passed", fmt.Sprintf("%d", out.Passed)))
	r.Println(output.FormatKeyValue("Warnings", fmt.Sprintf("%d", out.Warnings)))
	r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d", out.Failed)))

	if len(out.Recommendations) > 0 {
		r.Println("")
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}

	return nil
}

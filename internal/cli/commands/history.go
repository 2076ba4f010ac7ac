package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scans, newest first",
		Long: `Show the scans recorded in the state database, newest first.

Each entry carries the scan outcome and its file and table counts. Scans
against an in-memory state database leave no history.`,
		Example: `  # Show the last 10 scans
  efscan history

  # Show the last 50 scans
  efscan history --limit 50

  # Scan history as JSON
  efscan history --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Maximum number of scans to show")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	scans, err := cmdCtx.Engine.Store().ListScans(opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	out := output.HistoryOutput{Scans: make([]output.ScanInfo, 0, len(scans))}
	for _, s := range scans {
		info := output.ScanInfo{
			ID:            s.ID,
			Status:        string(s.Status),
			StartedAt:     s.StartedAt.Format(time.RFC3339),
			FilesSeen:     s.FilesSeen,
			FilesChanged:  s.FilesChanged,
			Tables:        s.TableCount,
			Relationships: s.DependencyCount,
			Error:         s.Error,
		}
		if s.CompletedAt != nil {
			info.CompletedAt = s.CompletedAt.Format(time.RFC3339)
		}
		out.Scans = append(out.Scans, info)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return historyMarkdown(r, out)
	default:
		return historyText(r, out)
	}
}

// historyText outputs the scan history in styled text format.
func historyText(r *output.Renderer, out output.HistoryOutput) error {
	r.Header(1, fmt.Sprintf("Scan History (%d)", len(out.Scans)))
	r.Println()

	if len(out.Scans) == 0 {
		r.Muted("No scans recorded. Run 'efscan scan' first.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Scan", "Status", "Started", "Files", "Tables", "Relationships"})

	for _, s := range out.Scans {
		t.AppendRow(table.Row{
			shortID(s.ID),
			s.Status,
			s.StartedAt,
			fmt.Sprintf("%d (%d changed)", s.FilesSeen, s.FilesChanged),
			s.Tables,
			s.Relationships,
		})
	}
	t.Render()

	for _, s := range out.Scans {
		if s.Error != "" {
			r.Printf("  %s: %s\n", shortID(s.ID), r.Styles().Error.Render(s.Error))
		}
	}

	return nil
}

// historyMarkdown outputs the scan history in markdown format.
func historyMarkdown(r *output.Renderer, out output.HistoryOutput) error {
	r.Println(output.FormatHeader(1, "Scan History"))
	r.Println("")

	if len(out.Scans) == 0 {
		r.Println("No scans recorded.")
		return nil
	}

	for _, s := range out.Scans {
		r.Println(output.FormatHeader(2, shortID(s.ID)))
		r.Println(output.FormatKeyValue("Status", s.Status))
		r.Println(output.FormatKeyValue("Started", s.StartedAt))
		if s.CompletedAt != "" {
			r.Println(output.FormatKeyValue("Completed", s.CompletedAt))
		}
		r.Println(output.FormatKeyValue("Files", fmt.Sprintf("%d seen, %d changed", s.FilesSeen, s.FilesChanged)))
		r.Println(output.FormatKeyValue("Tables", fmt.Sprintf("%d", s.Tables)))
		r.Println(output.FormatKeyValue("Relationships", fmt.Sprintf("%d", s.Relationships)))
		if s.Error != "" {
			r.Println(output.FormatKeyValue("Error", s.Error))
		}
		r.Println("")
	}

	return nil
}

// shortID abbreviates a scan ID for display. JSON output keeps the full ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

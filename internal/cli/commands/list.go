package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/depgraph"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tables in the scanned model",
		Long: `Scan the model directory and list every table with its key, source
file, field count, and dependants.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all tables (auto-detect output format)
  efscan list

  # List tables as JSON
  efscan list --output json

  # List tables as Markdown (for agents/scripts)
  efscan list --output markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
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

	out := buildListOutput(result.Model, result.Graph)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return listMarkdown(r, out)
	default:
		return listText(r, out)
	}
}

func buildListOutput(m *model.Model, graph *depgraph.Graph) output.ListOutput {
	out := output.ListOutput{
		Namespace: m.Namespace,
		Context:   m.Context.ClassName,
		Tables:    make([]output.TableInfo, 0, len(m.Objects)),
		Summary: output.ListSummary{
			Tables:        len(m.Objects),
			Relationships: graph.EdgeCount(),
		},
	}

	for _, obj := range m.Objects {
		out.Tables = append(out.Tables, output.TableInfo{
			ClassName:  obj.ClassName,
			Key:        obj.KeyName,
			File:       obj.FileName,
			FieldCount: scalarFieldCount(obj),
			Dependants: graph.Children(obj.ClassName),
		})
	}

	return out
}

// scalarFieldCount counts the fields that become columns. Collection
// properties only express relationships and are excluded.
func scalarFieldCount(obj *model.TableObject) int {
	count := 0
	for _, f := range obj.Fields {
		if !f.IsCollection() {
			count++
		}
	}
	return count
}

// listText outputs tables in styled text format.
func listText(r *output.Renderer, out output.ListOutput) error {
	r.Header(1, fmt.Sprintf("%s (%s)", out.Namespace, out.Context))
	r.Println()

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Key", "Fields", "Dependants", "File"})

	for _, tbl := range out.Tables {
		t.AppendRow(table.Row{
			tbl.ClassName,
			tbl.Key,
			tbl.FieldCount,
			strings.Join(tbl.Dependants, ", "),
			tbl.File,
		})
	}
	t.Render()

	r.Println()
	r.Muted(fmt.Sprintf("%d tables, %d relationships", out.Summary.Tables, out.Summary.Relationships))
	return nil
}

// listMarkdown outputs tables in markdown format.
func listMarkdown(r *output.Renderer, out output.ListOutput) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Tables (%d total)", out.Summary.Tables)))
	r.Println("")
	r.Println(output.FormatKeyValue("Namespace", out.Namespace))
	r.Println(output.FormatKeyValue("Context", out.Context))
	r.Println("")

	for _, tbl := range out.Tables {
		r.Println(output.FormatHeader(2, tbl.ClassName))
		r.Println(output.FormatKeyValue("Key", tbl.Key))
		r.Println(output.FormatKeyValue("File", tbl.File))
		r.Println(output.FormatKeyValue("Fields", fmt.Sprintf("%d", tbl.FieldCount)))
		if len(tbl.Dependants) > 0 {
			r.Println(output.FormatKeyValue("Dependants", strings.Join(tbl.Dependants, ", ")))
		}
		r.Println("")
	}

	return nil
}

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

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <table>",
		Short: "Show one table in detail",
		Long: `Scan the model directory and show a single table: its fields with
types, nullability, and attributes, plus its parents and dependants.`,
		Example: `  # Show the Device table
  efscan show Device

  # Show a table as JSON
  efscan show Device --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}

	return cmd
}

func runShow(cmd *cobra.Command, name string) error {
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

	obj, ok := result.Model.ObjectByName(name)
	if !ok {
		return fmt.Errorf("table %s not found (run 'efscan list' to see tables)", name)
	}

	out := buildShowOutput(result.Model, result.Graph, obj)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return showMarkdown(r, out)
	default:
		return showText(r, out)
	}
}

// buildShowOutput assembles the detail view of a single table. The explore
// REPL reuses it for its show command.
func buildShowOutput(m *model.Model, graph *depgraph.Graph, obj *model.TableObject) output.ShowOutput {
	out := output.ShowOutput{
		ClassName:  obj.ClassName,
		File:       obj.FileName,
		Key:        obj.KeyName,
		Namespace:  m.Namespace,
		Fields:     make([]output.FieldInfo, 0, len(obj.Fields)),
		Parents:    graph.Parents(obj.ClassName),
		Dependants: graph.Children(obj.ClassName),
	}
	if node, ok := graph.Node(obj.ClassName); ok {
		out.SelfRef = node.SelfRef
	}
	for _, f := range obj.Fields {
		out.Fields = append(out.Fields, output.FieldInfo{
			Name:       f.VariableName,
			Type:       f.TypeName,
			Nullable:   f.AllowsNull,
			Attributes: f.Attributes,
		})
	}
	return out
}

// showText outputs the table in styled text format.
func showText(r *output.Renderer, out output.ShowOutput) error {
	r.Header(1, out.ClassName)
	r.Muted(fmt.Sprintf("%s.%s (%s)", out.Namespace, out.ClassName, out.File))
	r.Println()

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Type", "Nullable", "Attributes"})

	for _, f := range out.Fields {
		name := f.Name
		if f.Name == out.Key {
			name += " *"
		}
		t.AppendRow(table.Row{name, f.Type, yesNo(f.Nullable), strings.Join(f.Attributes, ", ")})
	}
	t.Render()
	r.Muted("* primary key")

	if len(out.Parents) > 0 || len(out.Dependants) > 0 || out.SelfRef {
		r.Println()
		if len(out.Parents) > 0 {
			r.Printf("Parents:    %s\n", strings.Join(out.Parents, ", "))
		}
		if len(out.Dependants) > 0 {
			r.Printf("Dependants: %s\n", strings.Join(out.Dependants, ", "))
		}
		if out.SelfRef {
			r.Muted("Self-referencing hierarchy")
		}
	}

	return nil
}

// showMarkdown outputs the table in markdown format.
func showMarkdown(r *output.Renderer, out output.ShowOutput) error {
	r.Println(output.FormatHeader(1, out.ClassName))
	r.Println("")
	r.Println(output.FormatKeyValue("Namespace", out.Namespace))
	r.Println(output.FormatKeyValue("File", out.File))
	r.Println(output.FormatKeyValue("Key", out.Key))
	if len(out.Parents) > 0 {
		r.Println(output.FormatKeyValue("Parents", strings.Join(out.Parents, ", ")))
	}
	if len(out.Dependants) > 0 {
		r.Println(output.FormatKeyValue("Dependants", strings.Join(out.Dependants, ", ")))
	}
	if out.SelfRef {
		r.Println(output.FormatKeyValue("Self-referencing", "yes"))
	}
	r.Println("")

	r.Println(output.FormatHeader(2, "Fields"))
	r.Println("")
	r.Println("| Field | Type | Nullable | Attributes |")
	r.Println("| --- | --- | --- | --- |")
	for _, f := range out.Fields {
		r.Printf("| %s | %s | %s | %s |\n", f.Name, f.Type, yesNo(f.Nullable), strings.Join(f.Attributes, ", "))
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/depgraph"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/spf13/cobra"
)

// GraphCmdOptions holds options for the graph command.
type GraphCmdOptions struct {
	Format string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphCmdOptions{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the relationship graph",
		Long: `Display the relationship graph of the scanned model.

Tables are grouped by creation-order depth: level 0 holds tables with no
parents, and every table sits one level below its deepest parent. Creating
tables level by level never violates a foreign key.

Use --format dot to emit Graphviz source instead, e.g. for rendering with
'efscan graph --format dot | dot -Tsvg -o model.svg'.`,
		Example: `  # Show the relationship graph
  efscan graph

  # Emit Graphviz source
  efscan graph --format dot

  # Output as JSON
  efscan graph --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Graph format: dot for Graphviz source")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *GraphCmdOptions) error {
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

	if opts.Format == "dot" {
		r.Printf("%s", graphDot(result.Model, result.Graph))
		return nil
	}
	if opts.Format != "" {
		return fmt.Errorf("unknown graph format %q (want dot)", opts.Format)
	}

	levels, err := result.Graph.Levels()
	if err != nil {
		return err
	}

	out := buildGraphOutput(result.Graph, levels)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return graphMarkdown(r, out)
	default:
		return graphText(r, out)
	}
}

func buildGraphOutput(graph *depgraph.Graph, levels [][]string) output.GraphOutput {
	out := output.GraphOutput{
		Nodes:  make([]output.GraphNode, 0, graph.NodeCount()),
		Levels: make([]output.GraphLevel, 0, len(levels)),
		Summary: output.GraphSummary{
			Tables:        graph.NodeCount(),
			Relationships: graph.EdgeCount(),
			Depth:         len(levels),
		},
	}

	for _, node := range graph.Nodes() {
		out.Nodes = append(out.Nodes, output.GraphNode{
			Name:     node.Name,
			Parents:  graph.Parents(node.Name),
			Children: graph.Children(node.Name),
			SelfRef:  node.SelfRef,
		})
	}

	for i, tables := range levels {
		out.Levels = append(out.Levels, output.GraphLevel{Level: i, Tables: tables})
	}

	return out
}

// graphText outputs the graph in styled text format.
func graphText(r *output.Renderer, out output.GraphOutput) error {
	styles := r.Styles()

	r.Header(1, "Relationship Graph")

	byName := make(map[string]output.GraphNode, len(out.Nodes))
	for _, n := range out.Nodes {
		byName[n.Name] = n
	}

	for _, level := range out.Levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", level.Level)))
		for _, name := range level.Tables {
			node := byName[name]

			label := styles.TableName.Render(name)
			if node.SelfRef {
				label += styles.Muted.Render(" (self-referencing)")
			}
			r.Printf("  %s\n", label)
			if len(node.Parents) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("references:"), strings.Join(node.Parents, ", "))
			}
			if len(node.Children) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("referenced by:"), strings.Join(node.Children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d tables, %d relationships", out.Summary.Tables, out.Summary.Relationships)))

	return nil
}

// graphMarkdown outputs the graph in markdown format.
func graphMarkdown(r *output.Renderer, out output.GraphOutput) error {
	r.Println(output.FormatHeader(1, "Relationship Graph"))
	r.Println("")

	byName := make(map[string]output.GraphNode, len(out.Nodes))
	for _, n := range out.Nodes {
		byName[n.Name] = n
	}

	for _, level := range out.Levels {
		levelName := fmt.Sprintf("Level %d", level.Level)
		if level.Level == 0 {
			levelName = "Level 0 (Roots)"
		}
		r.Println(output.FormatHeader(2, levelName))

		for _, name := range level.Tables {
			node := byName[name]

			r.Printf("- %s\n", name)
			if len(node.Parents) > 0 {
				r.Printf("  - references: %s\n", strings.Join(node.Parents, ", "))
			}
			if len(node.Children) > 0 {
				r.Printf("  - referenced by: %s\n", strings.Join(node.Children, ", "))
			}
			if node.SelfRef {
				r.Println("  - self-referencing")
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Tables", fmt.Sprintf("%d", out.Summary.Tables)))
	r.Println(output.FormatKeyValue("Relationships", fmt.Sprintf("%d", out.Summary.Relationships)))
	r.Println(output.FormatKeyValue("Depth", fmt.Sprintf("%d", out.Summary.Depth)))

	return nil
}

// graphDot renders the graph as Graphviz source, one edge per inferred
// relationship labelled with its foreign-key field.
func graphDot(m *model.Model, graph *depgraph.Graph) string {
	var b strings.Builder

	b.WriteString("digraph model {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [shape=box];\n\n")

	for _, node := range graph.Nodes() {
		fmt.Fprintf(&b, "    %q;\n", node.Name)
	}
	b.WriteString("\n")

	for _, obj := range m.Objects {
		for _, dep := range obj.Dependants {
			fmt.Fprintf(&b, "    %q -> %q [label=%q];\n",
				obj.ClassName, dep.Dependant.ClassName, dep.FK.VariableName)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

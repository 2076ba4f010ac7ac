package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/spf13/cobra"
)

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the extracted model interactively",
		Long: `Scan the model directory once and open an interactive prompt for
browsing the result. Tab completes table names, and the command history
persists next to the state database.

Commands:
  .tables          List all tables
  show <table>     Show a table in detail
  fields <table>   List the fields of a table
  deps <table>     Show the relationships of a table
  .help            Show available commands
  .clear           Clear the screen
  .quit, .exit     Exit the explorer`,
		Example: `  # Explore the model in the current directory
  efscan explore

  # Explore a specific model directory
  efscan explore --dir ./Models`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplore(cmd)
		},
	}

	return cmd
}

func runExplore(cmd *cobra.Command) error {
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

	// The state store already created this directory when the engine opened.
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "explore_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "efscan> ",
		HistoryFile:     historyFile,
		AutoComplete:    newExploreCompleter(result.Model),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start explorer: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("efscan explorer: %s (%s, %d tables)\n",
		result.Model.Namespace, result.Model.Context.ClassName, len(result.Model.Objects))
	r.Muted("Type .help for commands, .quit to exit")
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if quit := exploreDispatch(r, result, line); quit {
			break
		}
	}

	return nil
}

// exploreDispatch runs one explorer command and reports whether to exit.
func exploreDispatch(r *output.Renderer, result *engine.ScanResult, line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case ".quit", ".exit":
		return true

	case ".help":
		exploreHelp(r)

	case ".clear":
		fmt.Fprint(r.Writer(), "\033[H\033[2J")

	case ".tables":
		exploreTables(r, result)

	case "show":
		if obj, ok := exploreLookup(r, result.Model, parts); ok {
			_ = showText(r, buildShowOutput(result.Model, result.Graph, obj))
		}

	case "fields":
		if obj, ok := exploreLookup(r, result.Model, parts); ok {
			exploreFields(r, obj)
		}

	case "deps":
		if obj, ok := exploreLookup(r, result.Model, parts); ok {
			exploreDeps(r, result, obj)
		}

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", cmd))
	}

	return false
}

// exploreLookup resolves the table argument of show, fields, and deps.
func exploreLookup(r *output.Renderer, m *model.Model, parts []string) (*model.TableObject, bool) {
	if len(parts) < 2 {
		r.Error(fmt.Sprintf("Usage: %s <table>", parts[0]))
		return nil, false
	}
	obj, ok := m.ObjectByName(parts[1])
	if !ok {
		r.Error(fmt.Sprintf("Table %s not found (.tables lists all tables)", parts[1]))
		return nil, false
	}
	return obj, true
}

func exploreTables(r *output.Renderer, result *engine.ScanResult) {
	for _, obj := range result.Model.Objects {
		marker := ""
		if n := len(result.Graph.Children(obj.ClassName)); n > 0 {
			marker = r.Styles().Muted.Render(fmt.Sprintf(" (%d dependants)", n))
		}
		r.Printf("  %s%s\n", r.Styles().TableName.Render(obj.ClassName), marker)
	}
	r.Println()
	r.Muted(fmt.Sprintf("%d tables", len(result.Model.Objects)))
}

func exploreFields(r *output.Renderer, obj *model.TableObject) {
	for _, f := range obj.Fields {
		marker := " "
		if f.VariableName == obj.KeyName {
			marker = "*"
		}
		typeName := f.TypeName
		if f.AllowsNull {
			typeName += "?"
		}
		r.Printf("  %s %-28s %s\n", marker, f.VariableName, typeName)
	}
	r.Println()
	r.Muted("* primary key")
}

func exploreDeps(r *output.Renderer, result *engine.ScanResult, obj *model.TableObject) {
	name := obj.ClassName
	r.Printf("Parents:    %s\n", joinOrDash(result.Graph.Parents(name)))
	r.Printf("Dependants: %s\n", joinOrDash(result.Graph.Children(name)))
	r.Printf("Upstream:   %s\n", joinOrDash(result.Graph.Upstream(name)))
	r.Printf("Downstream: %s\n", joinOrDash(result.Graph.Downstream(name)))
	if node, ok := result.Graph.Node(name); ok && node.SelfRef {
		r.Muted("Self-referencing hierarchy")
	}
}

func exploreHelp(r *output.Renderer) {
	r.Println("Commands:")
	r.Println("  .tables          List all tables")
	r.Println("  show <table>     Show a table in detail")
	r.Println("  fields <table>   List the fields of a table")
	r.Println("  deps <table>     Show the relationships of a table")
	r.Println("  .help            Show this help")
	r.Println("  .clear           Clear the screen")
	r.Println("  .quit, .exit     Exit the explorer")
}

// newExploreCompleter builds tab completion over the scanned table names.
func newExploreCompleter(m *model.Model) *readline.PrefixCompleter {
	tables := make([]readline.PrefixCompleterInterface, 0, len(m.Objects))
	for _, obj := range m.Objects {
		tables = append(tables, readline.PcItem(obj.ClassName))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("show", tables...),
		readline.PcItem("fields", tables...),
		readline.PcItem("deps", tables...),
		readline.PcItem(".tables"),
		readline.PcItem(".help"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// joinOrDash renders a name list for the deps view.
func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

// Package commands_test provides tests for CLI command creation.
package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/efscan/internal/cli/testutil"
	"github.com/leapstack-labs/efscan/internal/engine"
)

// scanTestProject scans the fixture project with an in-memory state store
// and returns the result. Several command tests render from it.
func scanTestProject(t *testing.T) *engine.ScanResult {
	t.Helper()

	modelsDir := testutil.SetupTestProject(t)

	eng, err := engine.New(engine.Config{Dir: modelsDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	result, err := eng.Scan(context.Background(), engine.ScanOptions{})
	require.NoError(t, err)

	return result
}

func TestNewScanCommand(t *testing.T) {
	cmd := NewScanCommand()

	assert.Equal(t, "scan", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"force", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "f", cmd.Flags().Lookup("force").Shorthand)
	assert.Equal(t, "w", cmd.Flags().Lookup("watch").Shorthand)
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	// Note: --output flag is a global persistent flag on root command, not local to list
}

func TestNewShowCommand(t *testing.T) {
	cmd := NewShowCommand()

	assert.Equal(t, "show <table>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Args, "show should require a table argument")
}

func TestNewGraphCommand(t *testing.T) {
	cmd := NewGraphCommand()

	assert.Equal(t, "graph", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("format"), "flag format should exist")
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	assert.Equal(t, "validate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewRulesCommand(t *testing.T) {
	cmd := NewRulesCommand()

	assert.Equal(t, "rules", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	limit := cmd.Flags().Lookup("limit")
	require.NotNil(t, limit, "flag limit should exist")
	assert.Equal(t, "10", limit.DefValue)
	assert.Equal(t, "n", limit.Shorthand)
}

func TestNewExportCommand(t *testing.T) {
	cmd := NewExportCommand()

	assert.Equal(t, "export", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	format := cmd.Flags().Lookup("format")
	require.NotNil(t, format, "flag format should exist")
	assert.Equal(t, "yaml", format.DefValue)
	assert.Equal(t, "f", format.Shorthand)

	out := cmd.Flags().Lookup("out")
	require.NotNil(t, out, "flag out should exist")
	assert.Equal(t, "o", out.Shorthand)
}

func TestNewDDLCommand(t *testing.T) {
	cmd := NewDDLCommand()

	assert.Equal(t, "ddl", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	dialect := cmd.Flags().Lookup("dialect")
	require.NotNil(t, dialect, "flag dialect should exist")
	assert.Equal(t, "postgres", dialect.DefValue)
}

func TestNewGenerateCommand(t *testing.T) {
	cmd := NewGenerateCommand()

	assert.Equal(t, "generate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	for _, flag := range []string{"package", "out"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewVerifyCommand(t *testing.T) {
	cmd := NewVerifyCommand()

	assert.Equal(t, "verify", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	for _, flag := range []string{"target", "dsn", "schema"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	port := cmd.Flags().Lookup("port")
	require.NotNil(t, port, "flag port should exist")
	assert.Equal(t, "p", port.Shorthand)
	assert.NotNil(t, cmd.Flags().Lookup("no-watch"), "flag no-watch should exist")
}

func TestNewDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand()

	assert.Equal(t, "doctor", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewExploreCommand(t *testing.T) {
	cmd := NewExploreCommand()

	assert.Equal(t, "explore", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}

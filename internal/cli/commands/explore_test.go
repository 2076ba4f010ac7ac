package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/efscan/internal/cli/testutil"
)

func TestExploreDispatch(t *testing.T) {
	result := scanTestProject(t)

	t.Run("tables", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, ".tables")
		assert.False(t, quit)
		assert.Contains(t, tr.Output(), "Device")
		assert.Contains(t, tr.Output(), "DeviceGroup")
		assert.Contains(t, tr.Output(), "2 tables")
	})

	t.Run("show", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, "show Device")
		assert.False(t, quit)
		assert.Contains(t, tr.Output(), "Device_id *")
		assert.Contains(t, tr.Output(), "SerialNumber")
		assert.Contains(t, tr.Output(), "Parents:    DeviceGroup")
	})

	t.Run("fields", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, "fields Device")
		assert.False(t, quit)
		assert.Contains(t, tr.Output(), "CommissionedAt")
		assert.Contains(t, tr.Output(), "DateTime?")
		assert.Contains(t, tr.Output(), "* primary key")
	})

	t.Run("deps", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, "deps DeviceGroup")
		assert.False(t, quit)
		assert.Contains(t, tr.Output(), "Parents:    -")
		assert.Contains(t, tr.Output(), "Dependants: Device")
		assert.Contains(t, tr.Output(), "Downstream: Device")
	})

	t.Run("help", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, ".help")
		assert.False(t, quit)
		assert.Contains(t, tr.Output(), ".tables")
		assert.Contains(t, tr.Output(), "show <table>")
	})

	t.Run("quit and exit", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		assert.True(t, exploreDispatch(tr.Renderer, result, ".quit"))
		assert.True(t, exploreDispatch(tr.Renderer, result, ".exit"))
	})

	t.Run("unknown table", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, "show Sensor")
		assert.False(t, quit)
		assert.Contains(t, tr.ErrorOutput(), "Table Sensor not found")
	})

	t.Run("missing argument", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, "deps")
		assert.False(t, quit)
		assert.Contains(t, tr.ErrorOutput(), "Usage: deps <table>")
	})

	t.Run("unknown command", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		quit := exploreDispatch(tr.Renderer, result, "select * from Device")
		assert.False(t, quit)
		assert.Contains(t, tr.ErrorOutput(), "Unknown command: select")
	})
}

func TestNewExploreCompleter(t *testing.T) {
	result := scanTestProject(t)

	completer := newExploreCompleter(result.Model)
	require.NotNil(t, completer)

	// Completing "show " should offer both table names.
	line := []rune("show ")
	candidates, _ := completer.Do(line, len(line))
	assert.Len(t, candidates, 2)
}

func TestJoinOrDash(t *testing.T) {
	assert.Equal(t, "-", joinOrDash(nil))
	assert.Equal(t, "Device", joinOrDash([]string{"Device"}))
	assert.Equal(t, "Device, Zone", joinOrDash([]string{"Device", "Zone"}))
}

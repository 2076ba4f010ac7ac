// Package main provides tests for the efscan CLI.
package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/efscan/internal/cli"
	"github.com/leapstack-labs/efscan/internal/cli/testutil"
)

// execute runs the root command against the fixture project and returns
// its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// projectArgs points a command at a fresh fixture project with its state
// database in a temporary directory.
func projectArgs(t *testing.T, args ...string) []string {
	t.Helper()

	modelsDir := testutil.SetupTestProject(t)
	statePath := filepath.Join(t.TempDir(), "state.db")
	return append(args, "--dir", modelsDir, "--state", statePath)
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "efscan") {
		t.Errorf("version output should contain 'efscan', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help command error = %v", err)
	}

	expectedCommands := []string{
		"scan", "list", "show", "graph", "validate", "rules",
		"export", "ddl", "generate", "verify", "serve",
		"history", "doctor", "explore",
	}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain %q, got: %s", expected, output)
		}
	}
}

func TestScanCommand(t *testing.T) {
	output, err := execute(t, projectArgs(t, "scan")...)
	if err != nil {
		t.Fatalf("scan command error = %v", err)
	}

	// A buffer is not a TTY, so auto mode renders markdown.
	if !strings.Contains(output, "# Scan Report") {
		t.Errorf("scan output should contain the report header, got: %s", output)
	}
	if !strings.Contains(output, "- **Tables:** 2") {
		t.Errorf("scan output should count both tables, got: %s", output)
	}
}

func TestListCommand(t *testing.T) {
	output, err := execute(t, projectArgs(t, "list")...)
	if err != nil {
		t.Fatalf("list command error = %v", err)
	}
	if !strings.Contains(output, "# Tables (2 total)") {
		t.Errorf("list output should contain the table count, got: %s", output)
	}
	if !strings.Contains(output, "## DeviceGroup") {
		t.Errorf("list output should contain DeviceGroup, got: %s", output)
	}
}

func TestShowCommand(t *testing.T) {
	output, err := execute(t, projectArgs(t, "show", "Device")...)
	if err != nil {
		t.Fatalf("show command error = %v", err)
	}
	if !strings.Contains(output, "# Device") {
		t.Errorf("show output should contain the table header, got: %s", output)
	}
	if !strings.Contains(output, "SerialNumber") {
		t.Errorf("show output should list fields, got: %s", output)
	}
}

func TestShowCommandUnknownTable(t *testing.T) {
	_, err := execute(t, projectArgs(t, "show", "Sensor")...)
	if err == nil {
		t.Fatal("show with an unknown table should return an error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should mention the missing table, got: %v", err)
	}
}

func TestGraphCommandDot(t *testing.T) {
	output, err := execute(t, projectArgs(t, "graph", "--format", "dot")...)
	if err != nil {
		t.Fatalf("graph command error = %v", err)
	}
	if !strings.Contains(output, "digraph model {") {
		t.Errorf("graph --format dot should emit Graphviz source, got: %s", output)
	}
	if !strings.Contains(output, `"DeviceGroup" -> "Device"`) {
		t.Errorf("graph --format dot should contain the inferred edge, got: %s", output)
	}
}

func TestValidateCommand(t *testing.T) {
	output, err := execute(t, projectArgs(t, "validate")...)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	if !strings.Contains(output, "MV01") || !strings.Contains(output, "MV02") {
		t.Errorf("validate output should list the built-in steps, got: %s", output)
	}
}

func TestDDLCommand(t *testing.T) {
	output, err := execute(t, projectArgs(t, "ddl")...)
	if err != nil {
		t.Fatalf("ddl command error = %v", err)
	}
	if !strings.Contains(output, "CREATE TABLE DeviceGroup") {
		t.Errorf("ddl output should create the parent table, got: %s", output)
	}
	if !strings.Contains(output, "CREATE TABLE Device") {
		t.Errorf("ddl output should create the child table, got: %s", output)
	}
}

func TestExportCommand(t *testing.T) {
	output, err := execute(t, projectArgs(t, "export")...)
	if err != nil {
		t.Fatalf("export command error = %v", err)
	}
	if !strings.Contains(output, "namespace: Inventory.Models") {
		t.Errorf("export output should contain the namespace, got: %s", output)
	}
}

func TestRulesCommand(t *testing.T) {
	output, err := execute(t, "rules")
	if err != nil {
		t.Fatalf("rules command error = %v", err)
	}
	if !strings.Contains(output, "MV01") {
		t.Errorf("rules output should list the built-in steps, got: %s", output)
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			if _, err := execute(t, "completion", shell); err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "unknown-command"); err == nil {
		t.Error("unknown command should return an error")
	}
}

// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/efscan/internal/cli/output"
)

// SetupTestProject creates a temporary project with a Models directory of
// generated sources: one context file and two related record types.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	modelsDir := filepath.Join(tmpDir, "Models")
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		t.Fatalf("failed to create Models directory: %v", err)
	}

	files := map[string]string{
		"InventoryContext.cs": `using Microsoft.EntityFrameworkCore;

namespace Inventory.Models
{
    public partial class InventoryContext : DbContext
    {
        public virtual DbSet<Device> Devices { get; set; }
        public virtual DbSet<DeviceGroup> DeviceGroups { get; set; }
    }
}
`,
		"DeviceGroup.cs": `using System;
using System.Collections.Generic;
using System.ComponentModel.DataAnnotations;

namespace Inventory.Models
{
    public partial class DeviceGroup
    {
        public DeviceGroup()
        {
            Devices = new HashSet<Device>();
        }

        [Key]
        public Guid DeviceGroup_id { get; set; }

        [Required]
        [StringLength(120)]
        public string Name { get; set; }

        public virtual ICollection<Device> Devices { get; set; }
    }
}
`,
		"Device.cs": `using System;
using System.ComponentModel.DataAnnotations;

namespace Inventory.Models
{
    public partial class Device
    {
        [Key]
        public Guid Device_id { get; set; }

        [Required]
        public string SerialNumber { get; set; }

        public DateTime? CommissionedAt { get; set; }

        public Guid DeviceGroup_id { get; set; }

        public virtual DeviceGroup DeviceGroup { get; set; }
    }
}
`,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(modelsDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return modelsDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the captured stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the captured stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeText, ModeText},
		{ModeMarkdown, ModeMarkdown},
		{ModeJSON, ModeJSON},
		// A bytes.Buffer is not a terminal, so auto resolves to markdown.
		{ModeAuto, ModeMarkdown},
		{"", ModeMarkdown},
	}

	for _, tt := range tests {
		r, _, _ := newTestRenderer(tt.mode)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode %q", tt.mode)
	}
}

func TestHeader_Markdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Header(1, "Tables")
	r.Header(2, "Details")

	assert.Contains(t, out.String(), "# Tables")
	assert.Contains(t, out.String(), "## Details")
}

func TestHeader_Text(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)
	r.Header(1, "Tables")

	assert.Contains(t, out.String(), "Tables")
	assert.NotContains(t, out.String(), "# Tables")
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON)

	err := r.JSON(ScanOutput{ScanID: "abc", Tables: 3})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded["scan_id"])
	assert.Equal(t, float64(3), decoded["table_count"])
	// Indented output spans multiple lines.
	assert.Contains(t, out.String(), "\n  \"scan_id\"")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)
	r.StatusLine("Device.cs", "success", "unchanged")
	r.StatusLine("Sensor.cs", "failed", "")

	assert.Contains(t, out.String(), "Device.cs")
	assert.Contains(t, out.String(), "unchanged")
	assert.Contains(t, out.String(), "Sensor.cs")
}

func TestWarningAndErrorGoToErrWriter(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText)
	r.Warning("two contexts found")
	r.Error("scan failed")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "two contexts found")
	assert.Contains(t, errOut.String(), "scan failed")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Tables", FormatHeader(1, "Tables"))
	assert.Equal(t, "### Deep", FormatHeader(3, "Deep"))
	assert.Equal(t, "# Clamped", FormatHeader(0, "Clamped"))
	assert.Equal(t, "###### Clamped", FormatHeader(9, "Clamped"))

	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
	assert.Equal(t, "- **Tables:** 4", FormatKeyValue("Tables", "4"))
}

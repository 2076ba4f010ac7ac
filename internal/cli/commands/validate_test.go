package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/efscan/internal/cli/testutil"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/rules"
	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/leapstack-labs/efscan/pkg/validate"
)

func TestBuildValidateOutput_AllPass(t *testing.T) {
	steps, err := validate.StepsFor([]string{"MV01", "MV02", "MV03"})
	require.NoError(t, err)

	out, ok := buildValidateOutput(steps, nil)
	require.True(t, ok)

	assert.True(t, out.Valid)
	assert.Nil(t, out.Error)
	require.Len(t, out.Checks, 3)
	for _, c := range out.Checks {
		assert.Equal(t, "passed", c.Status)
	}
}

func TestBuildValidateOutput_FailFast(t *testing.T) {
	steps, err := validate.StepsFor([]string{"MV01", "MV02", "MV03"})
	require.NoError(t, err)

	scanErr := &validate.MissingPrimaryKeyError{ClassName: "Device"}
	out, ok := buildValidateOutput(steps, scanErr)
	require.True(t, ok)

	assert.False(t, out.Valid)
	require.Len(t, out.Checks, 3)
	assert.Equal(t, "passed", out.Checks[0].Status)
	assert.Equal(t, "failed", out.Checks[1].Status)
	assert.Equal(t, "skipped", out.Checks[2].Status)

	require.NotNil(t, out.Error)
	assert.Equal(t, "MV02", out.Error.RuleID)
	assert.Equal(t, "Device", out.Error.Table)
}

func TestBuildValidateOutput_NotAValidationError(t *testing.T) {
	steps, err := validate.StepsFor(nil)
	require.NoError(t, err)

	_, ok := buildValidateOutput(steps, errors.New("directory vanished"))
	assert.False(t, ok)
}

func TestValidate_MissingKeyThroughEngine(t *testing.T) {
	modelsDir := testutil.SetupTestProject(t)

	// Strip the Key attribute from Device so key presence fails.
	devicePath := filepath.Join(modelsDir, "Device.cs")
	content, err := os.ReadFile(devicePath)
	require.NoError(t, err)
	broken := strings.Replace(string(content), "[Key]", "", 1)
	require.NoError(t, os.WriteFile(devicePath, []byte(broken), 0o644))

	eng, err := engine.New(engine.Config{Dir: modelsDir})
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	_, scanErr := eng.Scan(context.Background(), engine.ScanOptions{})
	require.Error(t, scanErr)

	id, table, ok := diagnosticFor(scanErr)
	require.True(t, ok, "scan error should map to a validation step")
	assert.Equal(t, validate.KeyPresenceID, id)
	assert.Equal(t, "Device", table)
}

func TestDiagnosticFor(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantID    string
		wantTable string
		wantOK    bool
	}{
		{
			name:      "missing dbset",
			err:       &validate.MissingDbSetError{ClassName: "Zone", Context: "InventoryContext"},
			wantID:    "MV01",
			wantTable: "Zone",
			wantOK:    true,
		},
		{
			name:      "missing key",
			err:       &validate.MissingPrimaryKeyError{ClassName: "Device"},
			wantID:    "MV02",
			wantTable: "Device",
			wantOK:    true,
		},
		{
			name: "set naming",
			err: &validate.SetNamingError{
				Set:      model.DbSet{TypeName: "Device", VariableName: "Device"},
				Expected: "Devices",
			},
			wantID:    "MV03",
			wantTable: "Device",
			wantOK:    true,
		},
		{
			name:   "rules file step",
			err:    &rules.RuleError{RuleID: "UR01", File: "rules.star", Message: "no audit column"},
			wantID: "UR01",
			wantOK: true,
		},
		{
			name:      "wrapped validation error",
			err:       fmt.Errorf("scan: %w", &validate.MissingPrimaryKeyError{ClassName: "Device"}),
			wantID:    "MV02",
			wantTable: "Device",
			wantOK:    true,
		},
		{
			name:   "unrelated error",
			err:    errors.New("boom"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, table, ok := diagnosticFor(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
				assert.Equal(t, tt.wantTable, table)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	steps, err := validate.StepsFor(nil)
	require.NoError(t, err)

	out, ok := buildValidateOutput(steps, nil)
	require.True(t, ok)

	tr := testutil.NewTestRendererText()
	validateText(tr.Renderer, out)

	got := tr.Output()
	assert.Contains(t, got, "MV01 dbset-coverage")
	assert.Contains(t, got, "MV02 key-presence")
	assert.Contains(t, got, "Model is valid")
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "success", statusIcon("passed"))
	assert.Equal(t, "failed", statusIcon("failed"))
	assert.Equal(t, "skipped", statusIcon("skipped"))
}

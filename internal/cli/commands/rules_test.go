package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/cli/testutil"
)

func TestRulesCommand_Execute(t *testing.T) {
	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	// A buffer is not a TTY, so auto mode resolves to markdown.
	got := buf.String()
	assert.Contains(t, got, "# Validation Steps")
	assert.Contains(t, got, "- **MV01** dbset-coverage (builtin)")
	assert.Contains(t, got, "- **MV02** key-presence (builtin)")
}

func TestRulesText(t *testing.T) {
	out := output.RulesOutput{
		Rules: []output.RuleInfo{
			{ID: "MV01", Name: "dbset-coverage", Description: "every record type must appear as a DbSet on the context", Source: "builtin"},
			{ID: "UR01", Name: "audit-columns", Description: "tables must carry audit columns", Source: "rules.star"},
		},
	}

	tr := testutil.NewTestRendererText()
	require.NoError(t, rulesText(tr.Renderer, out))

	got := tr.Output()
	assert.Contains(t, got, "Validation Steps (2)")
	assert.Contains(t, got, "MV01")
	assert.Contains(t, got, "(builtin)")
	assert.Contains(t, got, "UR01")
	assert.Contains(t, got, "(rules.star)")
	assert.Contains(t, got, "tables must carry audit columns")
}

func TestRulesMarkdown(t *testing.T) {
	out := output.RulesOutput{
		Rules: []output.RuleInfo{
			{ID: "MV02", Name: "key-presence", Description: "every record type must have a primary-key field", Source: "builtin"},
		},
	}

	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, rulesMarkdown(tr.Renderer, out))

	got := tr.Output()
	assert.Contains(t, got, "# Validation Steps")
	assert.Contains(t, got, "- **MV02** key-presence (builtin): every record type must have a primary-key field")
	testutil.AssertNoANSI(t, got)
}

func TestRulesCommand_JSON(t *testing.T) {
	out := output.RulesOutput{
		Rules: []output.RuleInfo{
			{ID: "MV01", Name: "dbset-coverage", Description: "d", Source: "builtin"},
			{ID: "MV02", Name: "key-presence", Description: "d", Source: "builtin"},
		},
	}

	tr := testutil.NewTestRendererJSON()
	require.NoError(t, tr.JSON(out))

	var got output.RulesOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	require.Len(t, got.Rules, 2)
	assert.Equal(t, "MV01", got.Rules[0].ID)
}

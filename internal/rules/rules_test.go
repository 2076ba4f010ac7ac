package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/efscan/pkg/model"
)

func writeRules(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testModel() *model.Model {
	device := &model.TableObject{
		ClassName: "Device",
		KeyName:   "Device_id",
		FileName:  "Device.cs",
		Fields: []*model.Field{
			{TypeName: "Guid", VariableName: "Device_id", Attributes: []string{"Key"}},
			{TypeName: "string", VariableName: "SerialNumber", Attributes: []string{"Required"}},
			{TypeName: "DateTime", VariableName: "CreatedAt"},
		},
	}
	group := &model.TableObject{
		ClassName: "DeviceGroup",
		KeyName:   "DeviceGroup_id",
		FileName:  "DeviceGroup.cs",
		Fields: []*model.Field{
			{TypeName: "Guid", VariableName: "DeviceGroup_id", Attributes: []string{"Key"}},
			{TypeName: "ICollection<Device>", VariableName: "Devices"},
		},
	}
	group.Dependants = []model.Dependant{{Dependant: device, FK: device.Fields[0], Getter: group.Fields[1]}}

	return &model.Model{
		Namespace: "Inventory.Models",
		Context: &model.DatabaseContext{
			ClassName: "InventoryContext",
			Tables: []model.DbSet{
				{TypeName: "Device", VariableName: "Devices"},
				{TypeName: "DeviceGroup", VariableName: "DeviceGroups"},
			},
		},
		Objects: []*model.TableObject{device, group},
	}
}

func TestLoad_File(t *testing.T) {
	path := writeRules(t, t.TempDir(), "naming.star", `
def check_key_suffix(model):
    for table in model.tables:
        if not table.key.endswith("_id"):
            fail("table %s key %s does not end with _id" % (table.class_name, table.key))

rules = [
    {"id": "UR01", "name": "key-suffix", "check": check_key_suffix},
]
`)

	steps, err := Load(path)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	assert.Equal(t, "UR01", steps[0].ID)
	assert.Equal(t, "key-suffix", steps[0].Name)
	assert.Equal(t, "naming.star", steps[0].Source)

	assert.NoError(t, steps[0].Run(testModel()))
}

func TestLoad_CheckFails(t *testing.T) {
	path := writeRules(t, t.TempDir(), "audit.star", `
def check_updated_at(model):
    for table in model.tables:
        names = [f.name for f in table.fields]
        if "UpdatedAt" not in names:
            fail("table %s has no UpdatedAt field" % table.class_name)

rules = [{"id": "UR02", "name": "updated-at", "check": check_updated_at}]
`)

	steps, err := Load(path)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	err = steps[0].Run(testModel())
	require.Error(t, err)

	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "UR02", ruleErr.RuleID)
	assert.Equal(t, "audit.star", ruleErr.File)
	assert.Contains(t, ruleErr.Message, "Device has no UpdatedAt field")
}

func TestLoad_ModelShape(t *testing.T) {
	// The check cross-references every surface the conversion exposes and
	// fails loudly on the first mismatch.
	path := writeRules(t, t.TempDir(), "shape.star", `
def check_shape(model):
    if model.namespace != "Inventory.Models":
        fail("namespace: %s" % model.namespace)
    if model.context.class_name != "InventoryContext":
        fail("context: %s" % model.context.class_name)
    if [s.variable_name for s in model.context.sets] != ["Devices", "DeviceGroups"]:
        fail("sets mismatch")
    if [t.class_name for t in model.tables] != ["Device", "DeviceGroup"]:
        fail("tables mismatch")

    device = model.tables[0]
    if device.key != "Device_id":
        fail("key: %s" % device.key)
    if device.file != "Device.cs":
        fail("file: %s" % device.file)
    serial = device.fields[1]
    if serial.name != "SerialNumber" or serial.type != "string":
        fail("field mismatch")
    if "Required" not in serial.attributes:
        fail("attributes mismatch")

    group = model.tables[1]
    if group.getters != ["Devices"]:
        fail("getters: %s" % group.getters)
    if group.dependants != ["Device"]:
        fail("dependants: %s" % group.dependants)

rules = [{"id": "UR03", "name": "shape", "check": check_shape}]
`)

	steps, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, steps[0].Run(testModel()))
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "b_second.star", `
def noop(model):
    pass

rules = [{"id": "UR20", "name": "second", "check": noop}]
`)
	writeRules(t, dir, "a_first.star", `
def noop(model):
    pass

rules = [
    {"id": "UR10", "name": "first", "check": noop},
    {"id": "UR11", "name": "also-first", "check": noop},
]
`)
	// Non-star files are ignored.
	writeRules(t, dir, "README.md", "not a rules file")

	steps, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, []string{"UR10", "UR11", "UR20"}, []string{steps[0].ID, steps[1].ID, steps[2].ID})
	assert.Equal(t, "a_first.star", steps[0].Source)
	assert.Equal(t, "b_second.star", steps[2].Source)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"no rules global", `x = 1`, "no top-level `rules` list"},
		{"rules not a list", `rules = "nope"`, "must be a list"},
		{"entry not a dict", `rules = [42]`, "must be a dict"},
		{"missing id", `rules = [{"name": "n", "check": len}]`, "missing `id`"},
		{"missing check", `rules = [{"id": "X", "name": "n"}]`, "missing `check`"},
		{"check not callable", `rules = [{"id": "X", "name": "n", "check": "nope"}]`, "must be callable"},
		{"syntax error", `def broken(`, "Starlark execution error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, dir, "bad.star", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.star"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

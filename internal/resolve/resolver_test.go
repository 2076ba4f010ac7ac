package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/efscan/pkg/model"
)

func newTable(className string, fields ...*model.Field) *model.TableObject {
	return &model.TableObject{ClassName: className, KeyName: className + "_id", Fields: fields}
}

func TestResolveGeneralConvention(t *testing.T) {
	device := newTable("Device",
		&model.Field{TypeName: "int", VariableName: "Device_id"},
		&model.Field{TypeName: "int", VariableName: "DeviceGroup_id"},
	)
	group := newTable("DeviceGroup",
		&model.Field{TypeName: "int", VariableName: "DeviceGroup_id"},
		&model.Field{TypeName: "ICollection<Device>", VariableName: "Devices"},
	)
	m := &model.Model{Objects: []*model.TableObject{device, group}}

	require.NoError(t, Resolve(m))

	assert.Empty(t, device.Dependants)
	require.Len(t, group.Dependants, 1)

	dep := group.Dependants[0]
	assert.Same(t, device, dep.Dependant)
	assert.Equal(t, "DeviceGroup_id", dep.FK.VariableName)
	assert.Same(t, device.Fields[1], dep.FK)
	assert.Same(t, group.Fields[1], dep.Getter)
}

func TestResolveSelfReferential(t *testing.T) {
	device := newTable("Device",
		&model.Field{TypeName: "int", VariableName: "Device_id"},
		&model.Field{TypeName: "int", VariableName: "parent_Device_id", AllowsNull: true},
		&model.Field{TypeName: "ICollection<Device>", VariableName: "Children"},
	)
	m := &model.Model{Objects: []*model.TableObject{device}}

	require.NoError(t, Resolve(m))

	require.Len(t, device.Dependants, 1)
	dep := device.Dependants[0]
	assert.Same(t, device, dep.Dependant)
	assert.Equal(t, "parent_Device_id", dep.FK.VariableName)
}

func TestResolveSelfReferentialMissingFK(t *testing.T) {
	// Without the parent_<Type>_id field the self-referential rule has
	// nothing to bind to; the plain <Type>_id key does not satisfy it.
	device := newTable("Device",
		&model.Field{TypeName: "int", VariableName: "Device_id"},
		&model.Field{TypeName: "ICollection<Device>", VariableName: "Children"},
	)
	m := &model.Model{Objects: []*model.TableObject{device}}

	err := Resolve(m)
	require.Error(t, err)

	var fkErr *ForeignKeyNotFoundError
	require.ErrorAs(t, err, &fkErr)
	assert.Equal(t, "parent_Device_id", fkErr.Expected)
	assert.Equal(t, "Device", fkErr.Owner)
	assert.Equal(t, "Device", fkErr.Dependant)

	var lookupErr *model.FieldLookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Contains(t, lookupErr.Reason, "Device.Children")
}

func TestResolveUnknownDependantType(t *testing.T) {
	group := newTable("DeviceGroup",
		&model.Field{TypeName: "int", VariableName: "DeviceGroup_id"},
		&model.Field{TypeName: "ICollection<Device>", VariableName: "Devices"},
	)
	m := &model.Model{Objects: []*model.TableObject{group}}

	err := Resolve(m)
	require.Error(t, err)

	var unknownErr *UnknownDependantTypeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "DeviceGroup", unknownErr.Owner)
	assert.Equal(t, "Devices", unknownErr.Getter)
	assert.Equal(t, "Device", unknownErr.TypeName)
}

func TestResolveMissingForeignKey(t *testing.T) {
	device := newTable("Device",
		&model.Field{TypeName: "int", VariableName: "Device_id"},
	)
	group := newTable("DeviceGroup",
		&model.Field{TypeName: "int", VariableName: "DeviceGroup_id"},
		&model.Field{TypeName: "ICollection<Device>", VariableName: "Devices"},
	)
	m := &model.Model{Objects: []*model.TableObject{device, group}}

	err := Resolve(m)
	require.Error(t, err)

	var fkErr *ForeignKeyNotFoundError
	require.ErrorAs(t, err, &fkErr)
	assert.Equal(t, "DeviceGroup_id", fkErr.Expected)
}

func TestResolveDependantOrderFollowsFieldOrder(t *testing.T) {
	device := newTable("Device",
		&model.Field{TypeName: "int", VariableName: "Device_id"},
		&model.Field{TypeName: "int", VariableName: "Hub_id"},
	)
	event := newTable("Event",
		&model.Field{TypeName: "int", VariableName: "Event_id"},
		&model.Field{TypeName: "int", VariableName: "Hub_id"},
	)
	hub := newTable("Hub",
		&model.Field{TypeName: "int", VariableName: "Hub_id"},
		&model.Field{TypeName: "ICollection<Event>", VariableName: "Events"},
		&model.Field{TypeName: "ICollection<Device>", VariableName: "Devices"},
	)
	m := &model.Model{Objects: []*model.TableObject{device, event, hub}}

	require.NoError(t, Resolve(m))

	require.Len(t, hub.Dependants, 2)
	assert.Equal(t, "Event", hub.Dependants[0].Dependant.ClassName)
	assert.Equal(t, "Device", hub.Dependants[1].Dependant.ClassName)
}

func TestExpectedFK(t *testing.T) {
	owner := &model.TableObject{ClassName: "Device"}
	other := &model.TableObject{ClassName: "Event"}

	tests := []struct {
		name      string
		owner     *model.TableObject
		dependant *model.TableObject
		want      string
	}{
		{name: "general", owner: owner, dependant: other, want: "Device_id"},
		{name: "self-referential", owner: owner, dependant: owner, want: "parent_Device_id"},
		{name: "same class name different instance is general", owner: owner, dependant: &model.TableObject{ClassName: "Device"}, want: "Device_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedFK(tt.owner, tt.dependant))
		})
	}
}

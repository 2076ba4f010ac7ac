package rules

import (
	"github.com/leapstack-labs/efscan/pkg/model"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ModelValue converts a model into the Starlark value handed to check
// functions:
//
//	model.namespace              string
//	model.context.class_name     string
//	model.context.sets           list of {variable_name, type_name}
//	model.tables                 list of table structs
//	table.class_name             string
//	table.key                    string
//	table.file                   string
//	table.fields                 list of {name, type, nullable, attributes}
//	table.getters                list of collection property names
//	table.dependants             list of dependant class names
func ModelValue(m *model.Model) starlark.Value {
	tables := make([]starlark.Value, 0, len(m.Objects))
	for _, obj := range m.Objects {
		tables = append(tables, tableValue(obj))
	}

	return starlarkstruct.FromStringDict(starlark.String("model"), starlark.StringDict{
		"namespace": starlark.String(m.Namespace),
		"context":   contextValue(m.Context),
		"tables":    starlark.NewList(tables),
	})
}

func contextValue(c *model.DatabaseContext) starlark.Value {
	if c == nil {
		return starlark.None
	}
	sets := make([]starlark.Value, 0, len(c.Tables))
	for _, set := range c.Tables {
		sets = append(sets, starlarkstruct.FromStringDict(starlark.String("set"), starlark.StringDict{
			"variable_name": starlark.String(set.VariableName),
			"type_name":     starlark.String(set.TypeName),
		}))
	}
	return starlarkstruct.FromStringDict(starlark.String("context"), starlark.StringDict{
		"class_name": starlark.String(c.ClassName),
		"sets":       starlark.NewList(sets),
	})
}

func tableValue(obj *model.TableObject) starlark.Value {
	fields := make([]starlark.Value, 0, len(obj.Fields))
	var getters []starlark.Value
	for _, f := range obj.Fields {
		if f.IsCollection() {
			getters = append(getters, starlark.String(f.VariableName))
			continue
		}
		fields = append(fields, fieldValue(f))
	}

	dependants := make([]starlark.Value, 0, len(obj.Dependants))
	for _, dep := range obj.Dependants {
		dependants = append(dependants, starlark.String(dep.Dependant.ClassName))
	}

	return starlarkstruct.FromStringDict(starlark.String("table"), starlark.StringDict{
		"class_name": starlark.String(obj.ClassName),
		"key":        starlark.String(obj.KeyName),
		"file":       starlark.String(obj.FileName),
		"fields":     starlark.NewList(fields),
		"getters":    starlark.NewList(getters),
		"dependants": starlark.NewList(dependants),
	})
}

func fieldValue(f *model.Field) starlark.Value {
	attrs := make([]starlark.Value, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		attrs = append(attrs, starlark.String(a))
	}
	return starlarkstruct.FromStringDict(starlark.String("field"), starlark.StringDict{
		"name":       starlark.String(f.VariableName),
		"type":       starlark.String(f.TypeName),
		"nullable":   starlark.Bool(f.AllowsNull),
		"attributes": starlark.NewList(attrs),
	})
}

// Package export builds a serializable manifest of an extracted model.
// The manifest is the external contract for everything that consumes the
// model outside this process: the export command, the HTTP API, and any
// downstream tooling reading the YAML or JSON form.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/efscan/pkg/model"
	"gopkg.in/yaml.v3"
)

// Manifest is the complete extracted model in serializable form.
type Manifest struct {
	Namespace     string         `json:"namespace" yaml:"namespace"`
	Context       Context        `json:"context" yaml:"context"`
	Tables        []Table        `json:"tables" yaml:"tables"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// Context describes the database context class and its declared sets.
type Context struct {
	ClassName string `json:"class_name" yaml:"class_name"`
	Sets      []Set  `json:"sets" yaml:"sets"`
}

// Set is one declared DbSet.
type Set struct {
	VariableName string `json:"variable_name" yaml:"variable_name"`
	TypeName     string `json:"type_name" yaml:"type_name"`
}

// Table describes one record type.
type Table struct {
	ClassName string  `json:"class_name" yaml:"class_name"`
	Key       string  `json:"key" yaml:"key"`
	File      string  `json:"file" yaml:"file"`
	Fields    []Field `json:"fields" yaml:"fields"`
}

// Field describes one column of a table. Collection properties are not
// fields; they surface as relationships instead.
type Field struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Nullable   bool     `json:"nullable" yaml:"nullable"`
	IsKey      bool     `json:"is_key,omitempty" yaml:"is_key,omitempty"`
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Relationship is one inferred one-to-many edge.
type Relationship struct {
	Parent     string `json:"parent" yaml:"parent"`
	Child      string `json:"child" yaml:"child"`
	ForeignKey string `json:"foreign_key" yaml:"foreign_key"`
	Getter     string `json:"getter" yaml:"getter"`
}

// FromModel converts a model into its manifest.
func FromModel(m *model.Model) *Manifest {
	man := &Manifest{
		Namespace: m.Namespace,
		Context: Context{
			ClassName: m.Context.ClassName,
			Sets:      make([]Set, 0, len(m.Context.Tables)),
		},
		Tables:        make([]Table, 0, len(m.Objects)),
		Relationships: []Relationship{},
	}

	for _, set := range m.Context.Tables {
		man.Context.Sets = append(man.Context.Sets, Set{
			VariableName: set.VariableName,
			TypeName:     set.TypeName,
		})
	}

	for _, obj := range m.Objects {
		table := Table{
			ClassName: obj.ClassName,
			Key:       obj.KeyName,
			File:      obj.FileName,
			Fields:    make([]Field, 0, len(obj.Fields)),
		}
		for _, f := range obj.Fields {
			if f.IsCollection() {
				continue
			}
			table.Fields = append(table.Fields, Field{
				Name:       f.VariableName,
				Type:       f.TypeName,
				Nullable:   f.AllowsNull,
				IsKey:      f.VariableName == obj.KeyName,
				Attributes: f.Attributes,
			})
		}
		man.Tables = append(man.Tables, table)

		for _, dep := range obj.Dependants {
			man.Relationships = append(man.Relationships, Relationship{
				Parent:     obj.ClassName,
				Child:      dep.Dependant.ClassName,
				ForeignKey: dep.FK.VariableName,
				Getter:     dep.Getter.VariableName,
			})
		}
	}

	return man
}

// Write serializes the manifest to w in the given format ("yaml" or "json").
func (m *Manifest) Write(w io.Writer, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	default:
		return fmt.Errorf("unsupported export format %q (want yaml or json)", format)
	}
}

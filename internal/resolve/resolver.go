// Package resolve infers one-to-many relationships between the record types
// of an assembled model. The scanned sources declare no relationships: a
// collection property on the owner plus a conventionally named foreign-key
// field on the element type is the entire contract. The convention is the
// naming-rule table in this package.
package resolve

import (
	"fmt"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// Resolve walks every record type's collection fields and records one
// Dependant on the owner per collection. It runs once, after extraction of
// all files has completed, and is the last writer of the model; afterwards
// the model is read-only.
//
// Processing order is deterministic: objects in extraction order, fields in
// declaration order. Each (owner, field) pair yields at most one Dependant.
func Resolve(m *model.Model) error {
	for _, owner := range m.Objects {
		for _, f := range owner.Fields {
			elem, ok := f.CollectionElem()
			if !ok {
				continue
			}

			dependant, ok := m.ObjectByName(elem)
			if !ok {
				return &UnknownDependantTypeError{
					Owner:    owner.ClassName,
					Getter:   f.VariableName,
					TypeName: elem,
				}
			}

			fkName := ExpectedFK(owner, dependant)
			fk, err := dependant.LookupField(fkName, fmt.Sprintf("resolving foreign key for %s.%s", owner.ClassName, f.VariableName))
			if err != nil {
				return &ForeignKeyNotFoundError{
					Owner:     owner.ClassName,
					Dependant: dependant.ClassName,
					Getter:    f.VariableName,
					Expected:  fkName,
					Err:       err,
				}
			}

			owner.Dependants = append(owner.Dependants, model.Dependant{
				Dependant: dependant,
				FK:        fk,
				Getter:    f,
			})
		}
	}

	return nil
}

package validate

import (
	"fmt"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// Built-in step identifiers.
const (
	DbSetCoverageID = "MV01"
	KeyPresenceID   = "MV02"
	SetNamingID     = "MV03"
)

// StepsFor maps configured identifiers to built-in steps, preserving the
// configured order. An empty list selects DefaultSteps.
func StepsFor(ids []string) ([]Step, error) {
	if len(ids) == 0 {
		return DefaultSteps(), nil
	}
	known := map[string]func() Step{
		DbSetCoverageID: dbSetCoverageStep,
		KeyPresenceID:   keyPresenceStep,
		SetNamingID:     StrictNamingStep,
	}
	steps := make([]Step, 0, len(ids))
	for _, id := range ids {
		mk, ok := known[id]
		if !ok {
			return nil, fmt.Errorf("unknown validation step %q", id)
		}
		steps = append(steps, mk())
	}
	return steps, nil
}

// dbSetCoverageStep checks that every record type is reachable through a
// DbSet on the context.
func dbSetCoverageStep() Step {
	return Step{
		ID:          DbSetCoverageID,
		Name:        "dbset-coverage",
		Description: "every record type must appear as a DbSet on the context",
		Source:      "builtin",
		Run: func(m *model.Model) error {
			for _, obj := range m.Objects {
				if _, ok := m.Context.SetForType(obj.ClassName); !ok {
					return &MissingDbSetError{ClassName: obj.ClassName, Context: m.Context.ClassName}
				}
			}
			return nil
		},
	}
}

// keyPresenceStep checks that every record type's key names an existing
// field. A type without any Key attribute has an empty key name and fails
// the same way.
func keyPresenceStep() Step {
	return Step{
		ID:          KeyPresenceID,
		Name:        "key-presence",
		Description: "every record type must have a primary-key field",
		Source:      "builtin",
		Run: func(m *model.Model) error {
			for _, obj := range m.Objects {
				if _, ok := obj.KeyField(); !ok {
					return &MissingPrimaryKeyError{ClassName: obj.ClassName, KeyName: obj.KeyName}
				}
			}
			return nil
		},
	}
}

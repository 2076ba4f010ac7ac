package validate

import (
	"github.com/go-openapi/inflect"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// StrictNamingStep returns the optional naming check: every DbSet variable
// name must be the plural of its element type, the way the scaffolder names
// them. Enabled through configuration and appended after the defaults.
func StrictNamingStep() Step {
	return Step{
		ID:          SetNamingID,
		Name:        "dbset-naming",
		Description: "DbSet variable names must pluralize their element type",
		Source:      "builtin",
		Run: func(m *model.Model) error {
			if issues := NamingIssues(m); len(issues) > 0 {
				return &issues[0]
			}
			return nil
		},
	}
}

// NamingIssues returns every DbSet whose variable name is not the plural of
// its element type, in declaration order. The doctor command reports the
// full list as advisories; StrictNamingStep fails on the first.
func NamingIssues(m *model.Model) []SetNamingError {
	var issues []SetNamingError
	for _, set := range m.Context.Tables {
		want := inflect.Pluralize(set.TypeName)
		if set.VariableName != want {
			issues = append(issues, SetNamingError{Set: set, Expected: want})
		}
	}
	return issues
}

package validate

import (
	"fmt"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// MissingDbSetError reports a record type the context does not expose
// through any DbSet.
type MissingDbSetError struct {
	ClassName string
	Context   string
}

func (e *MissingDbSetError) Error() string {
	return fmt.Sprintf("record type %s has no DbSet on context %s", e.ClassName, e.Context)
}

// MissingPrimaryKeyError reports a record type whose key name does not
// resolve to an existing field.
type MissingPrimaryKeyError struct {
	ClassName string
	KeyName   string
}

func (e *MissingPrimaryKeyError) Error() string {
	if e.KeyName == "" {
		return fmt.Sprintf("record type %s declares no Key field", e.ClassName)
	}
	return fmt.Sprintf("record type %s: key field %q does not exist", e.ClassName, e.KeyName)
}

// SetNamingError reports a DbSet whose variable name is not the plural of
// its element type.
type SetNamingError struct {
	Set      model.DbSet
	Expected string
}

func (e *SetNamingError) Error() string {
	return fmt.Sprintf("DbSet %s for type %s should be named %s", e.Set.VariableName, e.Set.TypeName, e.Expected)
}

package model

import "fmt"

// FieldLookupError reports a failed field lookup on a record type. Reason
// describes why the field was being looked up (key resolution, foreign-key
// resolution) so the failure is diagnosable on its own.
type FieldLookupError struct {
	ClassName string
	FieldName string
	Reason    string
}

func (e *FieldLookupError) Error() string {
	return fmt.Sprintf("field %q not found on %s (%s)", e.FieldName, e.ClassName, e.Reason)
}

package resolve

import "fmt"

// UnknownDependantTypeError reports a collection property whose element
// type does not resolve to any record type in the model.
type UnknownDependantTypeError struct {
	Owner    string
	Getter   string
	TypeName string
}

func (e *UnknownDependantTypeError) Error() string {
	return fmt.Sprintf("%s.%s: collection element type %s is not a known record type", e.Owner, e.Getter, e.TypeName)
}

// ForeignKeyNotFoundError reports a naming-convention violation: the
// dependant type lacks the foreign-key field the convention expects for a
// collection on the owner.
type ForeignKeyNotFoundError struct {
	Owner     string
	Dependant string
	Getter    string
	Expected  string
	Err       error
}

func (e *ForeignKeyNotFoundError) Error() string {
	return fmt.Sprintf("%s.%s: dependant %s has no foreign-key field %q", e.Owner, e.Getter, e.Dependant, e.Expected)
}

func (e *ForeignKeyNotFoundError) Unwrap() error { return e.Err }

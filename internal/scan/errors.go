package scan

import (
	"errors"
	"fmt"
)

// errNotDirectory distinguishes a root path that exists but is a plain file.
var errNotDirectory = errors.New("not a directory")

// PathError reports an unusable model directory root, detected before any
// file is read.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("model directory %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// DuplicateContextError reports a second file matching the context
// signature. At most one database context may exist per model directory.
type DuplicateContextError struct {
	First  string
	Second string
}

func (e *DuplicateContextError) Error() string {
	return fmt.Sprintf("duplicate database context in %s: context already declared by %s", e.Second, e.First)
}

// MissingNamespaceError reports a context file that does not declare
// exactly one namespace.
type MissingNamespaceError struct {
	File  string
	Count int
}

func (e *MissingNamespaceError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("%s: no namespace declaration found", e.File)
	}
	return fmt.Sprintf("%s: %d namespace declarations found, want exactly one", e.File, e.Count)
}

// EmptyRecordError reports a record file that yielded no fields.
type EmptyRecordError struct {
	File      string
	ClassName string
}

func (e *EmptyRecordError) Error() string {
	return fmt.Sprintf("%s: record type %s declares no fields", e.File, e.ClassName)
}

// MissingContextError reports a scanned directory that contained record
// files but no context file.
type MissingContextError struct{}

func (e *MissingContextError) Error() string {
	return "no database context class found"
}

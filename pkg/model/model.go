// Package model defines the in-memory representation of a scanned database
// model: the context class with its declared table collections, the record
// types with their fields and attributes, and the relationships inferred
// between record types.
//
// Values in this package are assembled by internal/scan, finalized by
// internal/resolve, and treated as read-only by everything downstream.
package model

import "regexp"

// collectionPattern matches a one-to-many collection property type and
// captures the element type name.
var collectionPattern = regexp.MustCompile(`^ICollection<(\w+)>$`)

// DbSet is a named, typed collection declared on the database context.
// Each DbSet corresponds to one table managed by the context.
type DbSet struct {
	// TypeName is the record type the collection holds.
	TypeName string
	// VariableName is the property name the collection is exposed under.
	VariableName string
}

// DatabaseContext is the aggregate root declared by the context file.
type DatabaseContext struct {
	// ClassName is the name of the context class.
	ClassName string
	// Tables lists the declared DbSets in order of appearance. Duplicate
	// variable names are kept exactly as declared.
	Tables []DbSet
}

// TableNames returns the DbSet variable names in declaration order.
func (c *DatabaseContext) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for _, t := range c.Tables {
		names = append(names, t.VariableName)
	}
	return names
}

// SetForType returns the first DbSet whose TypeName matches.
func (c *DatabaseContext) SetForType(typeName string) (DbSet, bool) {
	for _, t := range c.Tables {
		if t.TypeName == typeName {
			return t, true
		}
	}
	return DbSet{}, false
}

// Field is a single declared property of a record type.
type Field struct {
	// TypeName is the declared type with any trailing nullability marker
	// already stripped.
	TypeName string
	// VariableName is the property name.
	VariableName string
	// Attributes holds the annotation tokens that immediately preceded the
	// declaration, in appearance order.
	Attributes []string
	// AllowsNull reports whether the column may hold NULL. Derived during
	// extraction: a trailing '?' on the declared type, or a string property
	// without a Required attribute.
	AllowsNull bool
}

// HasAttribute reports whether the field carries the named annotation token.
func (f *Field) HasAttribute(name string) bool {
	for _, a := range f.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// CollectionElem returns the element type name if the field is a
// one-to-many collection property (ICollection<T>).
func (f *Field) CollectionElem() (string, bool) {
	m := collectionPattern.FindStringSubmatch(f.TypeName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCollection reports whether the field is a collection property.
func (f *Field) IsCollection() bool {
	_, ok := f.CollectionElem()
	return ok
}

// Dependant records an inferred one-to-many relationship: the owning
// TableObject is a parent of Dependant, joined through Dependant's
// foreign-key field FK and exposed on the owner through the collection
// field Getter. All three references alias entities owned by the Model.
type Dependant struct {
	Dependant *TableObject
	FK        *Field
	Getter    *Field
}

// TableObject is the in-memory representation of one record type.
type TableObject struct {
	// ClassName is the record type name; unique within a Model.
	ClassName string
	// KeyName names the primary-key field. When several fields carry a Key
	// attribute the last one wins; validation checks the field exists.
	KeyName string
	// FileName is the source file the type was extracted from.
	FileName string
	// Fields are the declared properties in order of appearance.
	Fields []*Field
	// Dependants are the relationships inferred for this type as parent.
	Dependants []Dependant
}

// FieldByName returns the field with the given variable name.
func (t *TableObject) FieldByName(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.VariableName == name {
			return f, true
		}
	}
	return nil, false
}

// HasField reports whether a field with the given variable name exists.
func (t *TableObject) HasField(name string) bool {
	_, ok := t.FieldByName(name)
	return ok
}

// LookupField returns the named field or a FieldLookupError carrying the
// reason the field was needed. Callers that only probe for existence should
// use FieldByName or HasField instead.
func (t *TableObject) LookupField(name, reason string) (*Field, error) {
	f, ok := t.FieldByName(name)
	if !ok {
		return nil, &FieldLookupError{ClassName: t.ClassName, FieldName: name, Reason: reason}
	}
	return f, nil
}

// KeyField returns the primary-key field if KeyName names an existing field.
func (t *TableObject) KeyField() (*Field, bool) {
	if t.KeyName == "" {
		return nil, false
	}
	return t.FieldByName(t.KeyName)
}

// Model is the root of the extracted data model. It owns every TableObject
// and the DatabaseContext; Dependant and DbSet values only reference into
// its collections.
type Model struct {
	// Namespace is the single namespace declared by the context file.
	Namespace string
	// Context is the database context; exactly one per model once built.
	Context *DatabaseContext
	// Objects are the record types in extraction order.
	Objects []*TableObject
}

// ObjectByName returns the record type with the given class name.
func (m *Model) ObjectByName(name string) (*TableObject, bool) {
	for _, o := range m.Objects {
		if o.ClassName == name {
			return o, true
		}
	}
	return nil, false
}

// ObjectNames returns the class names of all record types in order.
func (m *Model) ObjectNames() []string {
	names := make([]string, 0, len(m.Objects))
	for _, o := range m.Objects {
		names = append(names, o.ClassName)
	}
	return names
}

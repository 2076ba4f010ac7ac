// Package ddl renders an extracted model as CREATE TABLE statements.
//
// Tables are emitted in FK-safe topological order, so the script replays
// cleanly against an empty schema. Foreign keys land on the child table;
// self-references point back at the table being created, which every
// supported dialect accepts.
package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/efscan/internal/depgraph"
	"github.com/leapstack-labs/efscan/pkg/model"
)

// Options configures DDL generation.
type Options struct {
	// Dialect selects the type vocabulary: "postgres" (default) or "duckdb".
	Dialect string
}

// lengthPattern captures the limit of a StringLength or MaxLength attribute.
var lengthPattern = regexp.MustCompile(`^(?:StringLength|MaxLength)\s*\(\s*(\d+)`)

// fkRef is one incoming foreign key of a table.
type fkRef struct {
	column      string
	parentTable string
	parentKey   string
}

// Generate returns the full DDL script for the model.
func Generate(m *model.Model, opts Options) (string, error) {
	stmts, err := Statements(m, opts)
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, "\n\n") + "\n", nil
}

// Statements returns one CREATE TABLE statement per record type, in
// creation order.
func Statements(m *model.Model, opts Options) ([]string, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = "postgres"
	}
	if dialect != "postgres" && dialect != "duckdb" {
		return nil, fmt.Errorf("unsupported dialect %q (want postgres or duckdb)", dialect)
	}

	graph := depgraph.FromModel(m)
	sorted, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	// Collect incoming foreign keys per child table.
	incoming := make(map[string][]fkRef)
	for _, obj := range m.Objects {
		for _, dep := range obj.Dependants {
			if obj.KeyName == "" {
				return nil, fmt.Errorf("table %s has no primary key; cannot reference it from %s",
					obj.ClassName, dep.Dependant.ClassName)
			}
			incoming[dep.Dependant.ClassName] = append(incoming[dep.Dependant.ClassName], fkRef{
				column:      dep.FK.VariableName,
				parentTable: obj.ClassName,
				parentKey:   obj.KeyName,
			})
		}
	}

	stmts := make([]string, 0, len(sorted))
	for _, node := range sorted {
		stmts = append(stmts, createTable(node.Table, incoming[node.Name], dialect))
	}
	return stmts, nil
}

// createTable renders one CREATE TABLE statement.
func createTable(obj *model.TableObject, fks []fkRef, dialect string) string {
	var lines []string

	for _, f := range obj.Fields {
		if f.IsCollection() {
			continue
		}
		line := fmt.Sprintf("    %s %s", quoteIdent(f.VariableName), sqlType(f, dialect))
		if !f.AllowsNull {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}

	if _, ok := obj.KeyField(); ok {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", quoteIdent(obj.KeyName)))
	}

	for _, fk := range fks {
		lines = append(lines, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteIdent(fk.column), quoteIdent(fk.parentTable), quoteIdent(fk.parentKey)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", quoteIdent(obj.ClassName), strings.Join(lines, ",\n"))
}

// sqlType maps a declared property type to a column type.
func sqlType(f *model.Field, dialect string) string {
	if f.TypeName == "string" {
		for _, attr := range f.Attributes {
			if m := lengthPattern.FindStringSubmatch(attr); m != nil {
				return fmt.Sprintf("varchar(%s)", m[1])
			}
		}
		return "text"
	}

	switch f.TypeName {
	case "Guid":
		return "uuid"
	case "int", "Int32":
		return "integer"
	case "long", "Int64":
		return "bigint"
	case "short", "Int16", "byte":
		return "smallint"
	case "bool":
		return "boolean"
	case "decimal":
		return "numeric"
	case "double":
		if dialect == "duckdb" {
			return "double"
		}
		return "double precision"
	case "float":
		return "real"
	case "DateTime":
		return "timestamp"
	case "DateTimeOffset":
		return "timestamptz"
	case "TimeSpan":
		return "interval"
	case "byte[]":
		if dialect == "duckdb" {
			return "blob"
		}
		return "bytea"
	default:
		// Unknown declared types degrade to text rather than failing the
		// whole script.
		return "text"
	}
}

// quoteIdent quotes an identifier when it collides with a reserved word.
func quoteIdent(name string) string {
	if isReservedWord(name) {
		return fmt.Sprintf(`"%s"`, name)
	}
	return name
}

// isReservedWord checks if a name is a common SQL reserved word.
func isReservedWord(name string) bool {
	reserved := map[string]bool{
		"user": true, "order": true, "group": true, "table": true,
		"select": true, "from": true, "where": true, "index": true,
	}
	return reserved[strings.ToLower(name)]
}

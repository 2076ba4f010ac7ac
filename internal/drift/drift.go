// Package drift compares an extracted model against the schema of a live
// database. Tables and columns are looked up through information_schema,
// which both supported engines expose, and names are compared
// case-insensitively because unquoted identifiers fold case on the way in.
package drift

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/efscan/pkg/model"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Config describes the database to verify against.
type Config struct {
	// Driver selects the engine, "postgres" or "duckdb".
	Driver string
	// DSN is the connection string, or a file path for duckdb.
	DSN string
	// Schema to inspect. Empty means "public" for postgres, "main" for duckdb.
	Schema string
	Logger *slog.Logger
}

// Checker runs drift checks against one database connection.
type Checker struct {
	db     *sql.DB
	driver string
	schema string
	logger *slog.Logger
}

// Open connects to the configured database and pings it.
func Open(ctx context.Context, cfg Config) (*Checker, error) {
	driverName, err := sqlDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", cfg.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	c := NewWithDB(db, cfg)
	c.logger.Debug("connected for drift check",
		slog.String("driver", cfg.Driver),
		slog.String("schema", c.schema))
	return c, nil
}

// NewWithDB wraps an existing connection. The caller keeps ownership of db
// unless it also calls Close.
func NewWithDB(db *sql.DB, cfg Config) *Checker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checker{
		db:     db,
		driver: cfg.Driver,
		schema: defaultSchema(cfg),
		logger: logger,
	}
}

func sqlDriver(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "pgx", nil
	case DriverDuckDB:
		return "duckdb", nil
	default:
		return "", fmt.Errorf("unsupported driver %q (want postgres or duckdb)", driver)
	}
}

func defaultSchema(cfg Config) string {
	if cfg.Schema != "" {
		return cfg.Schema
	}
	if cfg.Driver == DriverDuckDB {
		return "main"
	}
	return "public"
}

// Close closes the underlying connection.
func (c *Checker) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Check compares every table of the model against the database and returns
// the accumulated findings. Only query failures surface as errors, drift
// itself is reported through the Report.
func (c *Checker) Check(ctx context.Context, m *model.Model) (*Report, error) {
	report := &Report{Driver: c.driver, Schema: c.schema}

	for _, obj := range m.Objects {
		c.logger.Debug("checking table", slog.String("table", obj.ClassName))

		cols, err := c.tableColumns(ctx, obj.ClassName)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			report.add(Finding{
				Kind:    KindMissingTable,
				Table:   obj.ClassName,
				Message: fmt.Sprintf("table %s not found in schema %s", obj.ClassName, c.schema),
			})
			continue
		}
		report.TablesChecked++

		c.checkColumns(report, obj, cols)

		if err := c.checkPrimaryKey(ctx, report, obj); err != nil {
			return nil, err
		}
	}

	return report, nil
}

type dbColumn struct {
	name     string
	dataType string
	nullable bool
}

func (c *Checker) tableColumns(ctx context.Context, table string) (map[string]dbColumn, error) {
	query := fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = %s AND lower(table_name) = lower(%s)
		ORDER BY ordinal_position
	`, c.placeholder(1), c.placeholder(2))

	rows, err := c.db.QueryContext(ctx, query, c.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]dbColumn)
	for rows.Next() {
		var col dbColumn
		var nullable string
		if err := rows.Scan(&col.name, &col.dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		col.nullable = nullable == "YES"
		cols[strings.ToLower(col.name)] = col
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", table, err)
	}
	return cols, nil
}

func (c *Checker) checkColumns(report *Report, obj *model.TableObject, cols map[string]dbColumn) {
	seen := make(map[string]bool, len(obj.Fields))

	for _, field := range obj.Fields {
		if field.IsCollection() {
			continue
		}
		key := strings.ToLower(field.VariableName)
		seen[key] = true

		col, ok := cols[key]
		if !ok {
			report.add(Finding{
				Kind:    KindMissingColumn,
				Table:   obj.ClassName,
				Column:  field.VariableName,
				Message: fmt.Sprintf("column %s missing from table %s", field.VariableName, obj.ClassName),
			})
			continue
		}
		if col.nullable != field.AllowsNull {
			report.add(Finding{
				Kind:     KindNullability,
				Table:    obj.ClassName,
				Column:   field.VariableName,
				Expected: nullability(field.AllowsNull),
				Actual:   nullability(col.nullable),
				Message: fmt.Sprintf("column %s.%s is %s in the database but %s in the model",
					obj.ClassName, field.VariableName, nullability(col.nullable), nullability(field.AllowsNull)),
			})
		}
	}

	extras := make([]string, 0, len(cols))
	for key, col := range cols {
		if !seen[key] {
			extras = append(extras, col.name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		report.add(Finding{
			Kind:    KindExtraColumn,
			Table:   obj.ClassName,
			Column:  name,
			Message: fmt.Sprintf("column %s exists in table %s but not in the model", name, obj.ClassName),
		})
	}
}

func (c *Checker) checkPrimaryKey(ctx context.Context, report *Report, obj *model.TableObject) error {
	if obj.KeyName == "" {
		return nil
	}

	query := fmt.Sprintf(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = %s AND lower(tc.table_name) = lower(%s)
		ORDER BY kcu.ordinal_position
	`, c.placeholder(1), c.placeholder(2))

	rows, err := c.db.QueryContext(ctx, query, c.schema, obj.ClassName)
	if err != nil {
		return fmt.Errorf("query primary key of %s: %w", obj.ClassName, err)
	}
	defer func() { _ = rows.Close() }()

	var pkCols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan primary key of %s: %w", obj.ClassName, err)
		}
		pkCols = append(pkCols, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate primary key of %s: %w", obj.ClassName, err)
	}

	switch {
	case len(pkCols) == 0:
		report.add(Finding{
			Kind:     KindKeyMismatch,
			Table:    obj.ClassName,
			Column:   obj.KeyName,
			Expected: obj.KeyName,
			Message:  fmt.Sprintf("table %s has no primary key, model expects %s", obj.ClassName, obj.KeyName),
		})
	case len(pkCols) > 1 || !strings.EqualFold(pkCols[0], obj.KeyName):
		actual := strings.Join(pkCols, ", ")
		report.add(Finding{
			Kind:     KindKeyMismatch,
			Table:    obj.ClassName,
			Column:   obj.KeyName,
			Expected: obj.KeyName,
			Actual:   actual,
			Message:  fmt.Sprintf("table %s primary key is %s, model expects %s", obj.ClassName, actual, obj.KeyName),
		})
	}
	return nil
}

func (c *Checker) placeholder(n int) string {
	if c.driver == DriverDuckDB {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func nullability(allowsNull bool) string {
	if allowsNull {
		return "nullable"
	}
	return "not null"
}

package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// SaveSnapshot replaces the persisted model snapshot with the tables and
// relationships of m, attributed to the given scan.
func (s *SQLiteStore) SaveSnapshot(scanID string, m *model.Model) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"snapshot_dependencies", "snapshot_tables", "snapshot_meta"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO snapshot_meta (id, scan_id, namespace, context_class, saved_at)
		 VALUES (1, ?, ?, ?, ?)`,
		scanID, m.Namespace, m.Context.ClassName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot meta: %w", err)
	}

	tableStmt, err := tx.Prepare(
		`INSERT INTO snapshot_tables (class_name, key_name, file_name, field_count)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare table insert: %w", err)
	}
	defer func() { _ = tableStmt.Close() }()

	depStmt, err := tx.Prepare(
		`INSERT INTO snapshot_dependencies (owner, dependant, foreign_key, getter)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare dependency insert: %w", err)
	}
	defer func() { _ = depStmt.Close() }()

	for _, obj := range m.Objects {
		if _, err := tableStmt.Exec(obj.ClassName, obj.KeyName, obj.FileName, len(obj.Fields)); err != nil {
			return fmt.Errorf("insert table %s: %w", obj.ClassName, err)
		}
		for _, dep := range obj.Dependants {
			_, err := depStmt.Exec(obj.ClassName, dep.Dependant.ClassName, dep.FK.VariableName, dep.Getter.VariableName)
			if err != nil {
				return fmt.Errorf("insert dependency %s -> %s: %w", obj.ClassName, dep.Dependant.ClassName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted model snapshot, or nil when no scan
// has been persisted yet.
func (s *SQLiteStore) LoadSnapshot() (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	snap := &Snapshot{}
	err := s.db.QueryRow(
		`SELECT scan_id, namespace, context_class FROM snapshot_meta WHERE id = 1`,
	).Scan(&snap.ScanID, &snap.Namespace, &snap.ContextClass)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot meta: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT class_name, key_name, file_name, field_count
		 FROM snapshot_tables ORDER BY class_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("load snapshot tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := &TableRecord{}
		if err := rows.Scan(&rec.ClassName, &rec.KeyName, &rec.FileName, &rec.FieldCount); err != nil {
			return nil, fmt.Errorf("load snapshot tables: %w", err)
		}
		snap.Tables = append(snap.Tables, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot tables: %w", err)
	}

	depRows, err := s.db.Query(
		`SELECT owner, dependant, foreign_key, getter
		 FROM snapshot_dependencies ORDER BY owner, getter`,
	)
	if err != nil {
		return nil, fmt.Errorf("load snapshot dependencies: %w", err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var rec DependencyRecord
		if err := depRows.Scan(&rec.Owner, &rec.Dependant, &rec.ForeignKey, &rec.Getter); err != nil {
			return nil, fmt.Errorf("load snapshot dependencies: %w", err)
		}
		snap.Dependencies = append(snap.Dependencies, rec)
	}
	if err := depRows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot dependencies: %w", err)
	}

	return snap, nil
}

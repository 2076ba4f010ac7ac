package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database, creating the parent
// directory when needed. Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would get its own empty memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Scan operations ---

// CreateScan records the start of a scan over root.
func (s *SQLiteStore) CreateScan(root string) (*Scan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	scan := &Scan{
		ID:        generateID(),
		Root:      root,
		Status:    ScanStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO scans (id, root, status, started_at) VALUES (?, ?, ?, ?)`,
		scan.ID, scan.Root, scan.Status, scan.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}

	return scan, nil
}

// CompleteScan marks a scan as finished with the given status and totals.
func (s *SQLiteStore) CompleteScan(id string, status ScanStatus, counts ScanCounts, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE scans
		 SET status = ?, completed_at = ?, files_seen = ?, files_changed = ?,
		     table_count = ?, dependency_count = ?, error = ?
		 WHERE id = ?`,
		status, now, counts.FilesSeen, counts.FilesChanged,
		counts.TableCount, counts.DependencyCount, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete scan: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("scan not found: %s", id)
	}

	return nil
}

// GetScan retrieves a scan by ID.
func (s *SQLiteStore) GetScan(id string) (*Scan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, root, status, started_at, completed_at, files_seen,
		        files_changed, table_count, dependency_count, error
		 FROM scans WHERE id = ?`,
		id,
	)

	scan, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return scan, nil
}

// LatestScan retrieves the most recent scan for a root, or nil when the
// root has never been scanned.
func (s *SQLiteStore) LatestScan(root string) (*Scan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, root, status, started_at, completed_at, files_seen,
		        files_changed, table_count, dependency_count, error
		 FROM scans WHERE root = ? ORDER BY started_at DESC, id DESC LIMIT 1`,
		root,
	)

	scan, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}
	return scan, nil
}

// ListScans returns scans newest first, at most limit of them. A limit of
// zero or less means no limit.
func (s *SQLiteStore) ListScans(limit int) ([]*Scan, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, root, status, started_at, completed_at, files_seen,
	                 files_changed, table_count, dependency_count, error
	          FROM scans ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list scans: %w", err)
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row rowScanner) (*Scan, error) {
	scan := &Scan{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&scan.ID, &scan.Root, &scan.Status, &scan.StartedAt, &completedAt,
		&scan.FilesSeen, &scan.FilesChanged, &scan.TableCount,
		&scan.DependencyCount, &errMsg,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		scan.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		scan.Error = errMsg.String
	}
	return scan, nil
}

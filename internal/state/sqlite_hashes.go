package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetContentHash retrieves the content hash for a file path. A file that
// was never tracked yields an empty hash, not an error.
func (s *SQLiteStore) GetContentHash(filePath string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	var hash string
	err := s.db.QueryRow(
		`SELECT content_hash FROM file_hashes WHERE file_path = ?`,
		filePath,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content hash: %w", err)
	}

	return hash, nil
}

// SetContentHash stores the content hash for a file path.
func (s *SQLiteStore) SetContentHash(filePath, hash, fileKind string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO file_hashes (file_path, content_hash, file_kind, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
		     content_hash = excluded.content_hash,
		     file_kind = excluded.file_kind,
		     updated_at = excluded.updated_at`,
		filePath, hash, fileKind, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set content hash: %w", err)
	}
	return nil
}

// DeleteContentHash removes the content hash for a file path.
func (s *SQLiteStore) DeleteContentHash(filePath string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`DELETE FROM file_hashes WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("failed to delete content hash: %w", err)
	}
	return nil
}

// TrackedFiles returns every tracked file path, sorted. The engine uses it
// to drop hashes of files deleted between scans.
func (s *SQLiteStore) TrackedFiles() ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT file_path FROM file_hashes ORDER BY file_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to list tracked files: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

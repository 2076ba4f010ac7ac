// Package state persists scan history, per-file content hashes, and the
// last extracted model snapshot in a SQLite database, usually at
// .efscan/state.db under the scanned directory.
package state

import (
	"time"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// ScanStatus is the lifecycle status of a recorded scan.
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// Scan is one recorded pass over a model directory.
type Scan struct {
	ID          string
	Root        string
	Status      ScanStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	// FilesSeen counts every source file visited by the walk.
	FilesSeen int
	// FilesChanged counts files whose content hash differed from the
	// previous scan.
	FilesChanged    int
	TableCount      int
	DependencyCount int
	Error           string
}

// ScanCounts carries the per-scan totals written on completion.
type ScanCounts struct {
	FilesSeen       int
	FilesChanged    int
	TableCount      int
	DependencyCount int
}

// TableRecord is the persisted summary of one record type.
type TableRecord struct {
	ClassName  string
	KeyName    string
	FileName   string
	FieldCount int
}

// DependencyRecord is one persisted relationship, parent to child.
type DependencyRecord struct {
	Owner      string
	Dependant  string
	ForeignKey string
	Getter     string
}

// Snapshot is the persisted shape of the most recent successful scan.
type Snapshot struct {
	ScanID       string
	Namespace    string
	ContextClass string
	Tables       []*TableRecord
	Dependencies []DependencyRecord
}

// Store is the persistence surface the engine depends on.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error
	MigrationVersion() (int64, error)

	// Scan history
	CreateScan(root string) (*Scan, error)
	CompleteScan(id string, status ScanStatus, counts ScanCounts, errMsg string) error
	GetScan(id string) (*Scan, error)
	LatestScan(root string) (*Scan, error)
	ListScans(limit int) ([]*Scan, error)

	// File hash tracking
	GetContentHash(filePath string) (string, error)
	SetContentHash(filePath, hash, fileKind string) error
	DeleteContentHash(filePath string) error
	TrackedFiles() ([]string, error)

	// Model snapshot
	SaveSnapshot(scanID string, m *model.Model) error
	LoadSnapshot() (*Snapshot, error)
}

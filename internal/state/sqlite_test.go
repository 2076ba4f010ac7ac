package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/efscan/pkg/model"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_OpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".efscan", "state.db")

	store := NewSQLiteStore()
	if err := store.Open(path); err != nil {
		t.Fatalf("failed to open store at %s: %v", path, err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate file-backed store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	tables := []string{"scans", "file_hashes", "snapshot_meta", "snapshot_tables", "snapshot_dependencies"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to read migration version: %v", err)
	}
	if version < 2 {
		t.Errorf("expected migration version >= 2, got %d", version)
	}
}

func TestSQLiteStore_ScanLifecycle(t *testing.T) {
	store := setupTestStore(t)

	scan, err := store.CreateScan("/models/inventory")
	if err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}
	if scan.ID == "" {
		t.Error("scan ID should not be empty")
	}
	if scan.Status != ScanStatusRunning {
		t.Errorf("expected status 'running', got %q", scan.Status)
	}

	counts := ScanCounts{FilesSeen: 4, FilesChanged: 2, TableCount: 3, DependencyCount: 2}
	if err := store.CompleteScan(scan.ID, ScanStatusCompleted, counts, ""); err != nil {
		t.Fatalf("failed to complete scan: %v", err)
	}

	retrieved, err := store.GetScan(scan.ID)
	if err != nil {
		t.Fatalf("failed to get scan: %v", err)
	}
	if retrieved.Status != ScanStatusCompleted {
		t.Errorf("expected status 'completed', got %q", retrieved.Status)
	}
	if retrieved.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if retrieved.FilesSeen != 4 || retrieved.FilesChanged != 2 {
		t.Errorf("unexpected file counts: seen=%d changed=%d", retrieved.FilesSeen, retrieved.FilesChanged)
	}
	if retrieved.TableCount != 3 || retrieved.DependencyCount != 2 {
		t.Errorf("unexpected model counts: tables=%d deps=%d", retrieved.TableCount, retrieved.DependencyCount)
	}
}

func TestSQLiteStore_CompleteScanFailure(t *testing.T) {
	store := setupTestStore(t)

	scan, err := store.CreateScan("/models/broken")
	if err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}

	if err := store.CompleteScan(scan.ID, ScanStatusFailed, ScanCounts{FilesSeen: 1}, "missing database context"); err != nil {
		t.Fatalf("failed to complete scan: %v", err)
	}

	retrieved, err := store.GetScan(scan.ID)
	if err != nil {
		t.Fatalf("failed to get scan: %v", err)
	}
	if retrieved.Status != ScanStatusFailed {
		t.Errorf("expected status 'failed', got %q", retrieved.Status)
	}
	if retrieved.Error != "missing database context" {
		t.Errorf("expected error message to round-trip, got %q", retrieved.Error)
	}
}

func TestSQLiteStore_ScanNotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetScan("nonexistent-id"); err == nil {
		t.Error("expected error for nonexistent scan")
	}
	if err := store.CompleteScan("nonexistent-id", ScanStatusCompleted, ScanCounts{}, ""); err == nil {
		t.Error("expected error completing nonexistent scan")
	}
}

func TestSQLiteStore_LatestScan(t *testing.T) {
	store := setupTestStore(t)

	latest, err := store.LatestScan("/models/inventory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Error("expected nil for never-scanned root")
	}

	first, err := store.CreateScan("/models/inventory")
	if err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}
	// Force clearly ordered timestamps instead of relying on how close
	// together the two inserts land.
	_, err = store.db.Exec(`UPDATE scans SET started_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Minute), first.ID)
	if err != nil {
		t.Fatalf("failed to backdate scan: %v", err)
	}

	second, err := store.CreateScan("/models/inventory")
	if err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}
	if _, err := store.CreateScan("/models/other"); err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}

	latest, err = store.LatestScan("/models/inventory")
	if err != nil {
		t.Fatalf("failed to get latest scan: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("expected latest scan %s, got %+v", second.ID, latest)
	}
}

func TestSQLiteStore_ListScans(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 3; i++ {
		scan, err := store.CreateScan("/models/inventory")
		if err != nil {
			t.Fatalf("failed to create scan: %v", err)
		}
		_, err = store.db.Exec(`UPDATE scans SET started_at = ? WHERE id = ?`,
			time.Now().UTC().Add(time.Duration(i)*time.Minute), scan.ID)
		if err != nil {
			t.Fatalf("failed to adjust scan time: %v", err)
		}
	}

	scans, err := store.ListScans(0)
	if err != nil {
		t.Fatalf("failed to list scans: %v", err)
	}
	if len(scans) != 3 {
		t.Fatalf("expected 3 scans, got %d", len(scans))
	}
	if scans[0].StartedAt.Before(scans[1].StartedAt) {
		t.Error("expected scans newest first")
	}

	limited, err := store.ListScans(2)
	if err != nil {
		t.Fatalf("failed to list scans: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 scans with limit, got %d", len(limited))
	}
}

func TestSQLiteStore_ContentHashes(t *testing.T) {
	store := setupTestStore(t)

	hash, err := store.GetContentHash("Device.cs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash for untracked file, got %q", hash)
	}

	if err := store.SetContentHash("Device.cs", "a1b2c3d4e5f60708", "record"); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := store.SetContentHash("InventoryContext.cs", "ffffffffffffffff", "context"); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}

	hash, err = store.GetContentHash("Device.cs")
	if err != nil {
		t.Fatalf("failed to get hash: %v", err)
	}
	if hash != "a1b2c3d4e5f60708" {
		t.Errorf("expected stored hash, got %q", hash)
	}

	// Upsert replaces the stored hash.
	if err := store.SetContentHash("Device.cs", "0000000000000000", "record"); err != nil {
		t.Fatalf("failed to update hash: %v", err)
	}
	hash, _ = store.GetContentHash("Device.cs")
	if hash != "0000000000000000" {
		t.Errorf("expected updated hash, got %q", hash)
	}

	files, err := store.TrackedFiles()
	if err != nil {
		t.Fatalf("failed to list tracked files: %v", err)
	}
	if len(files) != 2 || files[0] != "Device.cs" || files[1] != "InventoryContext.cs" {
		t.Errorf("unexpected tracked files: %v", files)
	}

	if err := store.DeleteContentHash("Device.cs"); err != nil {
		t.Fatalf("failed to delete hash: %v", err)
	}
	hash, _ = store.GetContentHash("Device.cs")
	if hash != "" {
		t.Errorf("expected empty hash after delete, got %q", hash)
	}
}

func snapshotModel() *model.Model {
	group := &model.TableObject{
		ClassName: "DeviceGroup",
		KeyName:   "DeviceGroup_id",
		FileName:  "DeviceGroup.cs",
		Fields: []*model.Field{
			{TypeName: "int", VariableName: "DeviceGroup_id", Attributes: []string{"Key"}},
			{TypeName: "string", VariableName: "Name"},
		},
	}
	device := &model.TableObject{
		ClassName: "Device",
		KeyName:   "Device_id",
		FileName:  "Device.cs",
		Fields: []*model.Field{
			{TypeName: "int", VariableName: "Device_id", Attributes: []string{"Key"}},
			{TypeName: "int", VariableName: "DeviceGroup_id"},
		},
	}
	group.Dependants = []model.Dependant{{
		Dependant: device,
		FK:        device.Fields[1],
		Getter:    &model.Field{TypeName: "ICollection<Device>", VariableName: "Devices"},
	}}
	return &model.Model{
		Namespace: "Inventory.Models",
		Context:   &model.DatabaseContext{ClassName: "InventoryContext"},
		Objects:   []*model.TableObject{group, device},
	}
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	snap, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Error("expected nil snapshot before any save")
	}

	if err := store.SaveSnapshot("scan-1", snapshotModel()); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}

	snap, err = store.LoadSnapshot()
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot after save")
	}
	if snap.ScanID != "scan-1" {
		t.Errorf("expected scan id 'scan-1', got %q", snap.ScanID)
	}
	if snap.Namespace != "Inventory.Models" || snap.ContextClass != "InventoryContext" {
		t.Errorf("unexpected snapshot meta: %+v", snap)
	}
	if len(snap.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(snap.Tables))
	}
	if snap.Tables[0].ClassName != "Device" || snap.Tables[0].FieldCount != 2 {
		t.Errorf("unexpected first table: %+v", snap.Tables[0])
	}
	if len(snap.Dependencies) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(snap.Dependencies))
	}
	dep := snap.Dependencies[0]
	if dep.Owner != "DeviceGroup" || dep.Dependant != "Device" || dep.ForeignKey != "DeviceGroup_id" || dep.Getter != "Devices" {
		t.Errorf("unexpected dependency: %+v", dep)
	}
}

func TestSQLiteStore_SnapshotReplaced(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveSnapshot("scan-1", snapshotModel()); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}

	smaller := &model.Model{
		Namespace: "Inventory.Models",
		Context:   &model.DatabaseContext{ClassName: "InventoryContext"},
		Objects: []*model.TableObject{{
			ClassName: "Event",
			KeyName:   "Event_id",
			FileName:  "Event.cs",
			Fields: []*model.Field{
				{TypeName: "int", VariableName: "Event_id", Attributes: []string{"Key"}},
			},
		}},
	}
	if err := store.SaveSnapshot("scan-2", smaller); err != nil {
		t.Fatalf("failed to replace snapshot: %v", err)
	}

	snap, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if snap.ScanID != "scan-2" {
		t.Errorf("expected scan id 'scan-2', got %q", snap.ScanID)
	}
	if len(snap.Tables) != 1 || snap.Tables[0].ClassName != "Event" {
		t.Errorf("expected replaced tables, got %+v", snap.Tables)
	}
	if len(snap.Dependencies) != 0 {
		t.Errorf("expected no dependencies, got %+v", snap.Dependencies)
	}
}

package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/storage/sqlite"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// setupTestDB creates an initialized ledger database holding one aggregate row
func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "innerlog.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	if _, err := store.UpsertAggregate(context.Background(), "u1", constants.ActivityMeditation, "2024-03-01", 10, t0); err != nil {
		t.Fatalf("failed to seed aggregate: %v", err)
	}
	return dbPath
}

func minutes(t *testing.T, dbPath string) int {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	defer store.Close()

	aggs, err := store.GetRecentAggregates(context.Background(), "u1", constants.ActivityMeditation, 1)
	if err != nil {
		t.Fatalf("failed to read aggregates: %v", err)
	}
	if len(aggs) == 0 {
		return 0
	}
	return aggs[0].Minutes
}

func newTestManager(dbPath string) *Manager {
	m := NewManager(dbPath)
	clock := t0
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return m
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	path, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written outside the backup dir: %s", path)
	}
	if filepath.Base(path) != "innerlog-20240301-080100.db" {
		t.Errorf("unexpected backup name %s", filepath.Base(path))
	}
	if err := Verify(path); err != nil {
		t.Errorf("backup does not verify: %v", err)
	}
	if got := minutes(t, path); got != 10 {
		t.Errorf("backup holds %d minutes, want 10", got)
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); err == nil {
		t.Fatal("expected error backing up a missing database")
	}
}

func TestNameCollision(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = func() time.Time { return t0 }

	first, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct backup paths")
	}
	if filepath.Base(second) != "innerlog-20240301-080000-1.db" {
		t.Errorf("unexpected collision name %s", filepath.Base(second))
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].Path != second {
		t.Errorf("expected the counter-suffixed backup first, got %s", backups[0].Path)
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)
	mgr.keep = 3

	var paths []string
	for i := 0; i < 5; i++ {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		paths = append(paths, path)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups after rotation, got %d", len(backups))
	}
	for i, want := range []string{paths[4], paths[3], paths[2]} {
		if backups[i].Path != want {
			t.Errorf("backups[%d] = %s, want %s", i, backups[i].Path, want)
		}
	}
	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Errorf("oldest backup should have been removed")
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)
	if _, err := mgr.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, name := range []string{"notes.txt", "innerlog-yesterday.db", "innerlog-20240301-080000-x.db", "other-20240301-080000.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected only the real backup, got %d entries", len(backups))
	}
}

func TestListWithoutDir(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "innerlog.db"))
	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	snapshot, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// diverge from the snapshot
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := store.UpsertAggregate(context.Background(), "u1", constants.ActivityMeditation, "2024-03-01", 25, t0); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	store.Close()
	if got := minutes(t, dbPath); got != 35 {
		t.Fatalf("expected 35 minutes before restore, got %d", got)
	}

	previous, err := mgr.Restore(snapshot)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := minutes(t, dbPath); got != 10 {
		t.Errorf("expected 10 minutes after restore, got %d", got)
	}
	if previous == "" {
		t.Fatal("expected the pre-restore database to be backed up")
	}
	if got := minutes(t, previous); got != 35 {
		t.Errorf("pre-restore backup holds %d minutes, want 35", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary restore file left behind")
	}
}

func TestRestoreRejectsInvalidFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	foreign := filepath.Join(dir, "foreign.db")
	db, err := sql.Open("sqlite", foreign)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE notes (id TEXT PRIMARY KEY)"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	for _, path := range []string{filepath.Join(dir, "missing.db"), garbage, foreign} {
		if _, err := mgr.Restore(path); err == nil {
			t.Errorf("expected Restore(%s) to fail", filepath.Base(path))
		}
	}
	if got := minutes(t, dbPath); got != 10 {
		t.Errorf("database changed after failed restores: %d minutes", got)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"innerlog-20240301-080000.db", true},
		{"innerlog-20240301-080000-12.db", true},
		{"innerlog-20240301-0800.db", false},
		{"innerlog-20240301-080000.db.bak", false},
		{"otherapp-20240301-080000.db", false},
	}
	for _, tt := range tests {
		if _, _, ok := parseName(tt.name); ok != tt.ok {
			t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}

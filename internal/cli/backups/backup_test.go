package backups

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/innerlog/internal/backup"
	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/storage/postgres"
	"github.com/julianstephens/innerlog/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	out := &bytes.Buffer{}
	ctx := cli.NewContext(store)
	ctx.Out = out
	return ctx, out, store
}

func TestBackupListCmd_Empty(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out, store := setupTestContext(t)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "Backup created:") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Available backups (1 total, keeping most recent 14)") {
		t.Errorf("unexpected output: %q", text)
	}
	if !strings.Contains(text, backup.NewManager(store.GetConfigPath()).Dir()) {
		t.Errorf("expected backup directory in output: %q", text)
	}
}

func TestBackupRestoreCmd(t *testing.T) {
	ctx, out, store := setupTestContext(t)

	if _, err := ctx.Ledger.InitStreak(t.Context(), "alice"); err != nil {
		t.Fatalf("InitStreak() failed: %v", err)
	}
	path, err := backup.NewManager(store.GetConfigPath()).Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := ctx.Ledger.InitStreak(t.Context(), "bob"); err != nil {
		t.Fatalf("InitStreak() failed: %v", err)
	}

	if err := (&BackupRestoreCmd{BackupFile: filepath.Base(path), Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Database restored successfully") {
		t.Errorf("unexpected output: %q", out.String())
	}
	if !strings.Contains(out.String(), "Previous database saved as:") {
		t.Errorf("expected pre-restore snapshot in output: %q", out.String())
	}

	if err := store.Load(); err != nil {
		t.Fatalf("Load() after restore failed: %v", err)
	}
	created, err := ctx.Ledger.InitStreak(t.Context(), "bob")
	if err != nil {
		t.Fatalf("InitStreak() failed: %v", err)
	}
	if !created {
		t.Error("expected bob's record to be gone after restore")
	}
	created, err = ctx.Ledger.InitStreak(t.Context(), "alice")
	if err != nil {
		t.Fatalf("InitStreak() failed: %v", err)
	}
	if created {
		t.Error("expected alice's record to survive restore")
	}
}

func TestBackupRestoreCmd_NotFound(t *testing.T) {
	ctx, _, _ := setupTestContext(t)

	err := (&BackupRestoreCmd{BackupFile: "missing.db", Yes: true}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "backup file not found") {
		t.Errorf("expected not found error, got %v", err)
	}

	err = (&BackupRestoreCmd{BackupFile: filepath.Join(t.TempDir(), "missing.db"), Yes: true}).Run(ctx)
	if err == nil {
		t.Error("expected error for missing absolute path")
	}
}

func TestBackupRestoreCmd_RejectsInvalidFile(t *testing.T) {
	ctx, _, _ := setupTestContext(t)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := (&BackupRestoreCmd{BackupFile: bogus, Yes: true}).Run(ctx); err == nil {
		t.Error("expected restore of an invalid file to fail")
	}
}

func TestBackupCommands_RequireSQLite(t *testing.T) {
	ctx := cli.NewContext(postgres.New("postgres://localhost/innerlog"))
	ctx.Out = &bytes.Buffer{}

	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected create to fail for postgres storage")
	}
	if err := (&BackupListCmd{}).Run(ctx); err == nil {
		t.Error("expected list to fail for postgres storage")
	}
}

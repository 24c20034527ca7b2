package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "innerlog.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var t0 = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("expected error loading uninitialized store")
	}
}

func TestInitThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "innerlog.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()

	status, err := reopened.SchemaStatus()
	if err != nil {
		t.Fatalf("SchemaStatus failed: %v", err)
	}
	if status.Pending() || status.Current == 0 {
		t.Errorf("unexpected schema status %+v", status)
	}
	if err := reopened.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestUpsertAggregateAccumulates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertAggregate(ctx, "u1", constants.ActivityMeditation, "2024-01-01", 13, t0)
	if err != nil {
		t.Fatalf("UpsertAggregate failed: %v", err)
	}
	if first.Minutes != 13 || first.SessionCount != 1 {
		t.Errorf("first upsert = %+v", first)
	}

	second, err := store.UpsertAggregate(ctx, "u1", constants.ActivityMeditation, "2024-01-01", 5, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("UpsertAggregate failed: %v", err)
	}
	if second.Minutes != 18 || second.SessionCount != 2 {
		t.Errorf("second upsert = %+v, want minutes=18 sessions=2", second)
	}
	if !second.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", second.UpdatedAt)
	}

	// other kind and other user are separate keys
	other, err := store.UpsertAggregate(ctx, "u1", constants.ActivityBreathing, "2024-01-01", 4, t0)
	if err != nil {
		t.Fatalf("UpsertAggregate failed: %v", err)
	}
	if other.Minutes != 4 || other.SessionCount != 1 {
		t.Errorf("breathing aggregate = %+v", other)
	}
	if _, err := store.UpsertAggregate(ctx, "u2", constants.ActivityMeditation, "2024-01-01", 7, t0); err != nil {
		t.Fatalf("UpsertAggregate failed: %v", err)
	}

	recent, err := store.GetRecentAggregates(ctx, "u1", constants.ActivityMeditation, 10)
	if err != nil {
		t.Fatalf("GetRecentAggregates failed: %v", err)
	}
	if len(recent) != 1 || recent[0].Minutes != 18 {
		t.Errorf("recent = %+v", recent)
	}
}

func TestUpsertAggregateConcurrent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.UpsertAggregate(ctx, "u1", constants.ActivityBreathing, "2024-01-01", 2, t0); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert failed: %v", err)
	}

	recent, err := store.GetRecentAggregates(ctx, "u1", constants.ActivityBreathing, 1)
	if err != nil {
		t.Fatalf("GetRecentAggregates failed: %v", err)
	}
	if recent[0].Minutes != 2*workers || recent[0].SessionCount != workers {
		t.Errorf("got minutes=%d sessions=%d, want %d and %d", recent[0].Minutes, recent[0].SessionCount, 2*workers, workers)
	}
}

func TestRecentAndRangeAggregates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02", "2024-01-05"} {
		if _, err := store.UpsertAggregate(ctx, "u1", constants.ActivityMeditation, d, 10, t0); err != nil {
			t.Fatalf("UpsertAggregate failed: %v", err)
		}
	}
	if _, err := store.UpsertAggregate(ctx, "u1", constants.ActivityBreathing, "2024-01-02", 3, t0); err != nil {
		t.Fatalf("UpsertAggregate failed: %v", err)
	}

	recent, err := store.GetRecentAggregates(ctx, "u1", constants.ActivityMeditation, 2)
	if err != nil {
		t.Fatalf("GetRecentAggregates failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Date != "2024-01-05" || recent[1].Date != "2024-01-03" {
		t.Errorf("recent = %+v", recent)
	}

	ranged, err := store.GetAggregatesInRange(ctx, "u1", "2024-01-02", "2024-01-03")
	if err != nil {
		t.Fatalf("GetAggregatesInRange failed: %v", err)
	}
	if len(ranged) != 3 {
		t.Fatalf("expected 3 rows in range, got %d", len(ranged))
	}
	if ranged[0].Date != "2024-01-03" {
		t.Errorf("expected newest first, got %s", ranged[0].Date)
	}
}

func TestStreakLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.GetStreak(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := store.InitStreak(ctx, "u1", t0)
	if err != nil || !created {
		t.Fatalf("InitStreak = %v, %v", created, err)
	}
	created, err = store.InitStreak(ctx, "u1", t0)
	if err != nil || created {
		t.Fatalf("second InitStreak = %v, %v; want false, nil", created, err)
	}

	rec, err := store.UpdateStreak(ctx, "u1", t0, func(r *models.StreakRecord) error {
		r.Credit(t0)
		r.Unlock(models.Achievement{Type: constants.AchievementOnboardingComplete, Title: "Welcome Aboard!", UnlockedAt: t0})
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateStreak failed: %v", err)
	}
	if rec.CurrentStreak != 1 || rec.LastEntryDate != "2024-01-01" {
		t.Errorf("rec = %+v", rec)
	}

	got, err := store.GetStreak(ctx, "u1")
	if err != nil {
		t.Fatalf("GetStreak failed: %v", err)
	}
	if got.CurrentStreak != 1 || got.LongestStreak != 1 || got.LastEntryDate != "2024-01-01" {
		t.Errorf("persisted record = %+v", got)
	}
	if len(got.Achievements) != 1 || got.Achievements[0].Title != "Welcome Aboard!" {
		t.Errorf("achievements = %+v", got.Achievements)
	}
	if !got.Achievements[0].UnlockedAt.Equal(t0) {
		t.Errorf("UnlockedAt = %v", got.Achievements[0].UnlockedAt)
	}
}

func TestUpdateStreakCreatesMissingRecord(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.UpdateStreak(ctx, "fresh", t0, func(r *models.StreakRecord) error {
		if r.CurrentStreak != 0 || r.LastEntryDate != "" {
			t.Errorf("expected zeroed record, got %+v", r)
		}
		r.Credit(t0)
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateStreak failed: %v", err)
	}
	if rec.CurrentStreak != 1 || rec.LongestStreak != 1 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestUpdateStreakRollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := store.UpdateStreak(ctx, "u1", t0, func(r *models.StreakRecord) error {
		r.Credit(t0)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if _, err := store.GetStreak(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected no record after rollback, got %v", err)
	}
}

func TestUpdateStreakConcurrentSameDay(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.UpdateStreak(ctx, "u1", t0, func(r *models.StreakRecord) error {
		r.CurrentStreak, r.LongestStreak, r.LastEntryDate = 3, 3, "2023-12-31"
		return nil
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.UpdateStreak(ctx, "u1", t0, func(r *models.StreakRecord) error {
				r.Credit(t0)
				return nil
			}); err != nil {
				t.Errorf("UpdateStreak failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.GetStreak(ctx, "u1")
	if err != nil {
		t.Fatalf("GetStreak failed: %v", err)
	}
	if got.CurrentStreak != 4 {
		t.Errorf("CurrentStreak = %d, want 4 (credited once)", got.CurrentStreak)
	}
}

func TestUpdateStreakAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "innerlog.db")
	stores := []*Store{NewStore(path), NewStore(path)}
	if err := stores[0].Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := stores[1].Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, s := range stores {
		t.Cleanup(func() { s.Close() })
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, s := range stores {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.UpdateStreak(ctx, "u1", t0, func(r *models.StreakRecord) error {
					r.CurrentStreak++
					return nil
				}); err != nil {
					t.Errorf("UpdateStreak failed: %v", err)
				}
			}()
		}
	}
	wg.Wait()

	got, err := stores[0].GetStreak(ctx, "u1")
	if err != nil {
		t.Fatalf("GetStreak failed: %v", err)
	}
	if got.CurrentStreak != 20 {
		t.Errorf("CurrentStreak = %d, want 20", got.CurrentStreak)
	}
}

func newEntry(id, user string, created time.Time) models.JournalEntry {
	return models.JournalEntry{
		ID:        id,
		UserID:    user,
		Title:     "Entry " + id,
		Tags:      []string{},
		IsDraft:   true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestJournalCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := newEntry("j1", "u1", t0)
	entry.Prompt = "What went well?"
	entry.Tags = []string{"gratitude", "daily"}
	if err := store.AddJournal(ctx, entry); err != nil {
		t.Fatalf("AddJournal failed: %v", err)
	}

	got, err := store.GetJournal(ctx, "j1", "u1")
	if err != nil {
		t.Fatalf("GetJournal failed: %v", err)
	}
	if got.Title != "Entry j1" || got.Prompt != "What went well?" || !got.IsDraft {
		t.Errorf("got %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "gratitude" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.Content != nil || got.LastAutoSaved != nil {
		t.Errorf("expected empty content and autosave, got %s / %v", got.Content, got.LastAutoSaved)
	}

	if _, err := store.GetJournal(ctx, "j1", "intruder"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}

	content := json.RawMessage(`[{"type":"paragraph","content":"hello"}]`)
	saved := t0.Add(time.Hour)
	updated, err := store.UpdateJournal(ctx, "j1", "u1", func(j *models.JournalEntry) error {
		j.Content = content
		j.WordCount = 1
		j.IsDraft = false
		j.UpdatedAt = saved
		j.LastAutoSaved = &saved
		j.UserID = "hijack"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateJournal failed: %v", err)
	}
	if updated.UserID != "u1" {
		t.Errorf("owner changed to %q", updated.UserID)
	}

	got, err = store.GetJournal(ctx, "j1", "u1")
	if err != nil {
		t.Fatalf("GetJournal failed: %v", err)
	}
	if string(got.Content) != string(content) || got.WordCount != 1 || got.IsDraft {
		t.Errorf("after update got %+v", got)
	}
	if got.LastAutoSaved == nil || !got.LastAutoSaved.Equal(saved) {
		t.Errorf("LastAutoSaved = %v", got.LastAutoSaved)
	}

	if _, err := store.UpdateJournal(ctx, "j1", "intruder", func(j *models.JournalEntry) error {
		t.Error("mutator must not run for non-owner")
		return nil
	}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.DeleteJournal(ctx, "j1", "intruder"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting as other user, got %v", err)
	}
	if err := store.DeleteJournal(ctx, "j1", "u1"); err != nil {
		t.Fatalf("DeleteJournal failed: %v", err)
	}
	if _, err := store.GetJournal(ctx, "j1", "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListAndRangeJournals(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		if err := store.AddJournal(ctx, newEntry(id, "u1", t0.AddDate(0, 0, i))); err != nil {
			t.Fatalf("AddJournal failed: %v", err)
		}
	}
	if err := store.AddJournal(ctx, newEntry("x", "u2", t0)); err != nil {
		t.Fatalf("AddJournal failed: %v", err)
	}

	list, err := store.ListJournals(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("ListJournals failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "d" || list[2].ID != "b" {
		t.Errorf("ListJournals ids = %v", ids(list))
	}

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 23, 59, 59, 0, time.UTC)
	ranged, err := store.GetJournalsInRange(ctx, "u1", start, end)
	if err != nil {
		t.Fatalf("GetJournalsInRange failed: %v", err)
	}
	if got := ids(ranged); len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Errorf("range ids = %v, want [c b]", got)
	}

	all, err := store.GetAllJournals(ctx, "u2")
	if err != nil {
		t.Fatalf("GetAllJournals failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != "x" {
		t.Errorf("GetAllJournals = %v", ids(all))
	}
}

func ids(entries []models.JournalEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/migration"
	"github.com/julianstephens/innerlog/internal/models"
)

// ErrNotFound is returned when a keyed row does not exist. Journal lookups
// also return it when the row belongs to a different user.
var ErrNotFound = errors.New("not found")

// StreakMutator edits a streak record inside the store's transaction.
// The record passed in always exists; a zeroed row is created on demand.
type StreakMutator func(*models.StreakRecord) error

// OnboardingMutator edits a user's onboarding row inside the store's
// transaction. The row is created with StartedAt = now on first use.
type OnboardingMutator func(*models.Onboarding) error

// JournalMutator edits a journal entry inside the store's transaction
type JournalMutator func(*models.JournalEntry) error

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	GetConfigPath() string
	Ping(ctx context.Context) error
	SchemaStatus() (migration.Status, error)

	// Daily aggregates
	// UpsertAggregate adds minutes and one session to the (user, kind, date) row,
	// creating it if absent, in a single atomic statement.
	UpsertAggregate(ctx context.Context, userID string, kind constants.ActivityKind, date string, minutes int, now time.Time) (models.DailyAggregate, error)
	GetRecentAggregates(ctx context.Context, userID string, kind constants.ActivityKind, limit int) ([]models.DailyAggregate, error)
	GetAggregatesInRange(ctx context.Context, userID, startDate, endDate string) ([]models.DailyAggregate, error)

	// Streaks
	GetStreak(ctx context.Context, userID string) (models.StreakRecord, error)
	// InitStreak creates a zeroed record and reports whether one was created
	InitStreak(ctx context.Context, userID string, now time.Time) (bool, error)
	UpdateStreak(ctx context.Context, userID string, now time.Time, fn StreakMutator) (models.StreakRecord, error)

	// Onboarding
	GetOnboarding(ctx context.Context, userID string) (models.Onboarding, error)
	UpdateOnboarding(ctx context.Context, userID string, now time.Time, fn OnboardingMutator) (models.Onboarding, error)

	// Journals
	AddJournal(ctx context.Context, entry models.JournalEntry) error
	GetJournal(ctx context.Context, id, userID string) (models.JournalEntry, error)
	UpdateJournal(ctx context.Context, id, userID string, fn JournalMutator) (models.JournalEntry, error)
	DeleteJournal(ctx context.Context, id, userID string) error
	// ListJournals returns the user's newest entries first, at most limit
	ListJournals(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
	// GetJournalsInRange returns entries with start <= created_at <= end, newest first
	GetJournalsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.JournalEntry, error)
	// GetAllJournals returns every entry owned by the user, newest first
	GetAllJournals(ctx context.Context, userID string) ([]models.JournalEntry, error)
}

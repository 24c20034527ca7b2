package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
)

type milestone struct {
	days        int
	kind        constants.AchievementType
	title       string
	description string
}

var milestones = []milestone{
	{3, constants.AchievementStreak3, "3-Day Streak", "You practiced three days in a row"},
	{7, constants.AchievementStreak7, "One Week Strong", "A full week of daily practice"},
	{30, constants.AchievementStreak30, "30-Day Habit", "Thirty consecutive days of showing up"},
}

// GetStreak returns the user's streak record. A user with no record gets a
// zeroed value rather than an error.
func (l *Ledger) GetStreak(ctx context.Context, userID string) (models.StreakRecord, error) {
	if err := requireUser(userID); err != nil {
		return models.StreakRecord{}, err
	}
	rec, err := l.store.GetStreak(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.EmptyStreak(userID), nil
	}
	if err != nil {
		return models.StreakRecord{}, mapErr("get streak", err)
	}
	return rec, nil
}

// InitStreak creates an empty record for a new user. It is idempotent and
// reports whether a record was created.
func (l *Ledger) InitStreak(ctx context.Context, userID string) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}
	created, err := l.store.InitStreak(ctx, userID, l.clock())
	if err != nil {
		return false, mapErr("init streak", err)
	}
	if created {
		logger.Info("Initialized streak record", "user", userID)
	}
	return created, nil
}

// CreditActivityForToday records qualifying activity on the current UTC day.
// Repeated credits on the same day leave the counters unchanged.
func (l *Ledger) CreditActivityForToday(ctx context.Context, userID string) (models.StreakRecord, error) {
	if err := requireUser(userID); err != nil {
		return models.StreakRecord{}, err
	}
	now := l.clock()

	rec, err := l.store.UpdateStreak(ctx, userID, now, func(r *models.StreakRecord) error {
		if !r.Credit(now) {
			return nil
		}
		for _, m := range milestones {
			if r.CurrentStreak < m.days {
				continue
			}
			r.Unlock(models.Achievement{
				Type:        m.kind,
				UnlockedAt:  now,
				Title:       m.title,
				Description: m.description,
			})
		}
		return nil
	})
	if err != nil {
		return models.StreakRecord{}, mapErr("credit streak", err)
	}
	logger.Debug("Credited streak", "user", userID, "current", rec.CurrentStreak, "longest", rec.LongestStreak)
	return rec, nil
}

// UnlockAchievement adds a to the user's record unless the type is already
// present. UnlockedAt defaults to now.
func (l *Ledger) UnlockAchievement(ctx context.Context, userID string, a models.Achievement) (models.StreakRecord, error) {
	if err := requireUser(userID); err != nil {
		return models.StreakRecord{}, err
	}
	a.Type = constants.AchievementType(strings.TrimSpace(string(a.Type)))
	if a.Type == "" {
		return models.StreakRecord{}, ierrors.Invalid("type", "cannot be empty")
	}
	if strings.TrimSpace(a.Title) == "" {
		return models.StreakRecord{}, ierrors.Invalid("title", "cannot be empty")
	}
	now := l.clock()
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = now
	}
	a.UnlockedAt = a.UnlockedAt.UTC()

	rec, err := l.store.UpdateStreak(ctx, userID, now, func(r *models.StreakRecord) error {
		if r.Unlock(a) {
			logger.Info("Unlocked achievement", "user", userID, "type", a.Type)
		}
		return nil
	})
	if err != nil {
		return models.StreakRecord{}, mapErr("unlock achievement", err)
	}
	return rec, nil
}

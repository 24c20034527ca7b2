package models

import (
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/utils"
)

// Achievement is an unlocked milestone. Type is unique per user.
type Achievement struct {
	Type        constants.AchievementType `json:"type"`
	UnlockedAt  time.Time                 `json:"unlocked_at"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
}

// StreakRecord tracks consecutive UTC days with a qualifying activity.
type StreakRecord struct {
	UserID        string        `json:"user_id"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	LastEntryDate string        `json:"last_entry_date,omitempty"` // YYYY-MM-DD (UTC), empty if never credited
	Achievements  []Achievement `json:"achievements"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// EmptyStreak is the value reported for a user with no record yet
func EmptyStreak(userID string) StreakRecord {
	return StreakRecord{UserID: userID, Achievements: []Achievement{}}
}

// Credit advances the streak for the UTC day containing now. It returns false
// when the day was already credited, in which case only UpdatedAt changes.
func (r *StreakRecord) Credit(now time.Time) bool {
	today := utils.DayKey(now)
	r.UpdatedAt = now.UTC()

	switch r.LastEntryDate {
	case today:
		return false
	case utils.PreviousDayKey(now):
		r.CurrentStreak++
	default:
		r.CurrentStreak = 1
	}

	if r.CurrentStreak > r.LongestStreak {
		r.LongestStreak = r.CurrentStreak
	}
	r.LastEntryDate = today
	return true
}

// HasAchievement reports whether an achievement of type t is unlocked
func (r *StreakRecord) HasAchievement(t constants.AchievementType) bool {
	for _, a := range r.Achievements {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Unlock appends a unless one with the same type exists.
func (r *StreakRecord) Unlock(a Achievement) bool {
	if r.HasAchievement(a.Type) {
		return false
	}
	r.Achievements = append(r.Achievements, a)
	return true
}

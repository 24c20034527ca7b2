package models

import (
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
)

// DailyAggregate accumulates timed practice for one user, kind and UTC day.
type DailyAggregate struct {
	UserID       string                 `json:"user_id" yaml:"user_id"`
	Kind         constants.ActivityKind `json:"activity_kind" yaml:"activity_kind"`
	Date         string                 `json:"date" yaml:"date"` // YYYY-MM-DD (UTC)
	Minutes      int                    `json:"minutes" yaml:"minutes"`
	SessionCount int                    `json:"session_count" yaml:"session_count"`
	UpdatedAt    time.Time              `json:"updated_at" yaml:"updated_at"`
}

// JourneyDay summarises one UTC day of activity for the timeline view
type JourneyDay struct {
	Date              string         `json:"date"`
	Journals          []JournalEntry `json:"journals"`
	MeditationMinutes int            `json:"meditation_minutes"`
	BreathingMinutes  int            `json:"breathing_minutes"`
}

// Active reports whether anything was recorded on the day
func (d JourneyDay) Active() bool {
	return len(d.Journals) > 0 || d.MeditationMinutes > 0 || d.BreathingMinutes > 0
}

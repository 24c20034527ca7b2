package models

import (
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
)

// Onboarding is a user's questionnaire progress. Answers and Reflection are
// nil until saved.
type Onboarding struct {
	UserID      string             `json:"user_id"`
	CurrentStep int                `json:"current_step"`
	Answers     *OnboardingAnswers `json:"answers,omitempty"`
	Reflection  *Feedback          `json:"reflection,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (o *Onboarding) Completed() bool {
	return o.CompletedAt != nil
}

// Advance moves CurrentStep to step unless it is already further along
func (o *Onboarding) Advance(step int) {
	if step > o.CurrentStep {
		o.CurrentStep = step
	}
}

// Complete marks onboarding finished once; the first completion time is kept
func (o *Onboarding) Complete(now time.Time) bool {
	if o.CompletedAt != nil {
		return false
	}
	t := now.UTC()
	o.CompletedAt = &t
	o.Advance(constants.OnboardingStepComplete)
	return true
}

// OnboardingStatus tells a client whether to show the questionnaire
type OnboardingStatus struct {
	NeedsOnboarding bool       `json:"needs_onboarding"`
	IsNewUser       bool       `json:"is_new_user"`
	StartedAt       *time.Time `json:"onboarding_started,omitempty"`
	CurrentStep     int        `json:"current_step"`
}

// Dashboard is the per-user summary served at startup
type Dashboard struct {
	UserID          string       `json:"user_id"`
	Streak          StreakRecord `json:"streak"`
	Onboarding      *Onboarding  `json:"onboarding"`
	NeedsOnboarding bool         `json:"needs_onboarding"`
}

package models

import (
	"fmt"

	"github.com/julianstephens/innerlog/internal/constants"
)

// Lifestyle scores are 0..10
type Lifestyle struct {
	SleepQuality     int `json:"sleep_quality"`
	EnergyLevel      int `json:"energy_level"`
	StressLevel      int `json:"stress_level"`
	SocialConnection int `json:"social_connection"`
}

type Assessment struct {
	AnxietyFrequency      constants.Frequency `json:"anxiety_frequency"`
	InterestLossFrequency constants.Frequency `json:"interest_loss_frequency"`
}

// OnboardingAnswers is the questionnaire payload sent to the feedback collaborator
type OnboardingAnswers struct {
	MoodScore  int                   `json:"mood_score"`
	Lifestyle  Lifestyle             `json:"lifestyle"`
	Assessment Assessment            `json:"assessment"`
	FocusAreas []constants.FocusArea `json:"focus_areas"`
}

// Feedback is the structured supportive response
type Feedback struct {
	PersonalizedGreeting string               `json:"personalized_greeting"`
	StrengthHighlight    string               `json:"strength_highlight"`
	DailySuggestion      string               `json:"daily_suggestion"`
	FullResponse         string               `json:"full_response"`
	ActionType           constants.ActionType `json:"action_type"`
}

func (a *OnboardingAnswers) Validate() error {
	if a.MoodScore < constants.MinMoodScore || a.MoodScore > constants.MaxMoodScore {
		return fmt.Errorf("mood_score must be between %d and %d, got %d", constants.MinMoodScore, constants.MaxMoodScore, a.MoodScore)
	}

	scores := []struct {
		name  string
		value int
	}{
		{"sleep_quality", a.Lifestyle.SleepQuality},
		{"energy_level", a.Lifestyle.EnergyLevel},
		{"stress_level", a.Lifestyle.StressLevel},
		{"social_connection", a.Lifestyle.SocialConnection},
	}
	for _, s := range scores {
		if s.value < constants.MinLifestyleScore || s.value > constants.MaxLifestyleScore {
			return fmt.Errorf("%s must be between %d and %d, got %d", s.name, constants.MinLifestyleScore, constants.MaxLifestyleScore, s.value)
		}
	}

	if !a.Assessment.AnxietyFrequency.Valid() {
		return fmt.Errorf("anxiety_frequency %q is not a known frequency", a.Assessment.AnxietyFrequency)
	}
	if !a.Assessment.InterestLossFrequency.Valid() {
		return fmt.Errorf("interest_loss_frequency %q is not a known frequency", a.Assessment.InterestLossFrequency)
	}
	for _, f := range a.FocusAreas {
		if !f.Valid() {
			return fmt.Errorf("focus area %q is not supported", f)
		}
	}
	return nil
}

// MoodLabel returns the human name of the mood score
func (a *OnboardingAnswers) MoodLabel() string {
	if a.MoodScore < constants.MinMoodScore || a.MoodScore > constants.MaxMoodScore {
		return "Unknown"
	}
	return constants.MoodLabels[a.MoodScore]
}

func (f *Feedback) Validate() error {
	if f.PersonalizedGreeting == "" || f.StrengthHighlight == "" || f.DailySuggestion == "" || f.FullResponse == "" {
		return fmt.Errorf("feedback is missing required text fields")
	}
	if !f.ActionType.Valid() {
		return fmt.Errorf("unknown action type %q", f.ActionType)
	}
	return nil
}

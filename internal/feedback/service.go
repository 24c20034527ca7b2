// Package feedback produces supportive onboarding feedback from a hosted
// language model, substituting a static response whenever the model call
// fails.
package feedback

import (
	"context"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/models"
)

// Generator produces feedback for validated answers
type Generator interface {
	Generate(ctx context.Context, answers models.OnboardingAnswers) (models.Feedback, error)
}

// Fallback is returned whenever generation fails
var Fallback = models.Feedback{
	PersonalizedGreeting: "Hey friend, I hear you're feeling a bit drained but resilient.",
	StrengthHighlight:    "You show up even on tough days, and consistency is a strength.",
	DailySuggestion:      "Try a gentle 5-minute walk outside this afternoon.",
	FullResponse:         "You seem to be carrying some stress, yet your ability to keep going stands out. Focus on one small act of care today: a short walk, slow breathing, or a mindful sip of water.",
	ActionType:           constants.ActionMindfulness,
}

type Result struct {
	models.Feedback
	// Generated is false when the static fallback was substituted
	Generated bool `json:"generated"`
}

type Service struct {
	gen     Generator
	timeout time.Duration
}

// NewService wraps gen; a nil gen always yields the fallback
func NewService(gen Generator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = constants.FeedbackTimeout
	}
	return &Service{gen: gen, timeout: timeout}
}

// Feedback validates answers and returns generated feedback or the fallback.
// Only invalid answers produce an error.
func (s *Service) Feedback(ctx context.Context, answers models.OnboardingAnswers) (Result, error) {
	if err := answers.Validate(); err != nil {
		return Result{}, ierrors.Invalid("answers", "%v", err)
	}
	if s.gen == nil {
		logger.Debug("No feedback generator configured, using fallback")
		return Result{Feedback: Fallback}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fb, err := s.gen.Generate(ctx, answers)
	if err != nil {
		logger.Warn("Feedback generation failed, using fallback", "error", err)
		return Result{Feedback: Fallback}, nil
	}
	return Result{Feedback: fb, Generated: true}, nil
}

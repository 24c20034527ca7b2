package ledger

import (
	"context"
	"errors"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
)

func (l *Ledger) updateOnboarding(ctx context.Context, op, userID string, fn func(*models.Onboarding)) (models.Onboarding, error) {
	if err := requireUser(userID); err != nil {
		return models.Onboarding{}, err
	}
	o, err := l.store.UpdateOnboarding(ctx, userID, l.clock(), func(o *models.Onboarding) error {
		fn(o)
		return nil
	})
	if err != nil {
		return models.Onboarding{}, mapErr(op, err)
	}
	return o, nil
}

// StartOnboarding records that the user opened the questionnaire. It is
// idempotent; the first start time is kept.
func (l *Ledger) StartOnboarding(ctx context.Context, userID string) (models.Onboarding, error) {
	return l.updateOnboarding(ctx, "start onboarding", userID, func(*models.Onboarding) {})
}

// GetOnboarding returns the user's progress, or ErrNotFoundOrForbidden when
// onboarding was never started.
func (l *Ledger) GetOnboarding(ctx context.Context, userID string) (models.Onboarding, error) {
	if err := requireUser(userID); err != nil {
		return models.Onboarding{}, err
	}
	o, err := l.store.GetOnboarding(ctx, userID)
	if err != nil {
		return models.Onboarding{}, mapErr("get onboarding", err)
	}
	return o, nil
}

// NeedsOnboarding reports whether the questionnaire is still outstanding. A
// user with neither a streak record nor onboarding progress is new. Without
// progress, the onboarding achievement alone counts as completion.
func (l *Ledger) NeedsOnboarding(ctx context.Context, userID string) (models.OnboardingStatus, error) {
	o, err := l.GetOnboarding(ctx, userID)
	if err == nil {
		status := models.OnboardingStatus{
			NeedsOnboarding: !o.Completed(),
			CurrentStep:     o.CurrentStep,
			StartedAt:       &o.StartedAt,
		}
		return status, nil
	}
	if !errors.Is(err, ierrors.ErrNotFoundOrForbidden) {
		return models.OnboardingStatus{}, err
	}

	rec, err := l.store.GetStreak(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.OnboardingStatus{NeedsOnboarding: true, IsNewUser: true}, nil
	case err != nil:
		return models.OnboardingStatus{}, mapErr("get streak", err)
	}
	return models.OnboardingStatus{
		NeedsOnboarding: !rec.HasAchievement(constants.AchievementOnboardingComplete),
	}, nil
}

// SaveOnboardingAnswers stores the questionnaire answers, replacing any
// earlier ones.
func (l *Ledger) SaveOnboardingAnswers(ctx context.Context, userID string, answers models.OnboardingAnswers) (models.Onboarding, error) {
	if err := answers.Validate(); err != nil {
		return models.Onboarding{}, ierrors.Invalid("answers", "%v", err)
	}
	if answers.FocusAreas == nil {
		answers.FocusAreas = []constants.FocusArea{}
	}
	return l.updateOnboarding(ctx, "save onboarding answers", userID, func(o *models.Onboarding) {
		o.Answers = &answers
		o.Advance(constants.OnboardingStepAnswers)
		if len(answers.FocusAreas) > 0 {
			o.Advance(constants.OnboardingStepGoals)
		}
	})
}

// SaveReflection stores the feedback shown to the user
func (l *Ledger) SaveReflection(ctx context.Context, userID string, fb models.Feedback) (models.Onboarding, error) {
	if err := fb.Validate(); err != nil {
		return models.Onboarding{}, ierrors.Invalid("reflection", "%v", err)
	}
	return l.updateOnboarding(ctx, "save reflection", userID, func(o *models.Onboarding) {
		o.Reflection = &fb
		o.Advance(constants.OnboardingStepReflection)
	})
}

// StoredAnswers returns the saved answers for regenerating feedback
func (l *Ledger) StoredAnswers(ctx context.Context, userID string) (models.OnboardingAnswers, error) {
	o, err := l.GetOnboarding(ctx, userID)
	if err != nil {
		return models.OnboardingAnswers{}, err
	}
	if o.Answers == nil {
		return models.OnboardingAnswers{}, ierrors.ErrNotFoundOrForbidden
	}
	return *o.Answers, nil
}

// CompleteOnboarding marks the questionnaire finished and unlocks the
// onboarding achievement. Both steps are idempotent.
func (l *Ledger) CompleteOnboarding(ctx context.Context, userID string) (models.StreakRecord, error) {
	now := l.clock()
	if _, err := l.updateOnboarding(ctx, "complete onboarding", userID, func(o *models.Onboarding) {
		if o.Complete(now) {
			logger.Info("Completed onboarding", "user", userID)
		}
	}); err != nil {
		return models.StreakRecord{}, err
	}
	return l.UnlockAchievement(ctx, userID, models.Achievement{
		Type:        constants.AchievementOnboardingComplete,
		Title:       "Welcome Aboard!",
		Description: "You've completed your onboarding journey",
	})
}

// Dashboard gathers the streak and onboarding state a client needs at startup
func (l *Ledger) Dashboard(ctx context.Context, userID string) (models.Dashboard, error) {
	rec, err := l.GetStreak(ctx, userID)
	if err != nil {
		return models.Dashboard{}, err
	}
	d := models.Dashboard{
		UserID:          userID,
		Streak:          rec,
		NeedsOnboarding: !rec.HasAchievement(constants.AchievementOnboardingComplete),
	}

	o, err := l.GetOnboarding(ctx, userID)
	switch {
	case errors.Is(err, ierrors.ErrNotFoundOrForbidden):
	case err != nil:
		return models.Dashboard{}, err
	default:
		d.Onboarding = &o
		d.NeedsOnboarding = !o.Completed()
	}
	return d, nil
}

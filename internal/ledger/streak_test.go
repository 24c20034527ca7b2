package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/models"
)

func TestStreakProgression(t *testing.T) {
	l, clock := setupTestLedger(t)
	ctx := context.Background()

	rec, err := l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 1, rec.LongestStreak)
	assert.Equal(t, "2024-01-01", rec.LastEntryDate)

	clock.Advance(24 * time.Hour)
	rec, err = l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CurrentStreak)
	assert.Equal(t, 2, rec.LongestStreak)

	// skip 2024-01-03
	clock.Advance(48 * time.Hour)
	rec, err = l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 2, rec.LongestStreak)
	assert.Equal(t, "2024-01-04", rec.LastEntryDate)
}

func TestStreakSameDayIsIdempotent(t *testing.T) {
	l, clock := setupTestLedger(t)
	ctx := context.Background()

	first, err := l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)

	clock.Advance(10 * time.Hour) // 20:00, still 2024-01-01
	second, err := l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
	assert.Equal(t, first.LongestStreak, second.LongestStreak)
	assert.Equal(t, first.LastEntryDate, second.LastEntryDate)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestStreakBoundaryIsUTCMidnight(t *testing.T) {
	l, clock := setupTestLedger(t)
	ctx := context.Background()

	clock.now = time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	_, err := l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	rec, err := l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CurrentStreak)
	assert.Equal(t, "2024-01-02", rec.LastEntryDate)
}

func TestStreakConcurrentCreditsSameDay(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.CreditActivityForToday(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := l.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 1, rec.LongestStreak)
}

func TestStreakMilestones(t *testing.T) {
	l, clock := setupTestLedger(t)
	ctx := context.Background()

	var rec models.StreakRecord
	var err error
	for i := 0; i < 7; i++ {
		rec, err = l.CreditActivityForToday(ctx, "u1")
		require.NoError(t, err)
		if i == 1 {
			assert.Empty(t, rec.Achievements)
		}
		clock.Advance(24 * time.Hour)
	}
	assert.Equal(t, 7, rec.CurrentStreak)
	assert.True(t, rec.HasAchievement(constants.AchievementStreak3))
	assert.True(t, rec.HasAchievement(constants.AchievementStreak7))
	assert.False(t, rec.HasAchievement(constants.AchievementStreak30))
	assert.Len(t, rec.Achievements, 2)

	// a reset and rebuild must not unlock streak_3 twice
	clock.Advance(48 * time.Hour)
	for i := 0; i < 3; i++ {
		rec, err = l.CreditActivityForToday(ctx, "u1")
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}
	assert.Equal(t, 3, rec.CurrentStreak)
	assert.Equal(t, 7, rec.LongestStreak)
	assert.Len(t, rec.Achievements, 2)
}

func TestGetStreakMissingUser(t *testing.T) {
	l, _ := setupTestLedger(t)

	rec, err := l.GetStreak(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", rec.UserID)
	assert.Zero(t, rec.CurrentStreak)
	assert.Empty(t, rec.LastEntryDate)
	assert.NotNil(t, rec.Achievements)
}

func TestInitStreak(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	created, err := l.InitStreak(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)

	_, err = l.CreditActivityForToday(ctx, "u1")
	require.NoError(t, err)

	created, err = l.InitStreak(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)

	rec, err := l.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak, "init must not reset an existing record")
}

func TestCompleteOnboardingDeduplicates(t *testing.T) {
	l, clock := setupTestLedger(t)
	ctx := context.Background()

	rec, err := l.CompleteOnboarding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rec.Achievements, 1)
	a := rec.Achievements[0]
	assert.Equal(t, constants.AchievementOnboardingComplete, a.Type)
	assert.Equal(t, "Welcome Aboard!", a.Title)
	assert.Equal(t, "You've completed your onboarding journey", a.Description)
	assert.True(t, a.UnlockedAt.Equal(day0))

	clock.Advance(time.Hour)
	rec, err = l.CompleteOnboarding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rec.Achievements, 1)
	assert.True(t, rec.Achievements[0].UnlockedAt.Equal(day0), "first unlock time is kept")
	assert.Zero(t, rec.CurrentStreak, "onboarding does not credit the streak")
}

func TestUnlockAchievementValidation(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	_, err := l.UnlockAchievement(ctx, "u1", models.Achievement{Title: "No type"})
	assert.True(t, ierrors.IsValidation(err))
	_, err = l.UnlockAchievement(ctx, "u1", models.Achievement{Type: "custom"})
	assert.True(t, ierrors.IsValidation(err))

	unlockedAt := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	rec, err := l.UnlockAchievement(ctx, "u1", models.Achievement{Type: "custom", Title: "Custom", UnlockedAt: unlockedAt})
	require.NoError(t, err)
	require.Len(t, rec.Achievements, 1)
	assert.True(t, rec.Achievements[0].UnlockedAt.Equal(unlockedAt))
}

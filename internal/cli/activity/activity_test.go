package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/feedback"
	"github.com/julianstephens/innerlog/internal/ledger"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage/sqlite"
	"github.com/julianstephens/innerlog/internal/utils"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, *testClock) {
	t.Helper()
	gokeyring.MockInit()
	t.Setenv("GEMINI_API_KEY", "")

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	clock := &testClock{now: time.Now().UTC()}
	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store:  store,
		Ledger: ledger.New(store, ledger.WithClock(clock.Now)),
		Out:    out,
	}
	return ctx, out, clock
}

func user(name string) cli.UserFlag {
	return cli.UserFlag{User: name}
}

func TestSessionLogCmd(t *testing.T) {
	ctx, out, clock := setupTestContext(t)

	cmd := &SessionLogCmd{UserFlag: user("alice"), Kind: "meditation", Minutes: 9.6}
	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), "Logged 10 min of meditation")
	assert.Contains(t, out.String(), "Current streak: 1 day(s)")

	out.Reset()
	require.NoError(t, (&SessionLogCmd{UserFlag: user("alice"), Kind: "meditation", Minutes: 5}).Run(ctx))
	assert.Contains(t, out.String(), "Day total: 15 min across 2 session(s)")

	aggs, err := ctx.Ledger.GetRecentAggregates(context.Background(), "alice", constants.ActivityMeditation, 0)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, utils.DayKey(clock.now), aggs[0].Date)
}

func TestSessionLogCmd_NoStreak(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	cmd := &SessionLogCmd{UserFlag: user("bob"), Kind: "breathing", Minutes: 3, NoStreak: true}
	require.NoError(t, cmd.Run(ctx))
	assert.NotContains(t, out.String(), "Current streak")

	rec, err := ctx.Ledger.GetStreak(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.CurrentStreak)
}

func TestSessionLogCmd_InvalidInput(t *testing.T) {
	ctx, _, _ := setupTestContext(t)

	assert.Error(t, (&SessionLogCmd{UserFlag: user("alice"), Kind: "meditation", Minutes: -1}).Run(ctx))
	assert.Error(t, (&SessionLogCmd{UserFlag: user("alice"), Kind: "meditation", Minutes: 5, Date: "03/01/2024"}).Run(ctx))
	assert.Error(t, (&SessionLogCmd{UserFlag: user(""), Kind: "meditation", Minutes: 5}).Run(ctx))
}

func TestSessionRecentCmd(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	require.NoError(t, (&SessionRecentCmd{UserFlag: user("alice"), Kind: "breathing"}).Run(ctx))
	assert.Contains(t, out.String(), "No breathing sessions recorded yet.")

	for _, date := range []string{"2024-01-01", "2024-01-03"} {
		_, err := ctx.Ledger.CreditSession(context.Background(), "alice", constants.ActivityBreathing, 4, date)
		require.NoError(t, err)
	}

	out.Reset()
	require.NoError(t, (&SessionRecentCmd{UserFlag: user("alice"), Kind: "breathing", JSON: true}).Run(ctx))
	var aggs []models.DailyAggregate
	require.NoError(t, json.Unmarshal(out.Bytes(), &aggs))
	require.Len(t, aggs, 2)
	assert.Equal(t, "2024-01-03", aggs[0].Date)

	out.Reset()
	require.NoError(t, (&SessionRecentCmd{UserFlag: user("alice"), Kind: "breathing", Days: 1}).Run(ctx))
	assert.Contains(t, out.String(), "Total: 4 min over 1 day(s)")
}

func TestStreakCommands(t *testing.T) {
	ctx, out, clock := setupTestContext(t)

	require.NoError(t, (&StreakInitCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "Created streak record for alice")

	out.Reset()
	require.NoError(t, (&StreakInitCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "already exists")

	for i := 0; i < 3; i++ {
		out.Reset()
		require.NoError(t, (&StreakCreditCmd{UserFlag: user("alice")}).Run(ctx))
		clock.now = clock.now.AddDate(0, 0, 1)
	}
	assert.Contains(t, out.String(), "Unlocked: 3-Day Streak")

	clock.now = clock.now.AddDate(0, 0, -1)
	out.Reset()
	require.NoError(t, (&StreakCreditCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "Today is already credited.")

	out.Reset()
	require.NoError(t, (&StreakShowCmd{UserFlag: user("alice"), JSON: true}).Run(ctx))
	var rec models.StreakRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, 3, rec.CurrentStreak)
	assert.Equal(t, 3, rec.LongestStreak)
	assert.True(t, rec.HasAchievement(constants.AchievementStreak3))
}

func TestStreakShowCmd_NeverCredited(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	require.NoError(t, (&StreakShowCmd{UserFlag: user("carol")}).Run(ctx))
	assert.Contains(t, out.String(), "Last active: never")
	assert.NotContains(t, out.String(), "Achievements:")
}

func TestOnboardingCompleteCmd(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	require.NoError(t, (&OnboardingCompleteCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "Unlocked: Welcome Aboard!")

	out.Reset()
	require.NoError(t, (&OnboardingCompleteCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "already completed")

	rec, err := ctx.Ledger.GetStreak(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, rec.Achievements, 1)
}

func feedbackCmd() *OnboardingFeedbackCmd {
	return &OnboardingFeedbackCmd{
		UserFlag:     user("alice"),
		Mood:         2,
		Sleep:        4,
		Energy:       3,
		Stress:       8,
		Social:       6,
		Anxiety:      "several_days",
		InterestLoss: "never",
		Focus:        []string{"reduce_stress", " improve_sleep "},
	}
}

func TestOnboardingFeedbackCmd_Fallback(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	cmd := feedbackCmd()
	cmd.JSON = true
	cmd.Complete = true
	require.NoError(t, cmd.Run(ctx))

	var res feedback.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.False(t, res.Generated)
	assert.Equal(t, feedback.Fallback, res.Feedback)

	rec, err := ctx.Ledger.GetStreak(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, rec.HasAchievement(constants.AchievementOnboardingComplete))

	o, err := ctx.Ledger.GetOnboarding(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, o.Answers)
	assert.Equal(t, cmd.answers(), *o.Answers)
	require.NotNil(t, o.Reflection)
	assert.Equal(t, feedback.Fallback, *o.Reflection)
	assert.True(t, o.Completed())
}

func TestOnboardingFeedbackCmd_Saved(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	cmd := &OnboardingFeedbackCmd{UserFlag: user("alice"), Saved: true}
	err := cmd.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no saved answers")

	require.NoError(t, feedbackCmd().Run(ctx))
	out.Reset()

	// flag defaults would fail validation, so the saved answers must be used
	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), feedback.Fallback.DailySuggestion)
}

func TestOnboardingStatusCmd(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	require.NoError(t, (&OnboardingStatusCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "New user")

	require.NoError(t, feedbackCmd().Run(ctx))
	out.Reset()
	require.NoError(t, (&OnboardingStatusCmd{UserFlag: user("alice")}).Run(ctx))
	assert.Contains(t, out.String(), "Onboarding in progress: step 5 of 6")
	assert.Contains(t, out.String(), feedback.Fallback.DailySuggestion)

	require.NoError(t, (&OnboardingCompleteCmd{UserFlag: user("alice")}).Run(ctx))
	out.Reset()
	require.NoError(t, (&OnboardingStatusCmd{UserFlag: user("alice"), JSON: true}).Run(ctx))
	var status models.OnboardingStatus
	require.NoError(t, json.Unmarshal(out.Bytes(), &status))
	assert.False(t, status.NeedsOnboarding)
	assert.Equal(t, constants.OnboardingStepComplete, status.CurrentStep)
}

func TestOnboardingFeedbackCmd_Answers(t *testing.T) {
	a := feedbackCmd().answers()
	assert.Equal(t, 2, a.MoodScore)
	assert.Equal(t, 8, a.Lifestyle.StressLevel)
	assert.Equal(t, constants.FrequencySeveralDays, a.Assessment.AnxietyFrequency)
	assert.Equal(t, []constants.FocusArea{constants.FocusReduceStress, constants.FocusImproveSleep}, a.FocusAreas)
	assert.NoError(t, a.Validate())
}

func TestOnboardingFeedbackCmd_InvalidAnswers(t *testing.T) {
	ctx, _, _ := setupTestContext(t)

	cmd := feedbackCmd()
	cmd.Mood = 9
	cmd.Complete = true
	require.Error(t, cmd.Run(ctx))

	rec, err := ctx.Ledger.GetStreak(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, rec.Achievements)
}

func TestJourneyCmd(t *testing.T) {
	ctx, out, clock := setupTestContext(t)
	today := utils.DayKey(clock.now)

	_, err := ctx.Ledger.CreditSession(context.Background(), "alice", constants.ActivityMeditation, 12, today)
	require.NoError(t, err)
	_, err = ctx.Ledger.CreateJournal(context.Background(), ledger.NewJournal{UserID: "alice", Title: "Morning pages"})
	require.NoError(t, err)

	require.NoError(t, (&JourneyCmd{UserFlag: user("alice"), Days: 3}).Run(ctx))
	text := out.String()
	assert.Contains(t, text, "Journey: last 3 day(s)")
	assert.Contains(t, text, "12 min")
	assert.Contains(t, text, "Morning pages")
	assert.Contains(t, text, "1 of 3 day(s) active")

	out.Reset()
	require.NoError(t, (&JourneyCmd{UserFlag: user("alice"), JSON: true}).Run(ctx))
	var days []models.JourneyDay
	require.NoError(t, json.Unmarshal(out.Bytes(), &days))
	require.Len(t, days, constants.DefaultJourneyDays)
	assert.Equal(t, today, days[0].Date)
	assert.Equal(t, 12, days[0].MeditationMinutes)
	require.Len(t, days[0].Journals, 1)
	assert.Equal(t, "Morning pages", days[0].Journals[0].Title)
}

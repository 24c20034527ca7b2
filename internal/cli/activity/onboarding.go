package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/models"
)

type OnboardingCompleteCmd struct {
	cli.UserFlag
}

func (cmd *OnboardingCompleteCmd) Run(ctx *cli.Context) error {
	before, err := ctx.Ledger.GetStreak(context.Background(), cmd.User)
	if err != nil {
		return err
	}
	rec, err := ctx.Ledger.CompleteOnboarding(context.Background(), cmd.User)
	if err != nil {
		return err
	}
	if before.HasAchievement(constants.AchievementOnboardingComplete) {
		ctx.Println("Onboarding was already completed.")
		return nil
	}
	for _, a := range newAchievements(before, rec) {
		ctx.Printf("🏆 Unlocked: %s - %s\n", a.Title, a.Description)
	}
	return nil
}

type OnboardingStatusCmd struct {
	cli.UserFlag
	JSON bool `help:"Print JSON."`
}

func (cmd *OnboardingStatusCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	status, err := ctx.Ledger.NeedsOnboarding(bg, cmd.User)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return ctx.PrintJSON(status)
	}

	switch {
	case !status.NeedsOnboarding:
		ctx.Println(cli.SuccessStyle.Render("✓ Onboarding complete"))
	case status.IsNewUser:
		ctx.Println("New user. Run 'innerlog onboarding feedback -i' to get started.")
	case status.StartedAt == nil:
		ctx.Println("Onboarding not started.")
	default:
		ctx.Printf("Onboarding in progress: step %d of %d (started %s)\n",
			status.CurrentStep, constants.OnboardingStepComplete, status.StartedAt.Format("2006-01-02"))
	}

	o, err := ctx.Ledger.GetOnboarding(bg, cmd.User)
	if errors.Is(err, ierrors.ErrNotFoundOrForbidden) {
		return nil
	}
	if err != nil {
		return err
	}
	if o.Reflection != nil {
		ctx.Printf("%s %s\n", cli.AccentStyle.Render("Today:"), o.Reflection.DailySuggestion)
	}
	return nil
}

type OnboardingFeedbackCmd struct {
	cli.UserFlag
	Interactive  bool     `help:"Answer the questionnaire interactively." short:"i"`
	Mood         int      `help:"Mood today, 1 (low) to 4 (great)." default:"3"`
	Sleep        int      `help:"Sleep quality, 0-10." default:"5"`
	Energy       int      `help:"Energy level, 0-10." default:"5"`
	Stress       int      `help:"Stress level, 0-10." default:"5"`
	Social       int      `help:"Social connection, 0-10." default:"5"`
	Anxiety      string   `help:"How often anxiety was felt recently." enum:"never,several_days,more_than_half_days,nearly_every_day" default:"never"`
	InterestLoss string   `help:"How often interest was lost recently." enum:"never,several_days,more_than_half_days,nearly_every_day" default:"never"`
	Focus        []string `help:"Focus areas (reduce_stress, improve_sleep, boost_energy, build_healthy_habits)." sep:","`
	Model        string   `help:"Gemini model to use." default:"${gemini_model}"`
	Saved        bool     `help:"Reuse the answers saved by an earlier run."`
	Complete     bool     `help:"Also mark onboarding as complete."`
	JSON         bool     `help:"Print JSON."`
}

func (cmd *OnboardingFeedbackCmd) answers() models.OnboardingAnswers {
	focus := make([]constants.FocusArea, 0, len(cmd.Focus))
	for _, f := range cmd.Focus {
		if f = strings.TrimSpace(f); f != "" {
			focus = append(focus, constants.FocusArea(f))
		}
	}
	return models.OnboardingAnswers{
		MoodScore: cmd.Mood,
		Lifestyle: models.Lifestyle{
			SleepQuality:     cmd.Sleep,
			EnergyLevel:      cmd.Energy,
			StressLevel:      cmd.Stress,
			SocialConnection: cmd.Social,
		},
		Assessment: models.Assessment{
			AnxietyFrequency:      constants.Frequency(cmd.Anxiety),
			InterestLossFrequency: constants.Frequency(cmd.InterestLoss),
		},
		FocusAreas: focus,
	}
}

func (cmd *OnboardingFeedbackCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	answers := cmd.answers()
	if cmd.Saved {
		stored, err := ctx.Ledger.StoredAnswers(bg, cmd.User)
		if errors.Is(err, ierrors.ErrNotFoundOrForbidden) {
			return fmt.Errorf("no saved answers for %s", cmd.User)
		}
		if err != nil {
			return err
		}
		answers = stored
	}
	if cmd.Interactive {
		if err := askAnswers(&answers); err != nil {
			return err
		}
	}

	res, err := cli.NewFeedbackService("", cmd.Model).Feedback(bg, answers)
	if err != nil {
		return err
	}
	if _, err := ctx.Ledger.SaveOnboardingAnswers(bg, cmd.User, answers); err != nil {
		return err
	}
	if _, err := ctx.Ledger.SaveReflection(bg, cmd.User, res.Feedback); err != nil {
		return err
	}

	if cmd.Complete {
		if _, err := ctx.Ledger.CompleteOnboarding(bg, cmd.User); err != nil {
			return err
		}
	}

	if cmd.JSON {
		return ctx.PrintJSON(res)
	}
	ctx.Println(cli.TitleStyle.Render(res.PersonalizedGreeting))
	ctx.Println()
	ctx.Printf("%s %s\n", cli.AccentStyle.Render("Strength:"), res.StrengthHighlight)
	ctx.Printf("%s %s\n", cli.AccentStyle.Render("Today:"), res.DailySuggestion)
	ctx.Println()
	ctx.Println(res.FullResponse)
	if !res.Generated {
		ctx.Println(cli.MutedStyle.Render("(offline response)"))
	}
	if cmd.Complete {
		ctx.Println(cli.SuccessStyle.Render("✓ Onboarding complete"))
	}
	return nil
}

func scoreField(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Value(value).
		Validate(func(s string) error {
			i, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			if i < constants.MinLifestyleScore || i > constants.MaxLifestyleScore {
				return fmt.Errorf("must be between %d and %d", constants.MinLifestyleScore, constants.MaxLifestyleScore)
			}
			return nil
		})
}

func frequencyOptions() []huh.Option[constants.Frequency] {
	labels := map[constants.Frequency]string{
		constants.FrequencyNever:          "Not at all",
		constants.FrequencySeveralDays:    "Several days",
		constants.FrequencyMoreThanHalf:   "More than half the days",
		constants.FrequencyNearlyEveryDay: "Nearly every day",
	}
	opts := make([]huh.Option[constants.Frequency], 0, len(constants.Frequencies))
	for _, f := range constants.Frequencies {
		opts = append(opts, huh.NewOption(labels[f], f))
	}
	return opts
}

// askAnswers runs the questionnaire form, seeded with a's current values
func askAnswers(a *models.OnboardingAnswers) error {
	sleep := strconv.Itoa(a.Lifestyle.SleepQuality)
	energy := strconv.Itoa(a.Lifestyle.EnergyLevel)
	stress := strconv.Itoa(a.Lifestyle.StressLevel)
	social := strconv.Itoa(a.Lifestyle.SocialConnection)

	moodOpts := make([]huh.Option[int], 0, constants.MaxMoodScore)
	for score := constants.MinMoodScore; score <= constants.MaxMoodScore; score++ {
		moodOpts = append(moodOpts, huh.NewOption(constants.MoodLabels[score], score))
	}
	focusOpts := make([]huh.Option[constants.FocusArea], 0, len(constants.FocusAreas))
	for _, f := range constants.FocusAreas {
		focusOpts = append(focusOpts, huh.NewOption(strings.ReplaceAll(string(f), "_", " "), f))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("How are you feeling today?").
				Options(moodOpts...).
				Value(&a.MoodScore),
			scoreField("Sleep quality (0-10)", &sleep),
			scoreField("Energy level (0-10)", &energy),
			scoreField("Stress level (0-10)", &stress),
			scoreField("Social connection (0-10)", &social),
		),
		huh.NewGroup(
			huh.NewSelect[constants.Frequency]().
				Title("Over the last two weeks, how often have you felt anxious?").
				Options(frequencyOptions()...).
				Value(&a.Assessment.AnxietyFrequency),
			huh.NewSelect[constants.Frequency]().
				Title("How often have you had little interest in doing things?").
				Options(frequencyOptions()...).
				Value(&a.Assessment.InterestLossFrequency),
			huh.NewMultiSelect[constants.FocusArea]().
				Title("What would you like to focus on?").
				Options(focusOpts...).
				Value(&a.FocusAreas),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return err
	}

	// Inputs were validated by the form
	a.Lifestyle.SleepQuality, _ = strconv.Atoi(strings.TrimSpace(sleep))
	a.Lifestyle.EnergyLevel, _ = strconv.Atoi(strings.TrimSpace(energy))
	a.Lifestyle.StressLevel, _ = strconv.Atoi(strings.TrimSpace(stress))
	a.Lifestyle.SocialConnection, _ = strconv.Atoi(strings.TrimSpace(social))
	return nil
}

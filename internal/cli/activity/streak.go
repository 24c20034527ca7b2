package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/models"
)

type StreakShowCmd struct {
	cli.UserFlag
	JSON bool `help:"Print JSON."`
}

func (cmd *StreakShowCmd) Run(ctx *cli.Context) error {
	rec, err := ctx.Ledger.GetStreak(context.Background(), cmd.User)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return ctx.PrintJSON(rec)
	}
	printStreak(ctx, rec)
	return nil
}

type StreakCreditCmd struct {
	cli.UserFlag
}

func (cmd *StreakCreditCmd) Run(ctx *cli.Context) error {
	before, err := ctx.Ledger.GetStreak(context.Background(), cmd.User)
	if err != nil {
		return err
	}
	rec, err := ctx.Ledger.CreditActivityForToday(context.Background(), cmd.User)
	if err != nil {
		return err
	}

	if before.LastEntryDate == rec.LastEntryDate {
		ctx.Println("Today is already credited.")
	} else {
		ctx.Println(cli.SuccessStyle.Render("✓ Credited today's activity"))
	}
	for _, a := range newAchievements(before, rec) {
		ctx.Printf("🏆 Unlocked: %s\n", a.Title)
	}
	printStreak(ctx, rec)
	return nil
}

type StreakInitCmd struct {
	cli.UserFlag
}

func (cmd *StreakInitCmd) Run(ctx *cli.Context) error {
	created, err := ctx.Ledger.InitStreak(context.Background(), cmd.User)
	if err != nil {
		return err
	}
	if created {
		ctx.Printf("✓ Created streak record for %s\n", cmd.User)
	} else {
		ctx.Printf("Streak record for %s already exists\n", cmd.User)
	}
	return nil
}

func printStreak(ctx *cli.Context, rec models.StreakRecord) {
	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Streak for %s", rec.UserID)))
	ctx.Printf("  Current: %s\n", cli.AccentStyle.Render(fmt.Sprintf("%d day(s)", rec.CurrentStreak)))
	ctx.Printf("  Longest: %d day(s)\n", rec.LongestStreak)
	last := rec.LastEntryDate
	if last == "" {
		last = "never"
	}
	ctx.Printf("  Last active: %s\n", last)

	if len(rec.Achievements) == 0 {
		return
	}
	titles := make([]string, 0, len(rec.Achievements))
	for _, a := range rec.Achievements {
		titles = append(titles, a.Title)
	}
	ctx.Printf("  Achievements: %s\n", strings.Join(titles, ", "))
}

func newAchievements(before, after models.StreakRecord) []models.Achievement {
	var out []models.Achievement
	for _, a := range after.Achievements {
		if !before.HasAchievement(a.Type) {
			out = append(out, a)
		}
	}
	return out
}

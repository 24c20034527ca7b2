package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/ledger"
)

type SessionLogCmd struct {
	cli.UserFlag
	Kind     string  `arg:"" enum:"meditation,breathing" help:"Activity kind (meditation or breathing)."`
	Minutes  float64 `arg:"" help:"Session length in minutes. Rounded to the nearest whole minute."`
	Date     string  `help:"Day to credit (YYYY-MM-DD, 'today' or 'yesterday'). Defaults to today (UTC)."`
	NoStreak bool    `help:"Record the minutes without crediting today's streak."`
}

func (cmd *SessionLogCmd) Run(ctx *cli.Context) error {
	date := ""
	if cmd.Date != "" {
		d, err := cli.ParseDate(cmd.Date, time.Now())
		if err != nil {
			return err
		}
		date = d
	}

	res, err := ctx.Ledger.LogSession(context.Background(), ledger.Session{
		UserID:       cmd.User,
		Kind:         constants.ActivityKind(cmd.Kind),
		Minutes:      cmd.Minutes,
		Date:         date,
		CreditStreak: !cmd.NoStreak,
	})
	if err != nil {
		return err
	}

	agg := res.Aggregate
	ctx.Printf("✓ Logged %d min of %s on %s\n", ledger.RoundMinutes(cmd.Minutes), agg.Kind, agg.Date)
	ctx.Printf("  Day total: %d min across %d session(s)\n", agg.Minutes, agg.SessionCount)
	if res.Streak != nil {
		ctx.Printf("  Current streak: %d day(s)\n", res.Streak.CurrentStreak)
	}
	return nil
}

type SessionRecentCmd struct {
	cli.UserFlag
	Kind string `arg:"" enum:"meditation,breathing" help:"Activity kind (meditation or breathing)."`
	Days int    `help:"Number of most recent days with activity to show (1-60)." default:"14"`
	JSON bool   `help:"Print JSON instead of a table."`
}

func (cmd *SessionRecentCmd) Run(ctx *cli.Context) error {
	aggs, err := ctx.Ledger.GetRecentAggregates(context.Background(), cmd.User, constants.ActivityKind(cmd.Kind), cmd.Days)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return ctx.PrintJSON(aggs)
	}

	if len(aggs) == 0 {
		ctx.Printf("No %s sessions recorded yet.\n", cmd.Kind)
		return nil
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Recent %s", cmd.Kind)))
	total := 0
	for _, a := range aggs {
		ctx.Printf("  %s  %4d min  %s\n", a.Date, a.Minutes, cli.MutedStyle.Render(fmt.Sprintf("(%d session(s))", a.SessionCount)))
		total += a.Minutes
	}
	ctx.Printf("\n  Total: %d min over %d day(s)\n", total, len(aggs))
	return nil
}

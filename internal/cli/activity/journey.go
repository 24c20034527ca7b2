package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/models"
)

var dayStyle = lipgloss.NewStyle().Width(12)

type JourneyCmd struct {
	cli.UserFlag
	Days int  `help:"Number of days to show, ending today (1-60)." default:"7"`
	JSON bool `help:"Print JSON."`
}

func (cmd *JourneyCmd) Run(ctx *cli.Context) error {
	days, err := ctx.Ledger.Journey(context.Background(), cmd.User, cmd.Days)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return ctx.PrintJSON(days)
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Journey: last %d day(s)", len(days))))
	active := 0
	for _, d := range days {
		if d.Active() {
			active++
		}
		ctx.Println(renderDay(d))
	}
	ctx.Printf("\n%d of %d day(s) active\n", active, len(days))
	return nil
}

func renderDay(d models.JourneyDay) string {
	if !d.Active() {
		return lipgloss.JoinHorizontal(lipgloss.Top, dayStyle.Render(d.Date), cli.MutedStyle.Render("·"))
	}

	var parts []string
	if d.MeditationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("🧘 %d min", d.MeditationMinutes))
	}
	if d.BreathingMinutes > 0 {
		parts = append(parts, fmt.Sprintf("🌬 %d min", d.BreathingMinutes))
	}
	if n := len(d.Journals); n > 0 {
		titles := make([]string, 0, n)
		for _, j := range d.Journals {
			titles = append(titles, j.Title)
		}
		parts = append(parts, fmt.Sprintf("📓 %s", strings.Join(titles, ", ")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, dayStyle.Render(d.Date), strings.Join(parts, "  "))
}

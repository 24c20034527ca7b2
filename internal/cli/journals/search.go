package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/ledger"
	"github.com/julianstephens/innerlog/internal/utils"
)

type JournalSearchCmd struct {
	cli.UserFlag
	Query    string `arg:"" optional:"" help:"Text to match in titles and prompts (case-insensitive)."`
	Tag      string `help:"Only entries carrying this tag."`
	Start    string `help:"Only entries created on or after this day (YYYY-MM-DD)."`
	End      string `help:"Only entries created on or before this day (YYYY-MM-DD)."`
	NoDrafts bool   `help:"Hide drafts."`
	Limit    int    `help:"Number of newest entries to scan (1-200)." default:"200"`
	JSON     bool   `help:"Print JSON."`
}

// dayBoundary parses a day key into the first or last instant of that UTC day
func dayBoundary(flag, key string, endOfDay bool) (*time.Time, error) {
	if key == "" {
		return nil, nil
	}
	t, err := utils.ParseDayKey(key)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (cmd *JournalSearchCmd) Run(ctx *cli.Context) error {
	start, err := dayBoundary("start", cmd.Start, false)
	if err != nil {
		return err
	}
	end, err := dayBoundary("end", cmd.End, true)
	if err != nil {
		return err
	}

	entries, err := ctx.Ledger.SearchJournals(context.Background(), cmd.User, ledger.SearchQuery{
		Query:         cmd.Query,
		Tag:           cmd.Tag,
		Start:         start,
		End:           end,
		ExcludeDrafts: cmd.NoDrafts,
		Limit:         cmd.Limit,
	})
	if err != nil {
		return err
	}
	return printEntries(ctx, entries, cmd.JSON)
}

// JournalRangeCmd lists entries created within an inclusive range of UTC days
type JournalRangeCmd struct {
	cli.UserFlag
	Start string `arg:"" help:"First day (YYYY-MM-DD)."`
	End   string `arg:"" optional:"" help:"Last day (YYYY-MM-DD). Defaults to today."`
	JSON  bool   `help:"Print JSON."`
}

func (cmd *JournalRangeCmd) Run(ctx *cli.Context) error {
	end := cmd.End
	if end == "" {
		end = utils.DayKey(time.Now())
	}
	entries, err := ctx.Ledger.GetJournalsByDateRange(context.Background(), cmd.User, cmd.Start, end)
	if err != nil {
		return err
	}
	return printEntries(ctx, entries, cmd.JSON)
}

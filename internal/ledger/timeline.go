package ledger

import (
	"context"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/utils"
)

// Journey summarises the last days UTC days ending today, most recent first.
// Every day is present even when nothing was recorded.
func (l *Ledger) Journey(ctx context.Context, userID string, days int) ([]models.JourneyDay, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if days == 0 {
		days = constants.DefaultJourneyDays
	}
	days = utils.ClampInt(days, 1, constants.MaxJourneyDays)

	keys := utils.LastNDays(l.clock(), days)
	newest, oldest := keys[0], keys[len(keys)-1]

	journals, err := l.GetJournalsByDateRange(ctx, userID, oldest, newest)
	if err != nil {
		return nil, err
	}
	aggs, err := l.GetAggregatesInRange(ctx, userID, oldest, newest)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*models.JourneyDay, len(keys))
	out := make([]models.JourneyDay, len(keys))
	for i, key := range keys {
		out[i] = models.JourneyDay{Date: key, Journals: []models.JournalEntry{}}
		byDay[key] = &out[i]
	}
	for _, j := range journals {
		if d, ok := byDay[utils.DayKey(j.CreatedAt)]; ok {
			d.Journals = append(d.Journals, j)
		}
	}
	for _, a := range aggs {
		d, ok := byDay[a.Date]
		if !ok {
			continue
		}
		switch a.Kind {
		case constants.ActivityMeditation:
			d.MeditationMinutes += a.Minutes
		case constants.ActivityBreathing:
			d.BreathingMinutes += a.Minutes
		}
	}
	return out, nil
}

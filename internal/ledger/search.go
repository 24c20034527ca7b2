package ledger

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/utils"
)

// SearchQuery filters are ANDed; zero values disable a filter.
type SearchQuery struct {
	Query         string
	Tag           string
	Start         *time.Time
	End           *time.Time
	ExcludeDrafts bool
	// Limit bounds how many of the newest entries are scanned, not how many match
	Limit int
}

type matcher struct {
	fold  cases.Caser
	query string
}

func newMatcher(query string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.query = m.fold.String(strings.TrimSpace(query))
	return m
}

func (m *matcher) match(s string) bool {
	return strings.Contains(m.fold.String(s), m.query)
}

// SearchJournals scans the user's newest q.Limit entries and returns those
// passing every filter, newest first. Older entries are never considered.
func (l *Ledger) SearchJournals(ctx context.Context, userID string, q SearchQuery) ([]models.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return nil, ierrors.Invalid("end", "must not be before start")
	}
	limit := q.Limit
	if limit == 0 {
		limit = constants.DefaultSearchLimit
	}
	limit = utils.ClampInt(limit, 1, constants.MaxJournalLimit)

	entries, err := l.store.ListJournals(ctx, userID, limit)
	if err != nil {
		return nil, mapErr("search journals", err)
	}

	var m *matcher
	if strings.TrimSpace(q.Query) != "" {
		m = newMatcher(q.Query)
	}
	tag := strings.TrimSpace(q.Tag)

	results := []models.JournalEntry{}
	for _, e := range entries {
		if q.ExcludeDrafts && e.IsDraft {
			continue
		}
		if tag != "" && !e.HasTag(tag) {
			continue
		}
		if q.Start != nil && e.CreatedAt.Before(*q.Start) {
			continue
		}
		if q.End != nil && e.CreatedAt.After(*q.End) {
			continue
		}
		if m != nil && !m.match(e.Title) && !m.match(e.Prompt) {
			continue
		}
		results = append(results, e)
	}
	return results, nil
}

// GetJournalsByDateRange returns entries created within the inclusive UTC
// day range, newest first.
func (l *Ledger) GetJournalsByDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	start, end, err := utils.DayBounds(startDate, endDate)
	if err != nil {
		return nil, ierrors.Invalid("date", "%v", err)
	}
	entries, err := l.store.GetJournalsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, mapErr("get journals by date range", err)
	}
	return entries, nil
}

package ledger

import (
	"context"
	"math"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/utils"
)

// Session describes one finished timed practice
type Session struct {
	UserID  string
	Kind    constants.ActivityKind
	Minutes float64
	// Date is a UTC day key; empty means today
	Date string
	// CreditStreak also credits today's streak after the aggregate is updated
	CreditStreak bool
}

// SessionResult is the outcome of LogSession. Streak is nil unless credited.
type SessionResult struct {
	Aggregate models.DailyAggregate `json:"aggregate"`
	Streak    *models.StreakRecord  `json:"streak,omitempty"`
}

// RoundMinutes rounds fractional minutes to the nearest whole minute
func RoundMinutes(m float64) int {
	return int(math.Max(0, math.Round(m)))
}

func validateMinutes(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return ierrors.Invalid("minutes", "must be a finite number")
	}
	if m < 0 {
		return ierrors.Invalid("minutes", "must be non-negative, got %v", m)
	}
	if m > constants.MaxSessionMinutes {
		return ierrors.Invalid("minutes", "must be at most %d, got %v", constants.MaxSessionMinutes, m)
	}
	return nil
}

func validateKind(kind constants.ActivityKind) error {
	if !kind.Valid() {
		return ierrors.Invalid("activity_kind", "unsupported value %q", kind)
	}
	return nil
}

// CreditSession adds one session of minutes to the user's aggregate for kind
// on date (today when empty). Each call is rounded on its own before it is
// accumulated.
func (l *Ledger) CreditSession(ctx context.Context, userID string, kind constants.ActivityKind, minutes float64, date string) (models.DailyAggregate, error) {
	if err := requireUser(userID); err != nil {
		return models.DailyAggregate{}, err
	}
	if err := validateKind(kind); err != nil {
		return models.DailyAggregate{}, err
	}
	if err := validateMinutes(minutes); err != nil {
		return models.DailyAggregate{}, err
	}

	now := l.clock()
	if date == "" {
		date = utils.DayKey(now)
	} else if !utils.ValidDayKey(date) {
		return models.DailyAggregate{}, ierrors.Invalid("date", "expected YYYY-MM-DD, got %q", date)
	}

	agg, err := l.store.UpsertAggregate(ctx, userID, kind, date, RoundMinutes(minutes), now)
	if err != nil {
		return models.DailyAggregate{}, mapErr("credit session", err)
	}
	logger.Debug("Credited session", "user", userID, "kind", kind, "date", date, "minutes", agg.Minutes, "sessions", agg.SessionCount)
	return agg, nil
}

// LogSession credits the aggregate and, when requested, the streak. The two
// updates are independent; a failure in the second leaves the first applied.
func (l *Ledger) LogSession(ctx context.Context, s Session) (SessionResult, error) {
	agg, err := l.CreditSession(ctx, s.UserID, s.Kind, s.Minutes, s.Date)
	if err != nil {
		return SessionResult{}, err
	}
	res := SessionResult{Aggregate: agg}
	if !s.CreditStreak {
		return res, nil
	}

	rec, err := l.CreditActivityForToday(ctx, s.UserID)
	if err != nil {
		return res, err
	}
	res.Streak = &rec
	return res, nil
}

// GetRecentAggregates returns up to dayCount most recent rows for kind, newest
// first. Zero means the default window; other values are clamped to [1, 60].
func (l *Ledger) GetRecentAggregates(ctx context.Context, userID string, kind constants.ActivityKind, dayCount int) ([]models.DailyAggregate, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if dayCount == 0 {
		dayCount = constants.DefaultRecentDays
	}
	dayCount = utils.ClampInt(dayCount, constants.MinRecentDays, constants.MaxRecentDays)

	aggs, err := l.store.GetRecentAggregates(ctx, userID, kind, dayCount)
	if err != nil {
		return nil, mapErr("get recent aggregates", err)
	}
	return aggs, nil
}

// GetAggregatesInRange returns all kinds for the inclusive UTC day range
func (l *Ledger) GetAggregatesInRange(ctx context.Context, userID, startDate, endDate string) ([]models.DailyAggregate, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, _, err := utils.DayBounds(startDate, endDate); err != nil {
		return nil, ierrors.Invalid("date", "%v", err)
	}
	aggs, err := l.store.GetAggregatesInRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, mapErr("get aggregates in range", err)
	}
	return aggs, nil
}

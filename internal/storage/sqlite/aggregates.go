package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/utils"
)

const aggregateColumns = "user_id, activity_kind, date, minutes, session_count, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAggregate(row rowScanner) (models.DailyAggregate, error) {
	var (
		agg       models.DailyAggregate
		kind      string
		updatedAt string
	)
	if err := row.Scan(&agg.UserID, &kind, &agg.Date, &agg.Minutes, &agg.SessionCount, &updatedAt); err != nil {
		return models.DailyAggregate{}, err
	}
	agg.Kind = constants.ActivityKind(kind)
	t, err := utils.ParseTimestamp(updatedAt)
	if err != nil {
		return models.DailyAggregate{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	agg.UpdatedAt = t
	return agg, nil
}

func (s *Store) UpsertAggregate(ctx context.Context, userID string, kind constants.ActivityKind, date string, minutes int, now time.Time) (models.DailyAggregate, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_aggregates (user_id, activity_kind, date, minutes, session_count, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(user_id, activity_kind, date) DO UPDATE SET
			minutes = daily_aggregates.minutes + excluded.minutes,
			session_count = daily_aggregates.session_count + 1,
			updated_at = excluded.updated_at
		RETURNING `+aggregateColumns,
		userID, string(kind), date, minutes, utils.FormatTimestamp(now),
	)
	agg, err := scanAggregate(row)
	if err != nil {
		return models.DailyAggregate{}, fmt.Errorf("failed to upsert aggregate: %w", err)
	}
	return agg, nil
}

func (s *Store) GetRecentAggregates(ctx context.Context, userID string, kind constants.ActivityKind, limit int) ([]models.DailyAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+aggregateColumns+`
		FROM daily_aggregates
		WHERE user_id = ? AND activity_kind = ?
		ORDER BY date DESC
		LIMIT ?`,
		userID, string(kind), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggs := []models.DailyAggregate{}
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

func (s *Store) GetAggregatesInRange(ctx context.Context, userID, startDate, endDate string) ([]models.DailyAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+aggregateColumns+`
		FROM daily_aggregates
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC, activity_kind`,
		userID, startDate, endDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggs := []models.DailyAggregate{}
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

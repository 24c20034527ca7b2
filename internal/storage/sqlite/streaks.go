package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
	"github.com/julianstephens/innerlog/internal/utils"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadStreak(ctx context.Context, q querier, userID string) (models.StreakRecord, error) {
	var (
		rec                  models.StreakRecord
		lastEntry            sql.NullString
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT user_id, current_streak, longest_streak, last_entry_date, created_at, updated_at
		FROM streaks WHERE user_id = ?`, userID,
	).Scan(&rec.UserID, &rec.CurrentStreak, &rec.LongestStreak, &lastEntry, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StreakRecord{}, storage.ErrNotFound
		}
		return models.StreakRecord{}, err
	}
	rec.LastEntryDate = lastEntry.String
	if rec.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return models.StreakRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return models.StreakRecord{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT type, title, description, unlocked_at
		FROM achievements WHERE user_id = ?
		ORDER BY id`, userID,
	)
	if err != nil {
		return models.StreakRecord{}, err
	}
	defer rows.Close()

	rec.Achievements = []models.Achievement{}
	for rows.Next() {
		var (
			a          models.Achievement
			typ        string
			unlockedAt string
		)
		if err := rows.Scan(&typ, &a.Title, &a.Description, &unlockedAt); err != nil {
			return models.StreakRecord{}, err
		}
		a.Type = constants.AchievementType(typ)
		if a.UnlockedAt, err = utils.ParseTimestamp(unlockedAt); err != nil {
			return models.StreakRecord{}, fmt.Errorf("failed to parse unlocked_at: %w", err)
		}
		rec.Achievements = append(rec.Achievements, a)
	}
	return rec, rows.Err()
}

func (s *Store) GetStreak(ctx context.Context, userID string) (models.StreakRecord, error) {
	return loadStreak(ctx, s.db, userID)
}

func (s *Store) InitStreak(ctx context.Context, userID string, now time.Time) (bool, error) {
	ts := utils.FormatTimestamp(now)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO streaks (user_id, current_streak, longest_streak, created_at, updated_at)
		VALUES (?, 0, 0, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`, userID, ts, ts)
	if err != nil {
		return false, fmt.Errorf("failed to create streak record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) UpdateStreak(ctx context.Context, userID string, now time.Time, fn storage.StreakMutator) (models.StreakRecord, error) {
	var rec models.StreakRecord
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ts := utils.FormatTimestamp(now)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO streaks (user_id, current_streak, longest_streak, created_at, updated_at)
			VALUES (?, 0, 0, ?, ?)
			ON CONFLICT(user_id) DO NOTHING`, userID, ts, ts); err != nil {
			return fmt.Errorf("failed to ensure streak record: %w", err)
		}

		var err error
		rec, err = loadStreak(ctx, tx, userID)
		if err != nil {
			return err
		}

		known := len(rec.Achievements)
		rec.UpdatedAt = now.UTC()
		if err := fn(&rec); err != nil {
			return err
		}

		var lastEntry sql.NullString
		if rec.LastEntryDate != "" {
			lastEntry = sql.NullString{String: rec.LastEntryDate, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE streaks
			SET current_streak = ?, longest_streak = ?, last_entry_date = ?, updated_at = ?
			WHERE user_id = ?`,
			rec.CurrentStreak, rec.LongestStreak, lastEntry, utils.FormatTimestamp(rec.UpdatedAt), userID,
		); err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}

		for _, a := range rec.Achievements[known:] {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO achievements (user_id, type, title, description, unlocked_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(user_id, type) DO NOTHING`,
				userID, string(a.Type), a.Title, a.Description, utils.FormatTimestamp(a.UnlockedAt),
			); err != nil {
				return fmt.Errorf("failed to add achievement %s: %w", a.Type, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.StreakRecord{}, err
	}
	return rec, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadStreak reads a record and its achievements. forUpdate locks the row
// for the rest of the transaction.
func loadStreak(ctx context.Context, q querier, userID string, forUpdate bool) (models.StreakRecord, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, last_entry_date, created_at, updated_at
		FROM streaks WHERE user_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		rec       models.StreakRecord
		lastEntry sql.NullString
	)
	err := q.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID, &rec.CurrentStreak, &rec.LongestStreak, &lastEntry, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StreakRecord{}, storage.ErrNotFound
		}
		return models.StreakRecord{}, err
	}
	rec.LastEntryDate = lastEntry.String
	rec.CreatedAt, rec.UpdatedAt = rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()

	rows, err := q.QueryContext(ctx, `
		SELECT type, title, description, unlocked_at
		FROM achievements WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return models.StreakRecord{}, err
	}
	defer rows.Close()

	rec.Achievements = []models.Achievement{}
	for rows.Next() {
		var (
			a   models.Achievement
			typ string
		)
		if err := rows.Scan(&typ, &a.Title, &a.Description, &a.UnlockedAt); err != nil {
			return models.StreakRecord{}, err
		}
		a.Type = constants.AchievementType(typ)
		a.UnlockedAt = a.UnlockedAt.UTC()
		rec.Achievements = append(rec.Achievements, a)
	}
	return rec, rows.Err()
}

func (s *Store) GetStreak(ctx context.Context, userID string) (models.StreakRecord, error) {
	return loadStreak(ctx, s.db, userID, false)
}

func (s *Store) InitStreak(ctx context.Context, userID string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO streaks (user_id, current_streak, longest_streak, created_at, updated_at)
		VALUES ($1, 0, 0, $2, $2)
		ON CONFLICT (user_id) DO NOTHING`, userID, now.UTC())
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
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO streaks (user_id, current_streak, longest_streak, created_at, updated_at)
			VALUES ($1, 0, 0, $2, $2)
			ON CONFLICT (user_id) DO NOTHING`, userID, now.UTC()); err != nil {
			return fmt.Errorf("failed to ensure streak record: %w", err)
		}

		var err error
		rec, err = loadStreak(ctx, tx, userID, true)
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
			SET current_streak = $1, longest_streak = $2, last_entry_date = $3, updated_at = $4
			WHERE user_id = $5`,
			rec.CurrentStreak, rec.LongestStreak, lastEntry, rec.UpdatedAt.UTC(), userID,
		); err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}

		if len(rec.Achievements) == known {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO achievements (user_id, type, title, description, unlocked_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, type) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, a := range rec.Achievements[known:] {
			if _, err := stmt.ExecContext(ctx, userID, string(a.Type), a.Title, a.Description, a.UnlockedAt.UTC()); err != nil {
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

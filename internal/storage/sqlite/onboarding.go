package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
	"github.com/julianstephens/innerlog/internal/utils"
)

func loadOnboarding(ctx context.Context, q querier, userID string) (models.Onboarding, error) {
	var (
		o                    models.Onboarding
		answers, reflection  sql.NullString
		startedAt, updatedAt string
		completedAt          sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT user_id, current_step, answers, reflection, started_at, completed_at, updated_at
		FROM onboarding WHERE user_id = ?`, userID,
	).Scan(&o.UserID, &o.CurrentStep, &answers, &reflection, &startedAt, &completedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Onboarding{}, storage.ErrNotFound
		}
		return models.Onboarding{}, err
	}

	if answers.Valid {
		o.Answers = &models.OnboardingAnswers{}
		if err := json.Unmarshal([]byte(answers.String), o.Answers); err != nil {
			return models.Onboarding{}, fmt.Errorf("failed to decode onboarding answers: %w", err)
		}
	}
	if reflection.Valid {
		o.Reflection = &models.Feedback{}
		if err := json.Unmarshal([]byte(reflection.String), o.Reflection); err != nil {
			return models.Onboarding{}, fmt.Errorf("failed to decode onboarding reflection: %w", err)
		}
	}
	if o.StartedAt, err = utils.ParseTimestamp(startedAt); err != nil {
		return models.Onboarding{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if o.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return models.Onboarding{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if completedAt.Valid {
		t, err := utils.ParseTimestamp(completedAt.String)
		if err != nil {
			return models.Onboarding{}, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		o.CompletedAt = &t
	}
	return o, nil
}

func nullJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (s *Store) GetOnboarding(ctx context.Context, userID string) (models.Onboarding, error) {
	return loadOnboarding(ctx, s.db, userID)
}

func (s *Store) UpdateOnboarding(ctx context.Context, userID string, now time.Time, fn storage.OnboardingMutator) (models.Onboarding, error) {
	var o models.Onboarding
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ts := utils.FormatTimestamp(now)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO onboarding (user_id, current_step, started_at, updated_at)
			VALUES (?, 0, ?, ?)
			ON CONFLICT(user_id) DO NOTHING`, userID, ts, ts); err != nil {
			return fmt.Errorf("failed to ensure onboarding record: %w", err)
		}

		var err error
		o, err = loadOnboarding(ctx, tx, userID)
		if err != nil {
			return err
		}
		o.UpdatedAt = now.UTC()
		if err := fn(&o); err != nil {
			return err
		}

		var answers, reflection sql.NullString
		if o.Answers != nil {
			if answers, err = nullJSON(o.Answers); err != nil {
				return fmt.Errorf("failed to encode onboarding answers: %w", err)
			}
		}
		if o.Reflection != nil {
			if reflection, err = nullJSON(o.Reflection); err != nil {
				return fmt.Errorf("failed to encode onboarding reflection: %w", err)
			}
		}
		var completedAt sql.NullString
		if o.CompletedAt != nil {
			completedAt = sql.NullString{String: utils.FormatTimestamp(*o.CompletedAt), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE onboarding
			SET current_step = ?, answers = ?, reflection = ?, completed_at = ?, updated_at = ?
			WHERE user_id = ?`,
			o.CurrentStep, answers, reflection, completedAt, utils.FormatTimestamp(o.UpdatedAt), userID,
		); err != nil {
			return fmt.Errorf("failed to update onboarding: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Onboarding{}, err
	}
	return o, nil
}

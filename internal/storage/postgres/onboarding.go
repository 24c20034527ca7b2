package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
)

// loadOnboarding reads the user's row. forUpdate locks it for the rest of
// the transaction.
func loadOnboarding(ctx context.Context, q querier, userID string, forUpdate bool) (models.Onboarding, error) {
	query := `
		SELECT user_id, current_step, answers, reflection, started_at, completed_at, updated_at
		FROM onboarding WHERE user_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		o                   models.Onboarding
		answers, reflection sql.NullString
		completedAt         sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, userID).Scan(
		&o.UserID, &o.CurrentStep, &answers, &reflection, &o.StartedAt, &completedAt, &o.UpdatedAt)
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
	o.StartedAt, o.UpdatedAt = o.StartedAt.UTC(), o.UpdatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		o.CompletedAt = &t
	}
	return o, nil
}

func jsonColumn(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return nullContent(b), nil
}

func (s *Store) GetOnboarding(ctx context.Context, userID string) (models.Onboarding, error) {
	return loadOnboarding(ctx, s.db, userID, false)
}

func (s *Store) UpdateOnboarding(ctx context.Context, userID string, now time.Time, fn storage.OnboardingMutator) (models.Onboarding, error) {
	var o models.Onboarding
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO onboarding (user_id, current_step, started_at, updated_at)
			VALUES ($1, 0, $2, $2)
			ON CONFLICT (user_id) DO NOTHING`, userID, now.UTC()); err != nil {
			return fmt.Errorf("failed to ensure onboarding record: %w", err)
		}

		var err error
		o, err = loadOnboarding(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		o.UpdatedAt = now.UTC()
		if err := fn(&o); err != nil {
			return err
		}

		var answers, reflection sql.NullString
		if o.Answers != nil {
			if answers, err = jsonColumn(o.Answers); err != nil {
				return fmt.Errorf("failed to encode onboarding answers: %w", err)
			}
		}
		if o.Reflection != nil {
			if reflection, err = jsonColumn(o.Reflection); err != nil {
				return fmt.Errorf("failed to encode onboarding reflection: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE onboarding
			SET current_step = $1, answers = $2, reflection = $3, completed_at = $4, updated_at = $5
			WHERE user_id = $6`,
			o.CurrentStep, answers, reflection, nullTime(o.CompletedAt), o.UpdatedAt.UTC(), userID,
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

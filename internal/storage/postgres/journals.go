package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pq "github.com/lib/pq"

	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/storage"
)

const journalColumns = `id, user_id, title, content, prompt, is_custom_prompt, word_count, tags,
	is_draft, created_at, updated_at, last_auto_saved`

func scanJournal(row rowScanner) (models.JournalEntry, error) {
	var (
		j             models.JournalEntry
		content       sql.NullString
		lastAutoSaved sql.NullTime
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Title, &content, &j.Prompt, &j.IsCustomPrompt, &j.WordCount,
		pq.Array(&j.Tags), &j.IsDraft, &j.CreatedAt, &j.UpdatedAt, &lastAutoSaved)
	if err != nil {
		return models.JournalEntry{}, err
	}
	if content.Valid {
		j.Content = json.RawMessage(content.String)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	j.CreatedAt, j.UpdatedAt = j.CreatedAt.UTC(), j.UpdatedAt.UTC()
	if lastAutoSaved.Valid {
		t := lastAutoSaved.Time.UTC()
		j.LastAutoSaved = &t
	}
	return j, nil
}

func nullContent(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// validID rejects ids the UUID column cannot hold, which would otherwise
// surface as a driver error instead of a missing row
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) AddJournal(ctx context.Context, j models.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journals (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.ID, j.UserID, j.Title, nullContent(j.Content), j.Prompt, j.IsCustomPrompt, j.WordCount,
		pq.Array(tagsOrEmpty(j.Tags)), j.IsDraft, j.CreatedAt.UTC(), j.UpdatedAt.UTC(), nullTime(j.LastAutoSaved),
	)
	if err != nil {
		return fmt.Errorf("failed to add journal: %w", err)
	}
	return nil
}

func getJournal(ctx context.Context, q querier, id, userID string, forUpdate bool) (models.JournalEntry, error) {
	if !validID(id) {
		return models.JournalEntry{}, storage.ErrNotFound
	}
	query := `SELECT ` + journalColumns + ` FROM journals WHERE id = $1 AND user_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}
	j, err := scanJournal(q.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.JournalEntry{}, storage.ErrNotFound
	}
	return j, err
}

func (s *Store) GetJournal(ctx context.Context, id, userID string) (models.JournalEntry, error) {
	return getJournal(ctx, s.db, id, userID, false)
}

func (s *Store) UpdateJournal(ctx context.Context, id, userID string, fn storage.JournalMutator) (models.JournalEntry, error) {
	var j models.JournalEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		j, err = getJournal(ctx, tx, id, userID, true)
		if err != nil {
			return err
		}

		createdAt := j.CreatedAt
		if err := fn(&j); err != nil {
			return err
		}
		j.ID, j.UserID, j.CreatedAt = id, userID, createdAt

		_, err = tx.ExecContext(ctx, `
			UPDATE journals
			SET title = $1, content = $2, prompt = $3, is_custom_prompt = $4, word_count = $5, tags = $6,
				is_draft = $7, updated_at = $8, last_auto_saved = $9
			WHERE id = $10 AND user_id = $11`,
			j.Title, nullContent(j.Content), j.Prompt, j.IsCustomPrompt, j.WordCount, pq.Array(tagsOrEmpty(j.Tags)),
			j.IsDraft, j.UpdatedAt.UTC(), nullTime(j.LastAutoSaved), id, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to update journal: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.JournalEntry{}, err
	}
	return j, nil
}

func (s *Store) DeleteJournal(ctx context.Context, id, userID string) error {
	if !validID(id) {
		return storage.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM journals WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) queryJournals(ctx context.Context, query string, args ...any) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, j)
	}
	return entries, rows.Err()
}

func (s *Store) ListJournals(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	return s.queryJournals(ctx, `
		SELECT `+journalColumns+`
		FROM journals WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
}

func (s *Store) GetJournalsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.JournalEntry, error) {
	return s.queryJournals(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE user_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at DESC, id DESC`, userID, start.UTC(), end.UTC())
}

func (s *Store) GetAllJournals(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	return s.queryJournals(ctx, `
		SELECT `+journalColumns+`
		FROM journals WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
}

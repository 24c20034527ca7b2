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

var _ storage.Provider = (*Store)(nil)

const journalColumns = `id, user_id, title, content, prompt, is_custom_prompt, word_count, tags,
	is_draft, created_at, updated_at, last_auto_saved`

func scanJournal(row rowScanner) (models.JournalEntry, error) {
	var (
		j                    models.JournalEntry
		content              sql.NullString
		tags                 string
		createdAt, updatedAt string
		lastAutoSaved        sql.NullString
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Title, &content, &j.Prompt, &j.IsCustomPrompt, &j.WordCount, &tags,
		&j.IsDraft, &createdAt, &updatedAt, &lastAutoSaved)
	if err != nil {
		return models.JournalEntry{}, err
	}

	if content.Valid {
		j.Content = json.RawMessage(content.String)
	}
	if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to decode tags for journal %s: %w", j.ID, err)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	if j.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if j.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return models.JournalEntry{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if lastAutoSaved.Valid {
		t, err := utils.ParseTimestamp(lastAutoSaved.String)
		if err != nil {
			return models.JournalEntry{}, fmt.Errorf("failed to parse last_auto_saved: %w", err)
		}
		j.LastAutoSaved = &t
	}
	return j, nil
}

// journalArgs encodes the mutable columns shared by insert and update
func journalArgs(j models.JournalEntry) (content sql.NullString, tags string, lastAutoSaved sql.NullString, err error) {
	if len(j.Content) > 0 {
		content = sql.NullString{String: string(j.Content), Valid: true}
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	b, err := json.Marshal(j.Tags)
	if err != nil {
		return content, "", lastAutoSaved, fmt.Errorf("failed to encode tags: %w", err)
	}
	if j.LastAutoSaved != nil {
		lastAutoSaved = sql.NullString{String: utils.FormatTimestamp(*j.LastAutoSaved), Valid: true}
	}
	return content, string(b), lastAutoSaved, nil
}

func (s *Store) AddJournal(ctx context.Context, j models.JournalEntry) error {
	content, tags, lastAutoSaved, err := journalArgs(j)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journals (`+journalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.Title, content, j.Prompt, j.IsCustomPrompt, j.WordCount, tags,
		j.IsDraft, utils.FormatTimestamp(j.CreatedAt), utils.FormatTimestamp(j.UpdatedAt), lastAutoSaved,
	)
	if err != nil {
		return fmt.Errorf("failed to add journal: %w", err)
	}
	return nil
}

func getJournal(ctx context.Context, q querier, id, userID string) (models.JournalEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+journalColumns+`
		FROM journals WHERE id = ? AND user_id = ?`, id, userID)
	j, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JournalEntry{}, storage.ErrNotFound
	}
	return j, err
}

func (s *Store) GetJournal(ctx context.Context, id, userID string) (models.JournalEntry, error) {
	return getJournal(ctx, s.db, id, userID)
}

func (s *Store) UpdateJournal(ctx context.Context, id, userID string, fn storage.JournalMutator) (models.JournalEntry, error) {
	var j models.JournalEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		j, err = getJournal(ctx, tx, id, userID)
		if err != nil {
			return err
		}

		createdAt := j.CreatedAt
		if err := fn(&j); err != nil {
			return err
		}
		// identity is fixed
		j.ID, j.UserID, j.CreatedAt = id, userID, createdAt

		content, tags, lastAutoSaved, err := journalArgs(j)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE journals
			SET title = ?, content = ?, prompt = ?, is_custom_prompt = ?, word_count = ?, tags = ?,
				is_draft = ?, updated_at = ?, last_auto_saved = ?
			WHERE id = ? AND user_id = ?`,
			j.Title, content, j.Prompt, j.IsCustomPrompt, j.WordCount, tags,
			j.IsDraft, utils.FormatTimestamp(j.UpdatedAt), lastAutoSaved, id, userID,
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
	res, err := s.db.ExecContext(ctx, "DELETE FROM journals WHERE id = ? AND user_id = ?", id, userID)
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
		FROM journals WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
}

func (s *Store) GetJournalsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.JournalEntry, error) {
	return s.queryJournals(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC, id DESC`,
		userID, utils.FormatTimestamp(start), utils.FormatTimestamp(end))
}

func (s *Store) GetAllJournals(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	return s.queryJournals(ctx, `
		SELECT `+journalColumns+`
		FROM journals WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
}

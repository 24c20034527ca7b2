package ledger

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/innerlog/internal/constants"
	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/utils"
)

type NewJournal struct {
	UserID         string
	Title          string
	Prompt         string
	IsCustomPrompt bool
}

// SaveContent is the payload of an explicit save. A nil IsDraft keeps the
// entry's current draft state.
type SaveContent struct {
	ID        string
	UserID    string
	Content   json.RawMessage
	WordCount int
	IsDraft   *bool
}

func validateContent(content json.RawMessage, wordCount int) error {
	if len(content) > 0 && !json.Valid(content) {
		return ierrors.Invalid("content", "must be valid JSON")
	}
	if wordCount < 0 {
		return ierrors.Invalid("word_count", "must be non-negative, got %d", wordCount)
	}
	return nil
}

func requireJournal(id, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ierrors.Invalid("journal_id", "cannot be empty")
	}
	return nil
}

// CreateJournal inserts a new draft and returns it
func (l *Ledger) CreateJournal(ctx context.Context, in NewJournal) (models.JournalEntry, error) {
	if err := requireUser(in.UserID); err != nil {
		return models.JournalEntry{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = constants.DefaultJournalTitle
	}

	now := l.clock()
	entry := models.JournalEntry{
		ID:             l.newID(),
		UserID:         in.UserID,
		Title:          title,
		Prompt:         in.Prompt,
		IsCustomPrompt: in.IsCustomPrompt,
		Tags:           []string{},
		IsDraft:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := entry.Validate(); err != nil {
		return models.JournalEntry{}, ierrors.Invalid("journal", "%v", err)
	}
	if err := l.store.AddJournal(ctx, entry); err != nil {
		return models.JournalEntry{}, mapErr("create journal", err)
	}
	logger.Debug("Created journal", "user", in.UserID, "id", entry.ID)
	return entry, nil
}

func (l *Ledger) GetJournal(ctx context.Context, id, userID string) (models.JournalEntry, error) {
	if err := requireJournal(id, userID); err != nil {
		return models.JournalEntry{}, err
	}
	entry, err := l.store.GetJournal(ctx, id, userID)
	if err != nil {
		return models.JournalEntry{}, mapErr("get journal", err)
	}
	return entry, nil
}

func (l *Ledger) update(ctx context.Context, op, id, userID string, fn func(*models.JournalEntry)) (models.JournalEntry, error) {
	if err := requireJournal(id, userID); err != nil {
		return models.JournalEntry{}, err
	}
	now := l.clock()
	entry, err := l.store.UpdateJournal(ctx, id, userID, func(j *models.JournalEntry) error {
		fn(j)
		j.UpdatedAt = now
		if err := j.Validate(); err != nil {
			return ierrors.Invalid("journal", "%v", err)
		}
		return nil
	})
	if err != nil {
		return models.JournalEntry{}, mapErr(op, err)
	}
	return entry, nil
}

// SaveContent stores content and, when the saved entry is not a draft,
// credits today's streak. The credit happens once per call; the streak
// itself is idempotent per day.
func (l *Ledger) SaveContent(ctx context.Context, in SaveContent) (models.JournalEntry, error) {
	if err := validateContent(in.Content, in.WordCount); err != nil {
		return models.JournalEntry{}, err
	}
	entry, err := l.update(ctx, "save journal", in.ID, in.UserID, func(j *models.JournalEntry) {
		j.Content = in.Content
		j.WordCount = in.WordCount
		if in.IsDraft != nil {
			j.IsDraft = *in.IsDraft
		}
		saved := l.clock()
		j.LastAutoSaved = &saved
	})
	if err != nil {
		return models.JournalEntry{}, err
	}

	if !entry.IsDraft {
		if _, err := l.CreditActivityForToday(ctx, in.UserID); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// AutoSave stores content without touching the draft flag or the streak
func (l *Ledger) AutoSave(ctx context.Context, id, userID string, content json.RawMessage, wordCount int) (models.JournalEntry, error) {
	if err := validateContent(content, wordCount); err != nil {
		return models.JournalEntry{}, err
	}
	return l.update(ctx, "autosave journal", id, userID, func(j *models.JournalEntry) {
		j.Content = content
		j.WordCount = wordCount
		saved := l.clock()
		j.LastAutoSaved = &saved
	})
}

func (l *Ledger) UpdateTitle(ctx context.Context, id, userID, title string) (models.JournalEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.JournalEntry{}, ierrors.Invalid("title", "cannot be empty")
	}
	return l.update(ctx, "update journal title", id, userID, func(j *models.JournalEntry) {
		j.Title = title
	})
}

func (l *Ledger) UpdatePrompt(ctx context.Context, id, userID, prompt string, isCustom bool) (models.JournalEntry, error) {
	return l.update(ctx, "update journal prompt", id, userID, func(j *models.JournalEntry) {
		j.Prompt = prompt
		j.IsCustomPrompt = isCustom
	})
}

// UpdateTags replaces the whole tag set
func (l *Ledger) UpdateTags(ctx context.Context, id, userID string, tags []string) (models.JournalEntry, error) {
	normalized := models.NormalizeTags(tags)
	return l.update(ctx, "update journal tags", id, userID, func(j *models.JournalEntry) {
		j.Tags = normalized
	})
}

func (l *Ledger) DeleteJournal(ctx context.Context, id, userID string) error {
	if err := requireJournal(id, userID); err != nil {
		return err
	}
	if err := l.store.DeleteJournal(ctx, id, userID); err != nil {
		return mapErr("delete journal", err)
	}
	logger.Info("Deleted journal", "user", userID, "id", id)
	return nil
}

// ListJournals returns the newest entries first. Zero limit means the
// default; other values are clamped to [1, 200].
func (l *Ledger) ListJournals(ctx context.Context, userID string, limit int, includeDrafts bool) ([]models.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = constants.DefaultJournalLimit
	}
	limit = utils.ClampInt(limit, 1, constants.MaxJournalLimit)

	entries, err := l.store.ListJournals(ctx, userID, limit)
	if err != nil {
		return nil, mapErr("list journals", err)
	}
	if includeDrafts {
		return entries, nil
	}
	published := entries[:0]
	for _, e := range entries {
		if !e.IsDraft {
			published = append(published, e)
		}
	}
	return published, nil
}

// ExportFormat selects the encoding used by ExportJournals
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// exportedJournal carries content as a decoded value so that YAML output
// nests it instead of emitting raw bytes.
type exportedJournal struct {
	models.JournalEntry `yaml:",inline"`
	Body                interface{} `json:"-" yaml:"content,omitempty"`
}

// ExportJournals writes every entry owned by userID to w and returns the count
func (l *Ledger) ExportJournals(ctx context.Context, userID string, format ExportFormat, w io.Writer) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	if format != ExportJSON && format != ExportYAML {
		return 0, ierrors.Invalid("format", "expected json or yaml, got %q", format)
	}
	entries, err := l.store.GetAllJournals(ctx, userID)
	if err != nil {
		return 0, mapErr("export journals", err)
	}

	if format == ExportJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return len(entries), enc.Encode(entries)
	}

	out := make([]exportedJournal, 0, len(entries))
	for _, e := range entries {
		item := exportedJournal{JournalEntry: e}
		if len(e.Content) > 0 {
			if err := json.Unmarshal(e.Content, &item.Body); err != nil {
				return 0, err
			}
		}
		out = append(out, item)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return 0, err
	}
	return len(out), enc.Close()
}

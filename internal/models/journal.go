package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JournalEntry is one journal document. Content is an opaque rich-text payload
// stored and returned verbatim; nil means no content has been saved yet.
type JournalEntry struct {
	ID             string          `json:"id" yaml:"id"`
	UserID         string          `json:"user_id" yaml:"user_id"`
	Title          string          `json:"title" yaml:"title"`
	Content        json.RawMessage `json:"content,omitempty" yaml:"-"`
	Prompt         string          `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	IsCustomPrompt bool            `json:"is_custom_prompt" yaml:"is_custom_prompt"`
	WordCount      int             `json:"word_count" yaml:"word_count"`
	Tags           []string        `json:"tags" yaml:"tags"`
	IsDraft        bool            `json:"is_draft" yaml:"is_draft"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" yaml:"updated_at"`
	LastAutoSaved  *time.Time      `json:"last_auto_saved,omitempty" yaml:"last_auto_saved,omitempty"`
}

// HasTag reports whether tag is in the entry's tag set
func (j *JournalEntry) HasTag(tag string) bool {
	for _, t := range j.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (j *JournalEntry) Validate() error {
	if j.UserID == "" {
		return fmt.Errorf("journal owner cannot be empty")
	}
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("journal title cannot be empty")
	}
	if j.WordCount < 0 {
		return fmt.Errorf("word count cannot be negative")
	}
	if len(j.Content) > 0 && !json.Valid(j.Content) {
		return fmt.Errorf("journal content is not valid JSON")
	}
	return nil
}

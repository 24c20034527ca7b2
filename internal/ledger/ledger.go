// Package ledger implements the activity ledger and streak engine: daily
// practice aggregates, the per-user streak record and the journal ledger.
//
// Every operation takes an explicit, already authenticated user id. Day
// bucketing is always by UTC calendar day.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	ierrors "github.com/julianstephens/innerlog/internal/errors"
	"github.com/julianstephens/innerlog/internal/storage"
)

// Ledger is safe for concurrent use; atomicity per entity comes from the store.
type Ledger struct {
	store storage.Provider
	now   func() time.Time
	newID func() string
}

type Option func(*Ledger)

// WithClock overrides the time source used for "today"
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDGenerator overrides journal id generation
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		l.newID = fn
	}
}

func New(store storage.Provider, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store exposes the underlying provider for lifecycle commands
func (l *Ledger) Store() storage.Provider {
	return l.store
}

func (l *Ledger) clock() time.Time {
	return l.now().UTC()
}

// mapErr converts store errors into the ledger taxonomy. Validation errors
// raised inside mutators pass through untouched.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ierrors.ErrNotFoundOrForbidden
	case ierrors.IsValidation(err),
		errors.Is(err, ierrors.ErrNotFoundOrForbidden),
		errors.Is(err, ierrors.ErrStoreUnavailable):
		return err
	default:
		return ierrors.Unavailable(op, err)
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ierrors.Invalid("user_id", "cannot be empty")
	}
	return nil
}

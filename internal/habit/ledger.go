package habit

import (
	"fmt"
	"slices"
	"time"

	"github.com/rlindsey/tally/internal/apperr"
	"github.com/rlindsey/tally/internal/model"
	"github.com/rlindsey/tally/internal/store"
)

// Ledger is the write/read API for daily completions. Marking is idempotent
// per (user, habit, day): the store's unique constraint decides, not a
// check-then-insert race.
type Ledger struct {
	habits      *store.HabitStore
	completions *store.CompletionStore
}

func NewLedger(hs *store.HabitStore, cs *store.CompletionStore) *Ledger {
	return &Ledger{habits: hs, completions: cs}
}

// MarkComplete records that the habit was done on the given day. The habit
// must exist, belong to the user, and be active. Returns created=false when
// the day was already marked; that is success, not a conflict.
func (l *Ledger) MarkComplete(userID, habitID int64, date string) (bool, error) {
	day, err := NormalizeDay(date)
	if err != nil {
		return false, err
	}

	h, err := l.habits.GetByID(userID, habitID)
	if err != nil {
		return false, fmt.Errorf("check habit: %w", err)
	}
	if h == nil || !h.IsActive {
		return false, apperr.ErrNotFound
	}

	created, err := l.completions.Insert(userID, habitID, day)
	if err != nil {
		return false, fmt.Errorf("mark complete: %w", err)
	}
	return created, nil
}

// UnmarkComplete deletes the completion for the given day. The habit may be
// inactive, since the record can pre-date deactivation, but it must belong
// to the user. A missing record is NotFound.
func (l *Ledger) UnmarkComplete(userID, habitID int64, date string) error {
	day, err := NormalizeDay(date)
	if err != nil {
		return err
	}

	removed, err := l.completions.Delete(userID, habitID, day)
	if err != nil {
		return fmt.Errorf("unmark complete: %w", err)
	}
	if !removed {
		return apperr.ErrNotFound
	}
	return nil
}

// ListCompletions returns the habit's completions with dates in
// [start, end], both ends inclusive, ascending. The habit must belong to
// the user but need not be active.
func (l *Ledger) ListCompletions(userID, habitID int64, start, end string) ([]model.Completion, error) {
	startDay, err := NormalizeDay(start)
	if err != nil {
		return nil, err
	}
	endDay, err := NormalizeDay(end)
	if err != nil {
		return nil, err
	}
	if startDay > endDay {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", apperr.ErrInvalidInput, startDay, endDay)
	}

	h, err := l.habits.GetByID(userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("check habit: %w", err)
	}
	if h == nil {
		return nil, apperr.ErrNotFound
	}

	return l.completions.ListByHabit(userID, habitID, startDay, endDay)
}

// RecentCompletions returns the habit's completions from the last given
// number of days, most recent first.
func (l *Ledger) RecentCompletions(userID, habitID int64, days int) ([]model.Completion, error) {
	today := time.Now()
	completions, err := l.ListCompletions(userID, habitID,
		FormatDay(today.AddDate(0, 0, -days)), FormatDay(today))
	if err != nil {
		return nil, err
	}
	slices.Reverse(completions)
	return completions, nil
}

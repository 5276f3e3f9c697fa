// Package habit holds the habit registry and the completion ledger: who owns
// which habit, and which days each habit was done. Both are thin, stateless
// layers over the sqlite stores; ownership checks and the not-found
// uniformity rule live here rather than in handlers.
package habit

import (
	"fmt"

	"github.com/rlindsey/tally/internal/apperr"
	"github.com/rlindsey/tally/internal/model"
	"github.com/rlindsey/tally/internal/store"
)

// Registry owns habit identity and active/inactive state.
type Registry struct {
	habits *store.HabitStore
}

func NewRegistry(hs *store.HabitStore) *Registry {
	return &Registry{habits: hs}
}

func (r *Registry) Create(userID int64, title, description, color string) (*model.Habit, error) {
	if color == "" {
		color = model.DefaultHabitColor
	}
	h, err := r.habits.Create(userID, title, description, color)
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

func (r *Registry) Get(userID, id int64) (*model.Habit, error) {
	h, err := r.habits.GetByID(userID, id)
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	if h == nil {
		return nil, apperr.ErrNotFound
	}
	return h, nil
}

// ListActive returns the user's active habits, newest first.
func (r *Registry) ListActive(userID int64) ([]model.Habit, error) {
	return r.habits.ListActive(userID)
}

// Update applies the set fields of upd. An update with nothing set is
// rejected rather than silently succeeding.
func (r *Registry) Update(userID, id int64, upd model.HabitUpdate) (*model.Habit, error) {
	if upd.IsZero() {
		return nil, fmt.Errorf("%w: no fields to update", apperr.ErrInvalidInput)
	}
	existing, err := r.habits.GetByID(userID, id)
	if err != nil {
		return nil, fmt.Errorf("check habit: %w", err)
	}
	if existing == nil {
		return nil, apperr.ErrNotFound
	}
	h, err := r.habits.Update(userID, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return h, nil
}

// Deactivate soft-deletes a habit: it disappears from ledger writes and
// active listings while its completion history stays intact.
func (r *Registry) Deactivate(userID, id int64) error {
	existing, err := r.habits.GetByID(userID, id)
	if err != nil {
		return fmt.Errorf("check habit: %w", err)
	}
	if existing == nil {
		return apperr.ErrNotFound
	}
	if err := r.habits.Deactivate(userID, id); err != nil {
		return fmt.Errorf("deactivate habit: %w", err)
	}
	return nil
}

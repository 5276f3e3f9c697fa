package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rlindsey/tally/internal/model"
)

// HabitStore persists habits. Every query is scoped by user id; a habit id
// belonging to another user behaves exactly like one that does not exist.
type HabitStore struct {
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db}
}

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	err := scanner.Scan(&h.ID, &h.UserID, &h.Title, &h.Description, &h.Color, &h.CreatedAt, &h.IsActive)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const habitCols = `id, user_id, title, description, color, created_at, is_active`

func (s *HabitStore) Create(userID int64, title, description, color string) (*model.Habit, error) {
	result, err := s.db.Exec(
		`INSERT INTO habits (user_id, title, description, color) VALUES (?, ?, ?, ?)`,
		userID, title, description, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *HabitStore) GetByID(userID, id int64) (*model.Habit, error) {
	row := s.db.QueryRow(
		`SELECT `+habitCols+` FROM habits WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

// ListActive returns the user's active habits, most recently created first.
func (s *HabitStore) ListActive(userID int64) ([]model.Habit, error) {
	rows, err := s.db.Query(
		`SELECT `+habitCols+` FROM habits WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// Update applies the set fields of upd and returns the updated habit, or
// nil when the habit does not exist for this user. Callers must reject an
// all-unset update before reaching the store.
func (s *HabitStore) Update(userID, id int64, upd model.HabitUpdate) (*model.Habit, error) {
	var sets []string
	var args []any

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *upd.Color)
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *upd.IsActive)
	}
	if len(sets) == 0 {
		return s.GetByID(userID, id)
	}

	args = append(args, id, userID)
	_, err := s.db.Exec(
		`UPDATE habits SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return s.GetByID(userID, id)
}

// Deactivate soft-deletes a habit. Completion history is left in place.
func (s *HabitStore) Deactivate(userID, id int64) error {
	_, err := s.db.Exec(
		`UPDATE habits SET is_active = 0 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deactivate habit: %w", err)
	}
	return nil
}

// CountActive returns the number of active habits owned by the user.
func (s *HabitStore) CountActive(userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM habits WHERE user_id = ? AND is_active = 1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}

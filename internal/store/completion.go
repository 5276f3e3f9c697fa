package store

import (
	"database/sql"
	"fmt"

	"github.com/rlindsey/tally/internal/model"
)

// CompletionStore persists daily completion records. The table carries a
// UNIQUE(user_id, habit_id, completion_date) constraint; Insert leans on it
// for atomic insert-if-absent, so two concurrent marks of the same day
// cannot produce a duplicate row.
type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	err := scanner.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const completionCols = `id, user_id, habit_id, completion_date, created_at`

// Insert records a completion for (user, habit, date) unless one already
// exists. Returns created=false when the row was already present.
func (s *CompletionStore) Insert(userID, habitID int64, date string) (bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO habit_completions (user_id, habit_id, completion_date)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, habit_id, completion_date) DO NOTHING`,
		userID, habitID, date,
	)
	if err != nil {
		return false, fmt.Errorf("insert completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete removes the completion for the exact (user, habit, date) key.
// Returns removed=false when no row matched.
func (s *CompletionStore) Delete(userID, habitID int64, date string) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ? AND completion_date = ?`,
		userID, habitID, date,
	)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByHabit returns a habit's completions with dates in [start, end],
// both ends inclusive, ascending by date.
func (s *CompletionStore) ListByHabit(userID, habitID int64, start, end string) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM habit_completions
		 WHERE user_id = ? AND habit_id = ? AND completion_date BETWEEN ? AND ?
		 ORDER BY completion_date ASC`,
		userID, habitID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// DistinctDates returns the days in [start, end] on which the user recorded
// at least one completion, across all habits including inactive ones,
// descending by date.
func (s *CompletionStore) DistinctDates(userID int64, start, end string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT completion_date FROM habit_completions
		 WHERE user_id = ? AND completion_date BETWEEN ? AND ?
		 ORDER BY completion_date DESC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("distinct dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// GroupByDate aggregates the user's completions on active habits per day
// within [start, end], ascending by date. Days with no completions are
// absent from the result.
func (s *CompletionStore) GroupByDate(userID int64, start, end string) ([]model.DateBucket, error) {
	rows, err := s.db.Query(
		`SELECT hc.completion_date, h.title
		 FROM habit_completions hc
		 JOIN habits h ON hc.habit_id = h.id
		 WHERE hc.user_id = ? AND hc.completion_date BETWEEN ? AND ? AND h.is_active = 1
		 ORDER BY hc.completion_date ASC, h.title ASC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("group completions: %w", err)
	}
	defer rows.Close()

	var buckets []model.DateBucket
	for rows.Next() {
		var date, title string
		if err := rows.Scan(&date, &title); err != nil {
			return nil, fmt.Errorf("scan bucket row: %w", err)
		}
		if n := len(buckets); n > 0 && buckets[n-1].Date == date {
			buckets[n-1].Count++
			buckets[n-1].HabitTitles = append(buckets[n-1].HabitTitles, title)
			continue
		}
		buckets = append(buckets, model.DateBucket{
			Date:        date,
			Count:       1,
			HabitTitles: []string{title},
		})
	}
	return buckets, rows.Err()
}

// CountAll returns the user's total completion count across all habits,
// inactive ones included.
func (s *CompletionStore) CountAll(userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM habit_completions WHERE user_id = ?`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}

// CountSince returns the number of completions dated on or after the given
// day.
func (s *CompletionStore) CountSince(userID int64, date string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM habit_completions WHERE user_id = ? AND completion_date >= ?`,
		userID, date,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions since: %w", err)
	}
	return n, nil
}

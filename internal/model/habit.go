package model

import "time"

// DefaultHabitColor is applied when a habit is created without a color.
const DefaultHabitColor = "#4285f4"

type Habit struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

// HabitUpdate is a sparse update: nil fields are left unchanged.
type HabitUpdate struct {
	Title       *string
	Description *string
	Color       *string
	IsActive    *bool
}

// IsZero reports whether no field is set.
func (u HabitUpdate) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.Color == nil && u.IsActive == nil
}

// Completion records that a habit was done on a calendar day. Date carries
// no time-of-day component and is always in YYYY-MM-DD form; CreatedAt is
// when the record was written, which may be days later.
type Completion struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	HabitID   int64     `json:"habit_id"`
	Date      string    `json:"completion_date"`
	CreatedAt time.Time `json:"created_at"`
}

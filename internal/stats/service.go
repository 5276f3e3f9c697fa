// Package stats derives summary figures from the completion ledger: the
// consecutive-day streak, per-date aggregates for heatmap rendering, and
// the dashboard summary. Nothing here is cached; every call recomputes from
// whatever the stores currently hold.
package stats

import (
	"fmt"
	"time"

	"github.com/rlindsey/tally/internal/apperr"
	"github.com/rlindsey/tally/internal/habit"
	"github.com/rlindsey/tally/internal/model"
	"github.com/rlindsey/tally/internal/store"
)

type Service struct {
	habits      *store.HabitStore
	completions *store.CompletionStore
	ledger      *habit.Ledger
	weekStart   time.Weekday
	now         func() time.Time
}

func NewService(hs *store.HabitStore, cs *store.CompletionStore, l *habit.Ledger, weekStart time.Weekday) *Service {
	return &Service{
		habits:      hs,
		completions: cs,
		ledger:      l,
		weekStart:   weekStart,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Tests pin "today" with this.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CurrentStreak computes the user's consecutive-day streak ending today or
// yesterday, looking back at most a year.
func (s *Service) CurrentStreak(userID int64) (int, error) {
	return s.streakAt(userID, s.now())
}

func (s *Service) streakAt(userID int64, today time.Time) (int, error) {
	windowStart := today.AddDate(0, 0, -streakWindowDays)
	dates, err := s.completions.DistinctDates(userID, habit.FormatDay(windowStart), habit.FormatDay(today))
	if err != nil {
		return 0, fmt.Errorf("streak dates: %w", err)
	}

	days := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		days[d] = struct{}{}
	}
	return currentStreak(days, today), nil
}

// PerHabit returns the days one habit was completed within the range,
// ascending. Empty bounds default to January 1 of the current year and
// today respectively.
func (s *Service) PerHabit(userID, habitID int64, start, end string) ([]string, error) {
	start, end = s.applyDefaultRange(start, end, s.now())
	completions, err := s.ledger.ListCompletions(userID, habitID, start, end)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(completions))
	for _, c := range completions {
		dates = append(dates, c.Date)
	}
	return dates, nil
}

// Heatmap groups completions on the user's active habits by day within the
// range. Days with no completions are omitted.
func (s *Service) Heatmap(userID int64, start, end string) ([]model.DateBucket, error) {
	start, end = s.applyDefaultRange(start, end, s.now())
	startDay, err := habit.NormalizeDay(start)
	if err != nil {
		return nil, err
	}
	endDay, err := habit.NormalizeDay(end)
	if err != nil {
		return nil, err
	}
	if startDay > endDay {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", apperr.ErrInvalidInput, startDay, endDay)
	}

	return s.completions.GroupByDate(userID, startDay, endDay)
}

// Summary assembles the four dashboard figures. They are computed
// independently against the live store; a write landing between two of the
// counts may be visible in one and not the other.
func (s *Service) Summary(userID int64) (*model.Summary, error) {
	today := s.now()

	totalHabits, err := s.habits.CountActive(userID)
	if err != nil {
		return nil, fmt.Errorf("summary habits: %w", err)
	}

	totalCompletions, err := s.completions.CountAll(userID)
	if err != nil {
		return nil, fmt.Errorf("summary completions: %w", err)
	}

	streak, err := s.streakAt(userID, today)
	if err != nil {
		return nil, fmt.Errorf("summary streak: %w", err)
	}

	weekCompletions, err := s.completions.CountSince(userID, habit.FormatDay(weekStartDay(today, s.weekStart)))
	if err != nil {
		return nil, fmt.Errorf("summary week: %w", err)
	}

	return &model.Summary{
		TotalHabits:      totalHabits,
		TotalCompletions: totalCompletions,
		CurrentStreak:    streak,
		WeekCompletions:  weekCompletions,
	}, nil
}

// applyDefaultRange fills empty bounds from a single "now" so streak and
// range views computed in one request agree on what today is.
func (s *Service) applyDefaultRange(start, end string, now time.Time) (string, string) {
	if start == "" {
		start = habit.FormatDay(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()))
	}
	if end == "" {
		end = habit.FormatDay(now)
	}
	return start, end
}

// weekStartDay returns the most recent day-of-week boundary at or before
// today.
func weekStartDay(today time.Time, start time.Weekday) time.Time {
	offset := (int(today.Weekday()) - int(start) + 7) % 7
	return today.AddDate(0, 0, -offset)
}

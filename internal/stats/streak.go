package stats

import (
	"time"

	"github.com/rlindsey/tally/internal/habit"
)

// streakWindowDays bounds the completion-history scan. A streak longer than
// the window reports as the window length; that approximation keeps the
// query cost fixed.
const streakWindowDays = 365

// currentStreak counts consecutive completed days walking backward from
// today. The walk anchors on today if today is completed, otherwise on
// yesterday; if the most recent completed day is older than that, the
// streak is broken and the count is 0.
func currentStreak(days map[string]struct{}, today time.Time) int {
	anchor := today
	if _, ok := days[habit.FormatDay(anchor)]; !ok {
		anchor = today.AddDate(0, 0, -1)
		if _, ok := days[habit.FormatDay(anchor)]; !ok {
			return 0
		}
	}

	streak := 0
	for day := anchor; ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[habit.FormatDay(day)]; !ok {
			break
		}
		streak++
	}
	return streak
}

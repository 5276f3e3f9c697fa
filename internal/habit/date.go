package habit

import (
	"fmt"
	"time"

	"github.com/rlindsey/tally/internal/apperr"
)

// DayFormat is the calendar-date form used everywhere past the HTTP
// boundary: no time zone, no time of day.
const DayFormat = "2006-01-02"

// NormalizeDay reduces a caller-supplied date to YYYY-MM-DD. Full RFC 3339
// timestamps are accepted and truncated to their date part.
func NormalizeDay(s string) (string, error) {
	if t, err := time.Parse(DayFormat, s); err == nil {
		return t.Format(DayFormat), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(DayFormat), nil
	}
	return "", fmt.Errorf("%w: date %q is not YYYY-MM-DD or RFC 3339", apperr.ErrInvalidInput, s)
}

// FormatDay renders the calendar date of t.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a normalized YYYY-MM-DD date at midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

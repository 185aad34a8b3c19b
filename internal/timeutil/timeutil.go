package timeutil

import (
	"fmt"
	"time"
)

var defaultLocation = time.UTC

// ResolveLocation returns the user's location with UTC fallback.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, true
	}
	return loc, false
}

// ParseDateTime parses a datetime in either RFC3339 (with explicit offset) or local layouts in the provided timezone.
func ParseDateTime(value, timezone string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("time value is required")
	}

	// If timezone/offset exists, preserve it.
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	loc, _ := ResolveLocation(timezone)

	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time: %s", value)
}

// ParseDate parses a date-only string in the provided timezone at midnight.
func ParseDate(value, timezone string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date value is required")
	}

	loc, _ := ResolveLocation(timezone)
	if d, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return d, nil
	}
	// Payloads sometimes carry a full timestamp for all-day events.
	t, err := ParseDateTime(value, timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// FormatEventTime renders an event start for user-facing messages,
// e.g. "Thu 15/02 at 14:00" or "Sun 25/01 (all day)".
func FormatEventTime(start time.Time, allDay bool, timezone string) string {
	loc, _ := ResolveLocation(timezone)
	local := start.In(loc)
	if allDay {
		return local.Format("Mon 02/01") + " (all day)"
	}
	return local.Format("Mon 02/01") + " at " + local.Format("15:04")
}

// FormatRange renders a start/end pair for confirmation messages.
func FormatRange(start, end time.Time, allDay bool, timezone string) string {
	loc, _ := ResolveLocation(timezone)
	s := start.In(loc)
	if allDay {
		return s.Format("Mon 02/01/2006") + " (all day)"
	}
	e := end.In(loc)
	if s.Year() == e.Year() && s.YearDay() == e.YearDay() {
		return fmt.Sprintf("%s %s-%s", s.Format("Mon 02/01/2006"), s.Format("15:04"), e.Format("15:04"))
	}
	return fmt.Sprintf("%s %s - %s %s", s.Format("Mon 02/01/2006"), s.Format("15:04"), e.Format("Mon 02/01/2006"), e.Format("15:04"))
}

// NowContext renders the current time the way the classifier prompt expects it.
func NowContext(now time.Time, timezone string) string {
	loc, _ := ResolveLocation(timezone)
	return now.In(loc).Format("Monday, 02/01/2006, 15:04 (MST)")
}

package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/timeutil"
)

const (
	searchWindowDays = 60
	maxChoices       = 5
	searchMaxResults = 25
)

// findByHint searches the next 60 days for events matching the user's
// free-text hint.
func findByHint(ctx context.Context, cal Calendar, userID int64, hint string, now time.Time) ([]gcal.EventDetails, error) {
	from := now.Add(-1 * time.Hour)
	to := now.AddDate(0, 0, searchWindowDays)
	return cal.SearchEvents(ctx, userID, hint, from, to, searchMaxResults)
}

func candidatesFrom(events []gcal.EventDetails, timezone string) []EventCandidate {
	if len(events) > maxChoices {
		events = events[:maxChoices]
	}
	candidates := make([]EventCandidate, len(events))
	for i, ev := range events {
		candidates[i] = EventCandidate{
			EventID:       ev.ID,
			Summary:       ev.Summary,
			FormattedTime: timeutil.FormatEventTime(ev.StartTime, ev.AllDay, timezone),
		}
	}
	return candidates
}

func formatChoices(candidates []EventCandidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, c.Summary, c.FormattedTime)
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseChoice reads a reply like "2" or "the second one" against the
// candidate list; ok is false when the reply picks nothing.
func parseChoice(text string, count int) (int, bool) {
	cleaned := normalizePhrase(text)
	cleaned = strings.TrimPrefix(cleaned, "number ")
	cleaned = strings.TrimPrefix(cleaned, "option ")

	if n, err := strconv.Atoi(strings.TrimSpace(cleaned)); err == nil {
		if n >= 1 && n <= count {
			return n - 1, true
		}
		return 0, false
	}

	ordinals := []string{"first", "second", "third", "fourth", "fifth"}
	for i, word := range ordinals {
		if i < count && strings.Contains(cleaned, word) {
			return i, true
		}
	}
	return 0, false
}

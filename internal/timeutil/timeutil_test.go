package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocation(t *testing.T) {
	loc, fallback := ResolveLocation("Asia/Jerusalem")
	require.False(t, fallback)
	require.Equal(t, "Asia/Jerusalem", loc.String())

	loc, fallback = ResolveLocation("")
	require.True(t, fallback)
	require.Equal(t, time.UTC, loc)

	loc, fallback = ResolveLocation("Not/AZone")
	require.True(t, fallback)
	require.Equal(t, time.UTC, loc)
}

func TestParseDateTime(t *testing.T) {
	// An explicit offset is preserved as-is, ignoring the user's timezone.
	got, err := ParseDateTime("2026-03-10T14:00:00+02:00", "Asia/Jerusalem")
	require.NoError(t, err)
	_, offset := got.Zone()
	assert.Equal(t, 2*3600, offset)
	assert.Equal(t, 14, got.Hour())

	// Local layouts resolve in the user's timezone.
	got, err = ParseDateTime("2026-03-10T14:00", "Asia/Jerusalem")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jerusalem", got.Location().String())
	assert.Equal(t, 14, got.Hour())

	got, err = ParseDateTime("2026-03-10 14:00:00", "")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())

	_, err = ParseDateTime("", "Asia/Jerusalem")
	assert.Error(t, err)

	_, err = ParseDateTime("next tuesday", "Asia/Jerusalem")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-10", "Asia/Jerusalem")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, "Asia/Jerusalem", got.Location().String())

	// A full timestamp is truncated to local midnight.
	got, err = ParseDate("2026-03-10T18:30:00", "Asia/Jerusalem")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 10, got.Day())

	_, err = ParseDate("not a date", "Asia/Jerusalem")
	assert.Error(t, err)
}

func TestFormatEventTime(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Jerusalem is UTC+2 on this date.
	assert.Equal(t, "Tue 10/03 at 14:00", FormatEventTime(start, false, "Asia/Jerusalem"))
	assert.Equal(t, "Tue 10/03 (all day)", FormatEventTime(start, true, "Asia/Jerusalem"))
}

func TestFormatRange(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	sameDay := FormatRange(start, start.Add(time.Hour), false, "")
	assert.Equal(t, "Tue 10/03/2026 09:00-10:00", sameDay)

	crossDay := FormatRange(start, start.Add(20*time.Hour), false, "")
	assert.Equal(t, "Tue 10/03/2026 09:00 - Wed 11/03/2026 05:00", crossDay)

	allDay := FormatRange(start, start.Add(24*time.Hour), true, "")
	assert.Equal(t, "Tue 10/03/2026 (all day)", allDay)
}

package briefing

import (
	"fmt"
	"strings"
	"time"

	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/timeutil"
)

// FormatBriefing renders the morning summary text.
func FormatBriefing(user *database.User, events []gcal.EventDetails, local time.Time) string {
	name := user.Nickname
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Good morning, %s! ☀️\n", name)

	if len(events) == 0 {
		b.WriteString("Your calendar is clear today. Enjoy it!")
		return b.String()
	}

	fmt.Fprintf(&b, "You have %s today:\n", plural(len(events), "event"))
	for _, ev := range events {
		fmt.Fprintf(&b, "• %s — %s", ev.Summary, timeutil.FormatEventTime(ev.StartTime, ev.AllDay, user.Timezone))
		if ev.Location != "" {
			fmt.Fprintf(&b, " (%s)", ev.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

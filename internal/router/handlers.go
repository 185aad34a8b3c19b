package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/timeutil"
)

const (
	replyAuthRequired  = "I've lost access to your Google Calendar. Please reconnect with /connect and try again."
	replyCalendarError = "Something went wrong talking to your calendar. Please try again in a moment."
)

func calendarErrorReply(op string, err error) string {
	fmt.Printf("Router: %s failed: %v\n", op, err)
	if gcal.OutcomeOf(err) == gcal.OutcomeAuthRequired {
		return replyAuthRequired
	}
	return replyCalendarError
}

// rangeWindow maps the classifier's coarse time range onto concrete
// bounds in the user's timezone.
func rangeWindow(timeRange string, now time.Time, timezone string) (time.Time, time.Time, string) {
	loc, _ := timeutil.ResolveLocation(timezone)
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch timeRange {
	case "today":
		return midnight, midnight.AddDate(0, 0, 1), "today"
	case "tomorrow":
		start := midnight.AddDate(0, 0, 1)
		return start, start.AddDate(0, 0, 1), "tomorrow"
	case "month":
		return midnight, midnight.AddDate(0, 1, 0), "this month"
	default:
		return midnight, midnight.AddDate(0, 0, 7), "this week"
	}
}

func (r *Router) handleGetEvents(ctx context.Context, user *database.User, payload agent.Payload) string {
	from, to, label := rangeWindow(payload.TimeRange, r.now(), user.Timezone)

	events, err := r.cal.SearchEvents(ctx, user.ID, payload.Query, from, to, 25)
	if err != nil {
		return calendarErrorReply("list events", err)
	}

	if len(events) == 0 {
		if payload.Query != "" {
			return fmt.Sprintf("Nothing matching %q on your calendar %s.", payload.Query, label)
		}
		return fmt.Sprintf("Your calendar is clear %s.", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what you have %s:\n", label)
	for _, ev := range events {
		fmt.Fprintf(&b, "• %s — %s", ev.Summary, timeutil.FormatEventTime(ev.StartTime, ev.AllDay, user.Timezone))
		if ev.Location != "" {
			fmt.Fprintf(&b, " (%s)", ev.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleSetReminder stores the reminder and also drops a matching event
// on the calendar, so the nudge survives even if the bot is down when it
// comes due.
func (r *Router) handleSetReminder(ctx context.Context, user *database.User, ci *agent.ClassifiedIntent) string {
	payload := ci.Payload
	if payload.ReminderText == "" {
		return "What should I remind you about?"
	}
	if payload.DueTime == "" {
		return fmt.Sprintf("When should I remind you about %q?", payload.ReminderText)
	}

	due, err := timeutil.ParseDateTime(payload.DueTime, user.Timezone)
	if err != nil {
		fmt.Printf("Router: bad reminder time for user %d: %v\n", user.ID, err)
		return "I couldn't make sense of that time. When should I remind you?"
	}
	if !due.After(r.now()) {
		return "That time has already passed. When should I remind you?"
	}

	backupEventID := ""
	created, err := r.cal.CreateEvent(ctx, user.ID, gcal.EventInput{
		Summary:   "⏰ " + payload.ReminderText,
		StartTime: due,
		EndTime:   due.Add(15 * time.Minute),
		ColorID:   gcal.DefaultColorID,
	})
	if err != nil {
		// The reminder itself still works without the calendar copy.
		fmt.Printf("Router: backup event failed for user %d: %v\n", user.ID, err)
	} else {
		backupEventID = created.ID
	}

	reminder := &database.Reminder{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Text:          payload.ReminderText,
		DueTime:       &due,
		BackupEventID: backupEventID,
	}
	if err := r.db.CreateReminder(reminder); err != nil {
		fmt.Printf("Router: failed to store reminder for user %d: %v\n", user.ID, err)
		return replyBusy
	}

	if ci.ResponseText != "" {
		return ci.ResponseText
	}
	return fmt.Sprintf("Got it, I'll remind you about %q on %s.",
		payload.ReminderText, timeutil.FormatEventTime(due, false, user.Timezone))
}

func (r *Router) handleEditPreferences(user *database.User, ci *agent.ClassifiedIntent) string {
	payload := ci.Payload
	var changes []string

	if payload.Nickname != "" {
		if err := r.db.UpdateUser(user.ID, database.UserUpdate{Nickname: &payload.Nickname}); err != nil {
			fmt.Printf("Router: failed to update nickname for user %d: %v\n", user.ID, err)
		} else {
			changes = append(changes, fmt.Sprintf("I'll call you %s", payload.Nickname))
		}
	}

	if payload.AgentName != "" {
		if err := r.db.UpdateUser(user.ID, database.UserUpdate{AgentName: &payload.AgentName}); err != nil {
			fmt.Printf("Router: failed to update agent name for user %d: %v\n", user.ID, err)
		} else {
			changes = append(changes, fmt.Sprintf("you can call me %s", payload.AgentName))
		}
	}

	for category, colorName := range payload.Colors {
		id, ok := gcal.ColorIDForName(colorName)
		if !ok {
			fmt.Printf("Router: unknown color %q for user %d\n", colorName, user.ID)
			continue
		}
		if err := r.db.SetColorPreference(user.ID, strings.ToLower(category), id); err != nil {
			fmt.Printf("Router: failed to set color preference for user %d: %v\n", user.ID, err)
			continue
		}
		changes = append(changes, fmt.Sprintf("%s events will be %s", category, gcal.ColorNameForID(id)))
	}

	for name, email := range payload.Contacts {
		if email == "" {
			if err := r.db.DeleteContact(user.ID, name); err != nil {
				fmt.Printf("Router: failed to delete contact for user %d: %v\n", user.ID, err)
				continue
			}
			changes = append(changes, fmt.Sprintf("forgot %s", name))
			continue
		}
		if err := r.db.SaveContact(user.ID, name, email); err != nil {
			fmt.Printf("Router: failed to save contact for user %d: %v\n", user.ID, err)
			continue
		}
		changes = append(changes, fmt.Sprintf("saved %s (%s)", name, email))
	}

	if payload.DailyBriefing != nil {
		if err := r.db.UpdateUser(user.ID, database.UserUpdate{EnableDailyBriefing: payload.DailyBriefing}); err != nil {
			fmt.Printf("Router: failed to update briefing preference for user %d: %v\n", user.ID, err)
		} else if *payload.DailyBriefing {
			changes = append(changes, "daily briefing is on")
		} else {
			changes = append(changes, "daily briefing is off")
		}
	}

	if len(changes) == 0 {
		if ci.ResponseText != "" {
			return ci.ResponseText
		}
		return "What would you like to change? You can set your nickname, my name, event colors, contacts, or the daily briefing."
	}

	reply := "Done: " + strings.Join(changes, "; ") + "."
	if ci.ResponseText != "" {
		reply = ci.ResponseText
	}
	return reply
}

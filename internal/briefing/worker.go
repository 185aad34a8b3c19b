// Package briefing runs the background deliveries: firing due reminders
// and sending the morning calendar briefing.
package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/flow"
	"github.com/noamgl/yoman/internal/notify"
	"github.com/noamgl/yoman/internal/timeutil"
)

// Messenger delivers a message to a Telegram account.
type Messenger interface {
	SendMessage(ctx context.Context, telegramID int64, text string) (int, error)
}

// Worker polls for due reminders and briefing windows.
type Worker struct {
	db        *database.DB
	cal       flow.Calendar
	messenger Messenger
	email     notify.Notifier

	interval time.Duration
	now      func() time.Time

	// sentBriefings remembers which users already got today's briefing,
	// keyed by "userID/2006-01-02" in the user's timezone.
	sentBriefings map[string]bool
}

func NewWorker(db *database.DB, cal flow.Calendar, messenger Messenger, email notify.Notifier) *Worker {
	return &Worker{
		db:            db,
		cal:           cal,
		messenger:     messenger,
		email:         email,
		interval:      time.Minute,
		now:           time.Now,
		sentBriefings: make(map[string]bool),
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	fmt.Println("Briefing: worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Briefing: worker stopped")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one poll cycle.
func (w *Worker) Tick(ctx context.Context) {
	w.fireDueReminders(ctx)
	w.sendDailyBriefings(ctx)
}

func (w *Worker) fireDueReminders(ctx context.Context) {
	due, err := w.db.GetDueReminders(w.now())
	if err != nil {
		fmt.Printf("Briefing: failed to load due reminders: %v\n", err)
		return
	}

	for _, reminder := range due {
		user, err := w.db.GetUserByID(reminder.UserID)
		if err != nil {
			fmt.Printf("Briefing: no user for reminder %s: %v\n", reminder.ID, err)
			continue
		}
		if !user.EnableReminders {
			// The user opted out after setting it; retire quietly.
			if err := w.db.MarkReminderSent(reminder.ID); err != nil {
				fmt.Printf("Briefing: failed to retire reminder %s: %v\n", reminder.ID, err)
			}
			continue
		}

		text := fmt.Sprintf("⏰ Reminder: %s", reminder.Text)
		if _, err := w.messenger.SendMessage(ctx, user.TelegramID, text); err != nil {
			// Left unsent so the next tick retries.
			fmt.Printf("Briefing: failed to deliver reminder %s: %v\n", reminder.ID, err)
			continue
		}
		if err := w.db.MarkReminderSent(reminder.ID); err != nil {
			fmt.Printf("Briefing: failed to mark reminder %s sent: %v\n", reminder.ID, err)
		}
	}
}

func (w *Worker) sendDailyBriefings(ctx context.Context) {
	w.pruneSentBriefings()

	users, err := w.db.GetAllUsers()
	if err != nil {
		fmt.Printf("Briefing: failed to load users: %v\n", err)
		return
	}

	for i := range users {
		user := &users[i]
		if !user.EnableDailyBriefing {
			continue
		}

		loc, _ := timeutil.ResolveLocation(user.Timezone)
		local := w.now().In(loc)
		if local.Hour() != user.BriefingHour {
			continue
		}

		key := fmt.Sprintf("%d/%s", user.ID, local.Format("2006-01-02"))
		if w.sentBriefings[key] {
			continue
		}

		if err := w.sendBriefing(ctx, user, local); err != nil {
			fmt.Printf("Briefing: failed for user %d: %v\n", user.ID, err)
			continue
		}
		w.sentBriefings[key] = true
	}
}

// pruneSentBriefings drops dedup keys from prior days so the map stays
// bounded by the user count. Yesterday is kept because "today" differs
// across user timezones around midnight UTC.
func (w *Worker) pruneSentBriefings() {
	cutoff := w.now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	for key := range w.sentBriefings {
		if i := strings.IndexByte(key, '/'); i >= 0 && key[i+1:] < cutoff {
			delete(w.sentBriefings, key)
		}
	}
}

func (w *Worker) sendBriefing(ctx context.Context, user *database.User, local time.Time) error {
	loc := local.Location()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	events, err := w.cal.SearchEvents(ctx, user.ID, "", midnight, midnight.AddDate(0, 0, 1), 25)
	if err != nil {
		return fmt.Errorf("failed to list today's events: %w", err)
	}

	text := FormatBriefing(user, events, local)
	if _, err := w.messenger.SendMessage(ctx, user.TelegramID, text); err != nil {
		return fmt.Errorf("failed to send briefing: %w", err)
	}

	if user.BriefingEmail != "" && w.email != nil && w.email.IsConfigured() {
		subject := fmt.Sprintf("Your day, %s", local.Format("Monday 02/01"))
		if err := w.email.Send(ctx, user.BriefingEmail, subject, briefingHTML(text)); err != nil {
			fmt.Printf("Briefing: email copy failed for user %d: %v\n", user.ID, err)
		}
	}
	return nil
}

func briefingHTML(text string) string {
	return "<pre style=\"font-family: inherit; white-space: pre-wrap;\">" + text + "</pre>"
}

package agent

import (
	"time"

	"github.com/noamgl/yoman/internal/database"
)

// Intent is the closed set of things a user turn can ask for. Anything the
// classifier returns outside this set degrades to IntentChat.
type Intent string

const (
	IntentCreateEvent     Intent = "create_event"
	IntentUpdateEvent     Intent = "update_event"
	IntentDeleteEvent     Intent = "delete_event"
	IntentGetEvents       Intent = "get_events"
	IntentSetReminder     Intent = "set_reminder"
	IntentEditPreferences Intent = "edit_preferences"
	IntentChat            Intent = "chat"
)

// ParseIntent maps a raw classifier tag onto the closed set.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentCreateEvent, IntentUpdateEvent, IntentDeleteEvent,
		IntentGetEvents, IntentSetReminder, IntentEditPreferences, IntentChat:
		return Intent(s)
	default:
		return IntentChat
	}
}

// Payload carries the intent-specific structured fields extracted by the
// classifier. Fields not relevant to the classified intent are zero.
type Payload struct {
	// create_event (also reminder backup events)
	Summary     string   `json:"summary,omitempty"`
	StartTime   string   `json:"start_time,omitempty"` // ISO 8601
	EndTime     string   `json:"end_time,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
	Category    string   `json:"category,omitempty"`
	ColorName   string   `json:"color_name,omitempty"` // only on explicit user request
	ColorID     string   `json:"color_id,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	IsAllDay    bool     `json:"is_all_day,omitempty"`

	// update_event / delete_event
	EventHint    string   `json:"event_hint,omitempty"`
	NewTitle     string   `json:"new_title,omitempty"`
	NewStartTime string   `json:"new_start_time,omitempty"`
	NewEndTime   string   `json:"new_end_time,omitempty"`
	NewLocation  string   `json:"new_location,omitempty"`
	NewColorName string   `json:"new_color_name,omitempty"`
	AddAttendees []string `json:"add_attendees,omitempty"`

	// get_events
	TimeRange string `json:"time_range,omitempty"` // today|tomorrow|week|month
	Query     string `json:"query,omitempty"`

	// set_reminder
	ReminderText string `json:"reminder_text,omitempty"`
	DueTime      string `json:"due_time,omitempty"`

	// edit_preferences
	Nickname      string            `json:"nickname,omitempty"`
	AgentName     string            `json:"agent_name,omitempty"`
	Colors        map[string]string `json:"colors,omitempty"`
	Contacts      map[string]string `json:"contacts,omitempty"`
	DailyBriefing *bool             `json:"daily_briefing,omitempty"`
}

// ClassifiedIntent is the classifier's decision for one user turn.
type ClassifiedIntent struct {
	Intent       Intent  `json:"intent"`
	ResponseText string  `json:"response_text"`
	Payload      Payload `json:"payload"`
}

// TurnContext is everything the classifier sees besides the message itself.
// Built fresh per turn, never persisted.
type TurnContext struct {
	Now          time.Time
	Timezone     string
	UserNickname string
	AgentName    string
	ContactNames []string
	Preferences  map[string]string
	History      []database.MessageRecord
}

package flow

import (
	"fmt"
	"time"

	"github.com/noamgl/yoman/internal/gcal"
)

// Engine runs the calendar conversation flows. It owns the pending flow
// state: starting a new flow replaces whatever was pending before.
type Engine struct {
	store Store
	cal   Calendar
	now   func() time.Time
}

func NewEngine(store Store, cal Calendar) *Engine {
	return &Engine{store: store, cal: cal, now: time.Now}
}

// Replies sent to the user never contain raw API error text.
const (
	replyAuthRequired  = "I've lost access to your Google Calendar. Please reconnect with /connect and try again."
	replyCalendarError = "Something went wrong talking to your calendar. Please try again in a moment."
)

func replyForError(op string, err error) string {
	fmt.Printf("Flow: %s failed: %v\n", op, err)
	if gcal.OutcomeOf(err) == gcal.OutcomeAuthRequired {
		return replyAuthRequired
	}
	return replyCalendarError
}

// Package router turns one incoming message into exactly one reply. It
// owns the per-turn pipeline: guards, pending-flow interception, intent
// classification, and dispatch to the matching handler.
package router

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/config"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/flow"
)

const (
	replyBusy        = "Sorry, I'm a bit swamped right now. Could you try that again in a minute?"
	replyFallback    = "I'm not sure what to do with that. Could you rephrase it?"
	replyVoiceFailed = "I couldn't make out that voice message. Try again, or just type it."
)

// Router drives one conversation turn end to end.
type Router struct {
	db          *database.DB
	classifier  agent.Classifier
	transcriber agent.Transcriber
	flows       *flow.Engine
	cal         flow.Calendar
	cfg         *config.Config

	// connectURL renders the Google consent link for a Telegram account.
	connectURL func(telegramID int64) string

	now func() time.Time
}

func New(db *database.DB, classifier agent.Classifier, transcriber agent.Transcriber, flows *flow.Engine, cal flow.Calendar, cfg *config.Config, connectURL func(int64) string) *Router {
	return &Router{
		db:          db,
		classifier:  classifier,
		transcriber: transcriber,
		flows:       flows,
		cal:         cal,
		cfg:         cfg,
		connectURL:  connectURL,
		now:         time.Now,
	}
}

// HandleTurn processes one text message and returns the single reply for
// it. It never returns an error to the caller as user-facing text; every
// failure path has its own sanitized reply.
func (r *Router) HandleTurn(ctx context.Context, telegramID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return replyFallback
	}

	user, gate := r.gate(telegramID)
	if gate != "" {
		return gate
	}

	if err := r.db.AppendMessage(user.ID, "user", text); err != nil {
		fmt.Printf("Router: failed to append user message for user %d: %v\n", user.ID, err)
	}

	reply := r.reply(ctx, user, text)
	if reply == "" {
		reply = replyFallback
	}

	if err := r.db.AppendMessage(user.ID, "assistant", reply); err != nil {
		fmt.Printf("Router: failed to append assistant message for user %d: %v\n", user.ID, err)
	}
	return reply
}

// HandleVoiceTurn transcribes a voice message and runs it through the
// same pipeline as text.
func (r *Router) HandleVoiceTurn(ctx context.Context, telegramID int64, filename string, audio io.Reader) string {
	if r.transcriber == nil || !r.transcriber.IsConfigured() {
		return replyVoiceFailed
	}
	text, err := r.transcriber.Transcribe(ctx, filename, audio)
	if err != nil || strings.TrimSpace(text) == "" {
		fmt.Printf("Router: transcription failed for telegram id %d: %v\n", telegramID, err)
		return replyVoiceFailed
	}
	return r.HandleTurn(ctx, telegramID, text)
}

// gate checks registration and calendar access before any turn runs.
func (r *Router) gate(telegramID int64) (*database.User, string) {
	user, err := r.db.GetUserByTelegramID(telegramID)
	if err != nil {
		link := r.connectURL(telegramID)
		return nil, fmt.Sprintf("Hi! I'm %s, your calendar assistant. To get started, connect your Google Calendar here:\n%s",
			r.cfg.AgentName, link)
	}

	if !r.db.HasGoogleToken(user.ID) {
		return nil, fmt.Sprintf("I need access to your Google Calendar before I can help. Connect it here:\n%s",
			r.connectURL(telegramID))
	}

	if !user.OnboardingCompleted {
		return nil, fmt.Sprintf("Almost there! Finish connecting your calendar here:\n%s", r.connectURL(telegramID))
	}

	return user, ""
}

// reply runs the post-gate pipeline: a pending flow swallows the turn,
// otherwise the classifier picks an intent and the matching handler runs.
func (r *Router) reply(ctx context.Context, user *database.User, text string) string {
	state, err := flow.Load(r.db, user.ID)
	if err != nil {
		fmt.Printf("Router: failed to load flow state for user %d: %v\n", user.ID, err)
		return replyBusy
	}
	if state != nil {
		reply, err := r.flows.Resume(ctx, user, state, text)
		if err != nil {
			fmt.Printf("Router: flow resume failed for user %d: %v\n", user.ID, err)
			return replyBusy
		}
		return reply
	}

	ci := r.classify(ctx, user, text)

	return r.dispatch(ctx, user, ci)
}

// classify calls the model under the hard turn deadline. A timeout, a
// transport failure, or unusable output all degrade to a chat turn so
// the user still gets a reply.
func (r *Router) classify(ctx context.Context, user *database.User, text string) *agent.ClassifiedIntent {
	turn := agent.TurnContext{
		Now:          r.now(),
		Timezone:     user.Timezone,
		UserNickname: user.Nickname,
		AgentName:    user.AgentName,
	}

	if names, err := r.db.GetContacts(user.ID); err == nil {
		for name := range names {
			turn.ContactNames = append(turn.ContactNames, name)
		}
	}
	if prefs, err := r.db.GetColorPreferences(user.ID); err == nil {
		turn.Preferences = prefs
	}
	if history, err := r.db.GetRecentMessages(user.ID, r.cfg.MessageHistorySize); err == nil {
		turn.History = history
	}

	classifyCtx, cancel := context.WithTimeout(ctx, r.cfg.ClassifyTimeout)
	defer cancel()

	ci, err := r.classifier.Classify(classifyCtx, text, turn)
	if err != nil {
		fmt.Printf("Router: classification failed for user %d: %v\n", user.ID, err)
		return &agent.ClassifiedIntent{Intent: agent.IntentChat, ResponseText: replyBusy}
	}
	return ci
}

func (r *Router) dispatch(ctx context.Context, user *database.User, ci *agent.ClassifiedIntent) string {
	var reply string
	var err error

	switch ci.Intent {
	case agent.IntentCreateEvent:
		reply, err = r.flows.StartCreate(ctx, user, *ci)
	case agent.IntentUpdateEvent:
		reply, err = r.flows.StartUpdate(ctx, user, *ci)
	case agent.IntentDeleteEvent:
		reply, err = r.flows.StartDelete(ctx, user, *ci)
	case agent.IntentGetEvents:
		reply = r.handleGetEvents(ctx, user, ci.Payload)
	case agent.IntentSetReminder:
		reply = r.handleSetReminder(ctx, user, ci)
	case agent.IntentEditPreferences:
		reply = r.handleEditPreferences(user, ci)
	case agent.IntentChat:
		reply = ci.ResponseText
	default:
		reply = ci.ResponseText
	}

	if err != nil {
		fmt.Printf("Router: %s handler failed for user %d: %v\n", ci.Intent, user.ID, err)
		return replyBusy
	}
	return reply
}

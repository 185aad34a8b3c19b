package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Messages)
		assert.Equal(t, "user", req.Messages[len(req.Messages)-1].Role)

		resp := map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(url string) *Client {
	c := NewClient("test-key", "gpt-4o-mini")
	c.apiURL = url
	return c
}

func testTurn() TurnContext {
	return TurnContext{
		Now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		AgentName: "Yoman",
	}
}

func TestClassifyParsesIntentAndPayload(t *testing.T) {
	srv := newStubServer(t, `{
		"intent": "create_event",
		"response_text": "Lunch is booked!",
		"payload": {
			"summary": "Lunch with Dana",
			"start_time": "2026-03-12T12:00:00+02:00",
			"attendees": ["Dana"],
			"category": "personal"
		}
	}`)
	defer srv.Close()

	ci, err := newTestClient(srv.URL).Classify(context.Background(), "lunch with Dana on Thursday", testTurn())
	require.NoError(t, err)
	assert.Equal(t, IntentCreateEvent, ci.Intent)
	assert.Equal(t, "Lunch is booked!", ci.ResponseText)
	assert.Equal(t, "Lunch with Dana", ci.Payload.Summary)
	assert.Equal(t, []string{"Dana"}, ci.Payload.Attendees)
	assert.Equal(t, "personal", ci.Payload.Category)
}

func TestClassifyHandlesMarkdownFences(t *testing.T) {
	srv := newStubServer(t, "Here you go:\n```json\n{\"intent\": \"get_events\", \"response_text\": \"Checking!\", \"payload\": {\"time_range\": \"today\"}}\n```")
	defer srv.Close()

	ci, err := newTestClient(srv.URL).Classify(context.Background(), "what's today?", testTurn())
	require.NoError(t, err)
	assert.Equal(t, IntentGetEvents, ci.Intent)
	assert.Equal(t, "today", ci.Payload.TimeRange)
}

func TestClassifyUnknownIntentDegradesToChat(t *testing.T) {
	srv := newStubServer(t, `{"intent": "launch_rocket", "response_text": "Sure!", "payload": {}}`)
	defer srv.Close()

	ci, err := newTestClient(srv.URL).Classify(context.Background(), "do the thing", testTurn())
	require.NoError(t, err)
	assert.Equal(t, IntentChat, ci.Intent)
	assert.Equal(t, "Sure!", ci.ResponseText)
}

func TestClassifyGarbageOutputDegradesToChat(t *testing.T) {
	srv := newStubServer(t, "I am unable to produce JSON today, sorry.")
	defer srv.Close()

	ci, err := newTestClient(srv.URL).Classify(context.Background(), "hello", testTurn())
	require.NoError(t, err)
	assert.Equal(t, IntentChat, ci.Intent)
	assert.Empty(t, ci.ResponseText)
}

func TestClassifyAPIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit", "message": "slow down"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Classify(context.Background(), "hello", testTurn())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClassifyHonorsContextDeadline(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Classify(ctx, "hello", testTurn())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `Sure! {"a": 1} Hope that helps.`, `{"a": 1}`},
		{"no json at all", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentDeleteEvent, ParseIntent("delete_event"))
	assert.Equal(t, IntentChat, ParseIntent("chat"))
	assert.Equal(t, IntentChat, ParseIntent("something_else"))
	assert.Equal(t, IntentChat, ParseIntent(""))
}

func TestFormatPreferencesIsStable(t *testing.T) {
	prefs := map[string]string{"work": "9", "family": "4", "sport": "6"}
	first := formatPreferences(prefs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, formatPreferences(prefs))
	}
	assert.Equal(t, "family=4, sport=6, work=9", first)
}

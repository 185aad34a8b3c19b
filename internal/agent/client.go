package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/noamgl/yoman/internal/timeutil"
)

const (
	defaultAPIURL    = "https://api.openai.com/v1/chat/completions"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
)

// Classifier turns a user turn plus context into a ClassifiedIntent.
type Classifier interface {
	Classify(ctx context.Context, text string, turn TurnContext) (*ClassifiedIntent, error)
	IsConfigured() bool
}

// Client is an OpenAI chat-completions client used for intent routing.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new classifier client.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}

	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			// The per-call deadline comes from the caller's context; this is
			// a backstop for calls made without one.
			Timeout: 60 * time.Second,
		},
	}
}

// IsConfigured reports whether the client has credentials.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model          string        `json:"model"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
	Messages       []chatMessage `json:"messages"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Classify sends one user turn to the model and parses the routed intent.
// Malformed output degrades to chat rather than failing the turn.
func (c *Client) Classify(ctx context.Context, text string, turn TurnContext) (*ClassifiedIntent, error) {
	system := fmt.Sprintf(routerSystemPrompt,
		turn.AgentName,
		turn.UserNickname,
		timeutil.NowContext(turn.Now, turn.Timezone),
		formatContacts(turn.ContactNames),
		formatPreferences(turn.Preferences),
	)

	messages := []chatMessage{{Role: "system", Content: system}}
	if len(turn.History) > 0 {
		var b strings.Builder
		b.WriteString(historyPreamble)
		for _, m := range turn.History {
			b.WriteString(fmt.Sprintf("\n[%s] %s", m.Role, m.Text))
		}
		messages = append(messages, chatMessage{Role: "system", Content: b.String()})
	}
	messages = append(messages, chatMessage{Role: "user", Content: text})

	req := chatRequest{
		Model:          c.model,
		MaxTokens:      defaultMaxTokens,
		Temperature:    0.3,
		ResponseFormat: &formatSpec{Type: "json_object"},
		Messages:       messages,
	}

	respText, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Intent       string  `json:"intent"`
		ResponseText string  `json:"response_text"`
		Payload      Payload `json:"payload"`
	}
	if err := json.Unmarshal([]byte(extractJSON(respText)), &raw); err != nil {
		// Whatever came back is not our schema; treat the turn as chat so
		// the user still gets an answer.
		fmt.Printf("Classifier: unparseable output, degrading to chat: %v\n", err)
		return &ClassifiedIntent{Intent: IntentChat, ResponseText: ""}, nil
	}

	return &ClassifiedIntent{
		Intent:       ParseIntent(raw.Intent),
		ResponseText: strings.TrimSpace(raw.ResponseText),
		Payload:      raw.Payload,
	}, nil
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return apiResp.Choices[0].Message.Content, nil
}

// extractJSON pulls a JSON object out of text that may wrap it in markdown
// fences or prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

func formatContacts(names []string) string {
	if len(names) == 0 {
		return "(no saved contacts)"
	}
	return strings.Join(names, ", ")
}

func formatPreferences(prefs map[string]string) string {
	if len(prefs) == 0 {
		return "(defaults)"
	}
	parts := make([]string, 0, len(prefs))
	for k, v := range prefs {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

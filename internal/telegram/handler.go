package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gotd/td/tg"
)

const thinkingText = "💭 Thinking..."

// TurnHandler runs one conversation turn and returns the reply.
type TurnHandler interface {
	HandleTurn(ctx context.Context, telegramID int64, text string) string
	HandleVoiceTurn(ctx context.Context, telegramID int64, filename string, audio io.Reader) string
}

// incoming is one message waiting for its turn.
type incoming struct {
	telegramID int64
	text       string
	voice      *tg.Document
}

// Handler processes incoming Telegram messages (direct messages only).
// Messages from the same user run strictly in order, one at a time, so a
// reply to a pending flow always sees the state the previous turn left.
type Handler struct {
	turns  TurnHandler
	client *Client

	mu     sync.Mutex
	queues map[int64]chan incoming
}

// NewHandler creates a new Telegram message handler
func NewHandler(turns TurnHandler) *Handler {
	return &Handler{
		turns:  turns,
		queues: make(map[int64]chan incoming),
	}
}

// HandleUpdate processes a Telegram update
func (h *Handler) HandleUpdate(update tg.UpdatesClass) {
	switch u := update.(type) {
	case *tg.Updates:
		h.cacheEntities(u.Users)
		for _, upd := range u.Updates {
			h.handleSingleUpdate(upd)
		}
	case *tg.UpdatesCombined:
		h.cacheEntities(u.Users)
		for _, upd := range u.Updates {
			h.handleSingleUpdate(upd)
		}
	case *tg.UpdateShort:
		h.handleSingleUpdate(u.Update)
	case *tg.UpdateShortMessage:
		h.handleShortMessage(u)
	case *tg.UpdateShortChatMessage:
		// Group messages not supported - only direct messages
		return
	}
}

func (h *Handler) cacheEntities(users []tg.UserClass) {
	if h.client == nil {
		return
	}
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			h.client.cachePeer(user)
		}
	}
}

func (h *Handler) handleSingleUpdate(update tg.UpdateClass) {
	switch msg := update.(type) {
	case *tg.UpdateNewMessage:
		h.handleNewMessage(msg.Message)
	}
}

// handleNewMessage processes a new direct message.
func (h *Handler) handleNewMessage(msg tg.MessageClass) {
	message, ok := msg.(*tg.Message)
	if !ok || message.Out {
		return
	}

	peer, ok := message.PeerID.(*tg.PeerUser)
	if !ok {
		return
	}

	in := incoming{telegramID: peer.UserID, text: message.Message}
	if voice := voiceDocument(message); voice != nil {
		in.voice = voice
	} else if in.text == "" {
		return
	}

	fmt.Printf("[Telegram DM: %d] %s\n", peer.UserID, truncateText(in.text, 100))
	h.enqueue(in)
}

// handleShortMessage processes a short direct message update
func (h *Handler) handleShortMessage(msg *tg.UpdateShortMessage) {
	if msg.Message == "" || msg.Out {
		return
	}

	fmt.Printf("[Telegram DM: %d] %s\n", msg.UserID, truncateText(msg.Message, 100))
	h.enqueue(incoming{telegramID: msg.UserID, text: msg.Message})
}

// voiceDocument extracts the voice note document from a message, if any.
func voiceDocument(message *tg.Message) *tg.Document {
	media, ok := message.Media.(*tg.MessageMediaDocument)
	if !ok {
		return nil
	}
	doc, ok := media.Document.AsNotEmpty()
	if !ok {
		return nil
	}
	for _, attr := range doc.Attributes {
		if audio, ok := attr.(*tg.DocumentAttributeAudio); ok && audio.Voice {
			return doc
		}
	}
	return nil
}

// enqueue hands the message to the user's worker, starting one on first
// contact. Each worker drains its own queue serially.
func (h *Handler) enqueue(in incoming) {
	h.mu.Lock()
	queue, ok := h.queues[in.telegramID]
	if !ok {
		queue = make(chan incoming, 16)
		h.queues[in.telegramID] = queue
		go h.runWorker(queue)
	}
	h.mu.Unlock()

	select {
	case queue <- in:
	default:
		fmt.Printf("Telegram: queue full for user %d, dropping message\n", in.telegramID)
	}
}

func (h *Handler) runWorker(queue chan incoming) {
	for in := range queue {
		h.processTurn(in)
	}
}

// processTurn runs one turn: a placeholder goes out immediately, then
// gets edited into the real reply once the router is done.
func (h *Handler) processTurn(in incoming) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	thinkingID, err := h.client.SendMessage(ctx, in.telegramID, thinkingText)
	if err != nil {
		fmt.Printf("Telegram: failed to send placeholder to user %d: %v\n", in.telegramID, err)
		thinkingID = 0
	}

	var reply string
	if in.voice != nil {
		audio, err := h.client.DownloadDocument(ctx, in.voice)
		if err != nil {
			fmt.Printf("Telegram: voice download failed for user %d: %v\n", in.telegramID, err)
			reply = h.turns.HandleVoiceTurn(ctx, in.telegramID, "voice.ogg", bytes.NewReader(nil))
		} else {
			reply = h.turns.HandleVoiceTurn(ctx, in.telegramID, "voice.ogg", bytes.NewReader(audio))
		}
	} else {
		reply = h.turns.HandleTurn(ctx, in.telegramID, in.text)
	}

	h.deliver(ctx, in.telegramID, thinkingID, reply)
}

func (h *Handler) deliver(ctx context.Context, telegramID int64, thinkingID int, reply string) {
	if thinkingID != 0 {
		if err := h.client.EditMessage(ctx, telegramID, thinkingID, reply); err == nil {
			return
		}
	}
	if _, err := h.client.SendMessage(ctx, telegramID, reply); err != nil {
		fmt.Printf("Telegram: failed to deliver reply to user %d: %v\n", telegramID, err)
	}
}

// truncateText shortens text for logging
func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

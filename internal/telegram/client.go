package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	lru "github.com/hashicorp/golang-lru/v2"
)

// peerCacheSize bounds the number of resolved users kept in memory.
const peerCacheSize = 1024

// Client manages the Telegram connection
type Client struct {
	apiID       int
	apiHash     string
	sessionPath string
	client      *telegram.Client
	api         *tg.Client
	handler     *Handler
	connected   bool
	phoneNumber string
	codeHash    string // Stored during code verification flow
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	updatesChan chan tg.UpdatesClass

	// peers caches resolved users so outgoing sends have an access hash.
	peers *lru.Cache[int64, *tg.User]
}

// ClientConfig holds configuration for the Telegram client
type ClientConfig struct {
	APIID       int
	APIHash     string
	SessionPath string
	Handler     *Handler
}

// NewClient creates a new Telegram client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, fmt.Errorf("Telegram API ID and API Hash are required")
	}

	peers, err := lru.New[int64, *tg.User](peerCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		apiID:       cfg.APIID,
		apiHash:     cfg.APIHash,
		sessionPath: cfg.SessionPath,
		handler:     cfg.Handler,
		ctx:         ctx,
		cancel:      cancel,
		updatesChan: make(chan tg.UpdatesClass, 100),
		peers:       peers,
	}

	if c.handler != nil {
		c.handler.client = c
	}

	return c, nil
}

// Connect initializes and connects the Telegram client
func (c *Client) Connect() error {
	c.mu.RLock()
	if c.connected || c.api != nil {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if c.connected || c.api != nil {
		c.mu.Unlock()
		return nil
	}

	sessionStorage := &FileSessionStorage{Path: c.sessionPath}

	client := telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: sessionStorage,
		UpdateHandler:  c,
	})

	c.client = client
	c.mu.Unlock()

	go func() {
		if err := client.Run(c.ctx, func(ctx context.Context) error {
			c.mu.Lock()
			c.api = client.API()
			c.mu.Unlock()

			status, err := client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get auth status: %w", err)
			}

			c.mu.Lock()
			c.connected = status.Authorized
			c.mu.Unlock()

			if status.Authorized {
				fmt.Println("Telegram: Already authorized")
			} else {
				fmt.Println("Telegram: Not authorized, waiting for authentication")
			}

			<-ctx.Done()
			return ctx.Err()
		}); err != nil && err != context.Canceled {
			fmt.Printf("Telegram client error: %v\n", err)
		}
	}()

	// Wait for client to initialize with timeout
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("timeout waiting for Telegram client to connect")
		case <-ticker.C:
			c.mu.RLock()
			apiReady := c.api != nil
			c.mu.RUnlock()
			if apiReady {
				fmt.Println("Telegram: Client connected and ready")
				return nil
			}
		}
	}
}

// Disconnect closes the Telegram connection
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.connected = false
}

// IsConnected returns whether the client is connected and authenticated
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendCode requests a verification code for the given phone number
func (c *Client) SendCode(ctx context.Context, phoneNumber string) error {
	c.mu.RLock()
	needsConnect := c.api == nil
	c.mu.RUnlock()

	if needsConnect {
		fmt.Println("Telegram: Auto-connecting before sending code...")
		if err := c.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api == nil {
		return fmt.Errorf("client not connected - connection may have failed")
	}

	sentCode, err := c.api.AuthSendCode(ctx, &tg.AuthSendCodeRequest{
		PhoneNumber: phoneNumber,
		APIID:       c.apiID,
		APIHash:     c.apiHash,
		Settings:    tg.CodeSettings{},
	})
	if err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}

	c.phoneNumber = phoneNumber
	switch v := sentCode.(type) {
	case *tg.AuthSentCode:
		c.codeHash = v.PhoneCodeHash
	default:
		return fmt.Errorf("unexpected sent code type: %T", sentCode)
	}

	fmt.Printf("Telegram: Verification code sent to %s\n", phoneNumber)
	return nil
}

// VerifyCode verifies the code and completes authentication
func (c *Client) VerifyCode(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api == nil {
		return fmt.Errorf("client not connected")
	}

	if c.phoneNumber == "" || c.codeHash == "" {
		return fmt.Errorf("no pending code verification - call SendCode first")
	}

	authResult, err := c.api.AuthSignIn(ctx, &tg.AuthSignInRequest{
		PhoneNumber:   c.phoneNumber,
		PhoneCodeHash: c.codeHash,
		PhoneCode:     code,
	})
	if err != nil {
		if auth.IsKeyUnregistered(err) {
			return fmt.Errorf("phone number not registered on Telegram")
		}
		return fmt.Errorf("failed to sign in: %w", err)
	}

	switch v := authResult.(type) {
	case *tg.AuthAuthorization:
		c.connected = true
		fmt.Printf("Telegram: Successfully authenticated as %v\n", v.User)
	case *tg.AuthAuthorizationSignUpRequired:
		return fmt.Errorf("account registration required - please sign up on Telegram first")
	default:
		return fmt.Errorf("unexpected auth result: %T", authResult)
	}

	c.phoneNumber = ""
	c.codeHash = ""

	return nil
}

// Handle implements telegram.UpdateHandler
func (c *Client) Handle(ctx context.Context, u tg.UpdatesClass) error {
	if c.handler == nil {
		return nil
	}

	select {
	case c.updatesChan <- u:
	default:
		fmt.Println("Telegram: Updates channel full, dropping update")
	}

	return nil
}

// StartUpdateLoop starts processing updates
func (c *Client) StartUpdateLoop() {
	go func() {
		for {
			select {
			case <-c.ctx.Done():
				return
			case update := <-c.updatesChan:
				c.handler.HandleUpdate(update)
			}
		}
	}()
}

// cachePeer remembers a resolved user for later sends.
func (c *Client) cachePeer(user *tg.User) {
	c.peers.Add(user.ID, user)
}

func (c *Client) inputPeer(userID int64) (*tg.InputPeerUser, error) {
	user, ok := c.peers.Get(userID)
	if !ok {
		return nil, fmt.Errorf("no cached peer for user %d", userID)
	}
	return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}, nil
}

// SendMessage sends a direct message and returns its id, for later edits.
func (c *Client) SendMessage(ctx context.Context, userID int64, text string) (int, error) {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api == nil {
		return 0, fmt.Errorf("client not connected")
	}

	peer, err := c.inputPeer(userID)
	if err != nil {
		return 0, err
	}

	updates, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: rand.Int63(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return sentMessageID(updates), nil
}

// EditMessage replaces the text of a previously sent message.
func (c *Client) EditMessage(ctx context.Context, userID int64, messageID int, text string) error {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api == nil {
		return fmt.Errorf("client not connected")
	}

	peer, err := c.inputPeer(userID)
	if err != nil {
		return err
	}

	_, err = api.MessagesEditMessage(ctx, &tg.MessagesEditMessageRequest{
		Peer:    peer,
		ID:      messageID,
		Message: text,
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DownloadDocument streams a document (voice note) into memory.
func (c *Client) DownloadDocument(ctx context.Context, doc *tg.Document) ([]byte, error) {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api == nil {
		return nil, fmt.Errorf("client not connected")
	}

	location := &tg.InputDocumentFileLocation{
		ID:            doc.ID,
		AccessHash:    doc.AccessHash,
		FileReference: doc.FileReference,
	}

	var buf sliceWriter
	if _, err := downloader.NewDownloader().Download(api, location).Stream(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	return buf.data, nil
}

type sliceWriter struct {
	data []byte
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

// sentMessageID digs the new message id out of the send response.
func sentMessageID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		for _, upd := range u.Updates {
			switch m := upd.(type) {
			case *tg.UpdateMessageID:
				return m.ID
			case *tg.UpdateNewMessage:
				if msg, ok := m.Message.(*tg.Message); ok {
					return msg.ID
				}
			}
		}
	}
	return 0
}

// GetAPI returns the raw Telegram API client
func (c *Client) GetAPI() *tg.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api
}

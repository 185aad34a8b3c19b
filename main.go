package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/briefing"
	"github.com/noamgl/yoman/internal/config"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/flow"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/notify"
	"github.com/noamgl/yoman/internal/router"
	"github.com/noamgl/yoman/internal/server"
	"github.com/noamgl/yoman/internal/telegram"
)

func main() {
	cfg := config.LoadFromEnv()

	// Phase 1: Core infrastructure
	db, err := database.New(cfg.DBPath)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	gcalClient, err := gcal.NewClient(cfg.GoogleCredentialsFile, db)
	if err != nil {
		fatal("loading Google credentials", err)
	}

	// Phase 2: HTTP surface (consent flow must be reachable before the
	// first chat turn can complete).
	srv := server.New(db, gcalClient, cfg)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	// Phase 3: Conversation pipeline
	classifier := initClassifier(cfg)
	transcriber := initTranscriber(cfg)
	flows := flow.NewEngine(db, gcalClient)
	turns := router.New(db, classifier, transcriber, flows, gcalClient, cfg, srv.ConnectURL)

	// Phase 4: Telegram transport
	tgClient := initTelegram(cfg, turns)
	if tgClient != nil {
		srv.SetTelegramClient(tgClient)
	}

	// Phase 5: Background deliveries
	workerCtx, stopWorker := context.WithCancel(context.Background())
	if tgClient != nil {
		emailNotifier := initEmailNotifier(cfg)
		worker := briefing.NewWorker(db, gcalClient, tgClient, emailNotifier)
		go worker.Run(workerCtx)
	}

	waitForShutdown(srv, tgClient, stopWorker)
}

func initClassifier(cfg *config.Config) agent.Classifier {
	if cfg.OpenAIAPIKey == "" {
		fmt.Println("Warning: OPENAI_API_KEY not set, intent routing disabled")
	}
	client := agent.NewClient(cfg.OpenAIAPIKey, cfg.RouterModel)
	if client.IsConfigured() {
		fmt.Printf("Intent classifier configured (%s)\n", cfg.RouterModel)
	}
	return client
}

func initTranscriber(cfg *config.Config) agent.Transcriber {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	fmt.Printf("Voice transcription configured (%s)\n", cfg.TranscribeModel)
	return agent.NewWhisperClient(cfg.OpenAIAPIKey, cfg.TranscribeModel)
}

func initEmailNotifier(cfg *config.Config) notify.Notifier {
	if cfg.ResendAPIKey == "" {
		return nil
	}
	emailNotifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom)
	if emailNotifier != nil && emailNotifier.IsConfigured() {
		fmt.Println("Email briefing service configured (Resend)")
	}
	return emailNotifier
}

func initTelegram(cfg *config.Config, turns telegram.TurnHandler) *telegram.Client {
	if cfg.TelegramAppID == 0 || cfg.TelegramAppHash == "" {
		fmt.Println("Telegram: Not configured (TELEGRAM_APP_ID and TELEGRAM_APP_HASH required)")
		return nil
	}

	handler := telegram.NewHandler(turns)

	tgClient, err := telegram.NewClient(telegram.ClientConfig{
		APIID:       cfg.TelegramAppID,
		APIHash:     cfg.TelegramAppHash,
		SessionPath: cfg.SessionPath,
		Handler:     handler,
	})
	if err != nil {
		fmt.Printf("Warning: Failed to create Telegram client: %v\n", err)
		return nil
	}

	fmt.Println("Telegram client initialized")

	if err := tgClient.Connect(); err != nil {
		fmt.Printf("Warning: Failed to auto-connect Telegram: %v\n", err)
	} else if tgClient.IsConnected() {
		fmt.Println("Telegram: Restored session - already authenticated")
	} else {
		fmt.Printf("Telegram: Connected but not authenticated - POST /telegram/send-code then /telegram/verify-code on port %d to log in\n", cfg.HTTPPort)
	}

	tgClient.StartUpdateLoop()

	return tgClient
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", context, err)
	os.Exit(1)
}

func waitForShutdown(srv *server.Server, tgClient *telegram.Client, stopWorker context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stopWorker()
	if tgClient != nil {
		tgClient.Disconnect()
	}
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("HTTP server shutdown error: %v\n", err)
	}

	fmt.Println("Goodbye!")
}

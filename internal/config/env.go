package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	OpenAIAPIKey          string
	TelegramAppID         int
	TelegramAppHash       string
	TelegramPhone         string
	GoogleCredentialsFile string

	// Optional with defaults
	DBPath             string
	HTTPPort           int
	PublicBaseURL      string
	SessionPath        string
	RouterModel        string
	TranscribeModel    string
	ClassifyTimeout    time.Duration
	MessageHistorySize int
	ResendAPIKey       string
	EmailFrom          string
	AgentName          string
}

func LoadFromEnv() *Config {
	cfg := &Config{
		// Required
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		TelegramAppID:         getEnvAsIntOrDefault("TELEGRAM_APP_ID", 0),
		TelegramAppHash:       os.Getenv("TELEGRAM_APP_HASH"),
		TelegramPhone:         os.Getenv("TELEGRAM_PHONE"),
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),

		// Optional with defaults
		DBPath:             getEnvOrDefault("YOMAN_DB_PATH", "./yoman.db"),
		HTTPPort:           getEnvAsIntOrDefault("YOMAN_HTTP_PORT", 8080),
		PublicBaseURL:      getEnvOrDefault("YOMAN_PUBLIC_BASE_URL", "http://localhost:8080"),
		SessionPath:        getEnvOrDefault("YOMAN_TELEGRAM_SESSION", "./telegram.session"),
		RouterModel:        getEnvOrDefault("YOMAN_ROUTER_MODEL", "gpt-4o-mini"),
		TranscribeModel:    getEnvOrDefault("YOMAN_TRANSCRIBE_MODEL", "whisper-1"),
		ClassifyTimeout:    getEnvAsDurationOrDefault("YOMAN_CLASSIFY_TIMEOUT", 25*time.Second),
		MessageHistorySize: getEnvAsIntOrDefault("YOMAN_MESSAGE_HISTORY_SIZE", 10),
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		EmailFrom:          getEnvOrDefault("YOMAN_EMAIL_FROM", "Yoman <yoman@resend.dev>"),
		AgentName:          getEnvOrDefault("YOMAN_AGENT_NAME", "Yoman"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

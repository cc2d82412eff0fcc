package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Data directory
	DataDir string

	// Database
	DatabasePath string

	// Notes vault (markdown files)
	NotesDir string

	// Conversation state persistence
	ConversationStatePath string
	ConversationTTL       time.Duration
	PruneInterval         time.Duration
	FlushDelay            time.Duration

	// OpenAI
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	OpenAIFallbackModel string
	WhisperModel        string

	// Meilisearch
	MeiliHost   string
	MeiliAPIKey string
	MeiliIndex  string

	// Telegram
	TelegramBotToken     string
	TelegramAllowedChats []string
	TelegramPollInterval time.Duration

	// Debug settings
	DBLogQueries bool
}

// Load reads configuration from environment variables
func Load() *Config {
	dataDir := getEnv("ATTENT_DATA_DIR", "./data")
	appDir := filepath.Join(dataDir, "app", "attent")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 12380),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir:      dataDir,
		DatabasePath: filepath.Join(appDir, "database.sqlite"),
		NotesDir:     getEnv("ATTENT_NOTES_DIR", filepath.Join(dataDir, "notes")),

		// Conversation state
		ConversationStatePath: filepath.Join(appDir, "conversation-state.json"),
		ConversationTTL:       getEnvDuration("CONVERSATION_TTL", 30*time.Minute),
		PruneInterval:         getEnvDuration("CONVERSATION_PRUNE_INTERVAL", 10*time.Minute),
		FlushDelay:            getEnvDuration("CONVERSATION_FLUSH_DELAY", time.Second),

		// OpenAI
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIFallbackModel: getEnv("OPENAI_FALLBACK_MODEL", ""),
		WhisperModel:        getEnv("WHISPER_MODEL", "whisper-1"),

		// Meilisearch
		MeiliHost:   getEnv("MEILI_HOST", ""),
		MeiliAPIKey: getEnv("MEILI_API_KEY", ""),
		MeiliIndex:  getEnv("MEILI_INDEX", "attent_knowledge"),

		// Telegram
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAllowedChats: getEnvList("TELEGRAM_ALLOWED_CHATS"),
		TelegramPollInterval: getEnvDuration("TELEGRAM_POLL_INTERVAL", 2*time.Second),

		// Debug
		DBLogQueries: getEnv("DB_LOG_QUERIES", "") == "1",
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

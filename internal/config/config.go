package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string

	LLMProvider  string
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	// HTTP API
	Port               string
	JWTSecret          string
	CORSAllowedOrigins []string

	// Planning
	ExpressConcurrency int

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	TelegramParentID       string
	AdminTelegramID        int64
}

// LoadDotEnv loads a .env file when not running in production. A missing file
// is not an error.
func LoadDotEnv() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq))

	cfg := &Config{
		DatabasePath:       getEnv("DATABASE_PATH", "data/meal-planner.db"),
		LLMProvider:        provider,
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GroqModel:          getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramParentID:   os.Getenv("TELEGRAM_PARENT_ID"),
	}

	switch provider {
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	concurrency, err := strconv.Atoi(getEnv("EXPRESS_CONCURRENCY", "3"))
	if err != nil || concurrency < 1 {
		return nil, fmt.Errorf("invalid EXPRESS_CONCURRENCY %q", os.Getenv("EXPRESS_CONCURRENCY"))
	}
	cfg.ExpressConcurrency = concurrency

	// Telegram Config (Optional for CLI and API, required for Bot)
	for _, raw := range splitList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", raw, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", raw, err)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

// RequireAPI checks the settings only the HTTP API needs.
func (c *Config) RequireAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}

// RequireTelegram checks the settings only the Telegram bot needs.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if c.TelegramParentID == "" {
		return fmt.Errorf("TELEGRAM_PARENT_ID environment variable not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

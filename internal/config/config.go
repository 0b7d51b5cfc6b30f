package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM providers understood by LLM_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// Store backends understood by STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider     string
	GeminiAPIKey    string
	GroqAPIKey      string
	AnthropicAPIKey string
	LLMCachePath    string
	// LLMModel overrides the provider's default model when set.
	LLMModel string

	// Storage
	StoreBackend  string
	DatabasePath  string
	FileStorePath string

	// Ingestion engine
	NormalizerTimeout      time.Duration
	NormalizerRPM          int
	NormalizerConvertUnits bool
	WriteRetries           int

	LogMode string

	// HTTP API
	HTTPAddr     string
	APIJWTSecret string

	// Optional event bus
	RedisAddr    string
	RedisChannel string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		LLMCachePath:    getEnv("LLM_CACHE_PATH", "data/llm_cache.json"),
		LLMModel:        os.Getenv("LLM_MODEL"),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DatabasePath:  getEnv("DATABASE_PATH", "data/smartlist.db"),
		FileStorePath: getEnv("FILE_STORE_PATH", "data/lists"),

		LogMode: getEnv("LOG_MODE", "dev"),

		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		APIJWTSecret: os.Getenv("API_JWT_SECRET"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisChannel: getEnv("REDIS_CHANNEL", "smartlist:events"),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	switch cfg.StoreBackend {
	case BackendSQLite, BackendFile:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	var err error
	if cfg.NormalizerTimeout, err = time.ParseDuration(getEnv("NORMALIZER_TIMEOUT", "20s")); err != nil {
		return nil, fmt.Errorf("invalid NORMALIZER_TIMEOUT: %w", err)
	}
	if cfg.NormalizerRPM, err = strconv.Atoi(getEnv("NORMALIZER_RPM", "15")); err != nil {
		return nil, fmt.Errorf("invalid NORMALIZER_RPM: %w", err)
	}
	if cfg.NormalizerConvertUnits, err = strconv.ParseBool(getEnv("NORMALIZER_CONVERT_UNITS", "false")); err != nil {
		return nil, fmt.Errorf("invalid NORMALIZER_CONVERT_UNITS: %w", err)
	}
	if cfg.WriteRetries, err = strconv.Atoi(getEnv("WRITE_RETRIES", "3")); err != nil || cfg.WriteRetries < 1 {
		return nil, fmt.Errorf("invalid WRITE_RETRIES %q", os.Getenv("WRITE_RETRIES"))
	}

	// Telegram Config (Optional for CLI, required for Bot)
	if ids := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); ids != "" {
		for _, s := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", s, err)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}
	if admin := os.Getenv("ADMIN_TELEGRAM_ID"); admin != "" {
		if cfg.AdminTelegramID, err = strconv.ParseInt(admin, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

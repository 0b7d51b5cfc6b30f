package config

import (
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Defaults", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "")
		setEnv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderGemini {
			t.Errorf("Expected provider '%s', got '%s'", ProviderGemini, cfg.LLMProvider)
		}
		if cfg.StoreBackend != BackendSQLite {
			t.Errorf("Expected backend '%s', got '%s'", BackendSQLite, cfg.StoreBackend)
		}
		if cfg.NormalizerTimeout != 20*time.Second {
			t.Errorf("Expected 20s timeout, got %v", cfg.NormalizerTimeout)
		}
		if cfg.WriteRetries != 3 {
			t.Errorf("Expected 3 write retries, got %d", cfg.WriteRetries)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("Expected HTTPAddr ':8080', got '%s'", cfg.HTTPAddr)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "Anthropic")
		setEnv("ANTHROPIC_API_KEY", "claude_key")
		setEnv("LLM_MODEL", "claude-sonnet-4-5")
		setEnv("STORE_BACKEND", "file")
		setEnv("NORMALIZER_TIMEOUT", "5s")
		setEnv("NORMALIZER_CONVERT_UNITS", "true")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "1, 2")
		setEnv("ADMIN_TELEGRAM_ID", "1")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderAnthropic || cfg.AnthropicAPIKey != "claude_key" {
			t.Errorf("Unexpected provider config: %s / %s", cfg.LLMProvider, cfg.AnthropicAPIKey)
		}
		if cfg.LLMModel != "claude-sonnet-4-5" {
			t.Errorf("Expected model override, got '%s'", cfg.LLMModel)
		}
		if cfg.NormalizerTimeout != 5*time.Second || !cfg.NormalizerConvertUnits {
			t.Errorf("Unexpected normalizer config: %v / %v", cfg.NormalizerTimeout, cfg.NormalizerConvertUnits)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 2 {
			t.Errorf("Unexpected allowed users: %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 1 {
			t.Errorf("Expected admin id 1, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("MissingProviderKey", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "groq")
		setEnv("GROQ_API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
		expectedError := "GROQ_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidWriteRetries", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "gemini")
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("WRITE_RETRIES", "0")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for WRITE_RETRIES=0, got nil")
		}
	})
}

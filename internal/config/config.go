package config

import (
	"fmt"
	"os"
	"strings"
)

// Provider selects which model backend handles vision and text requests.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Config holds the configuration for the application.
type Config struct {
	DataFile      string
	ImagesDir     string
	MetricsDBPath string
	CachePath     string

	Provider     Provider
	GeminiAPIKey string
	OpenAIAPIKey string

	// Telegram Config (optional for CLI, required for the bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dataFile := os.Getenv("WARDROBE_DATA_FILE")
	if dataFile == "" {
		dataFile = "wardrobe_data.json"
	}

	imagesDir := os.Getenv("WARDROBE_IMAGES_DIR")
	if imagesDir == "" {
		imagesDir = "clothing_images"
	}

	metricsDBPath := os.Getenv("WARDROBE_METRICS_DB")
	if metricsDBPath == "" {
		metricsDBPath = "data/metrics.db"
	}

	cachePath := os.Getenv("WARDROBE_ANALYSIS_CACHE")
	if cachePath == "" {
		cachePath = "data/analysis_cache.json"
	}

	provider := Provider(os.Getenv("WARDROBE_PROVIDER"))
	if provider == "" {
		provider = ProviderGemini
	}
	if provider != ProviderGemini && provider != ProviderOpenAI {
		return nil, fmt.Errorf("WARDROBE_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, provider)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	openAIAPIKey := os.Getenv("OPENAI_API_KEY")

	// The key is read once here and reused for every call.
	switch provider {
	case ProviderGemini:
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderOpenAI:
		if openAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")

	var allowedIDs []int64
	if raw := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			var id int64
			if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &id); err != nil {
				return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS contains invalid id %q", part)
			}
			allowedIDs = append(allowedIDs, id)
		}
	}

	var adminID int64
	if raw := os.Getenv("TELEGRAM_ADMIN_ID"); raw != "" {
		fmt.Sscanf(raw, "%d", &adminID)
	}

	return &Config{
		DataFile:               dataFile,
		ImagesDir:              imagesDir,
		MetricsDBPath:          metricsDBPath,
		CachePath:              cachePath,
		Provider:               provider,
		GeminiAPIKey:           geminiAPIKey,
		OpenAIAPIKey:           openAIAPIKey,
		TelegramBotToken:       telegramBotToken,
		TelegramWebhookURL:     telegramWebhookURL,
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,
	}, nil
}

// Package llm implements domain.IntentClassifier on hosted language models.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/internal/domain"
)

// Supported providers
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Config holds classifier settings shared by every provider
type Config struct {
	Provider          string
	APIKey            string
	APIURL            string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
}

func (c Config) withDefaults(model string) Config {
	if c.Model == "" {
		c.Model = model
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRequestTimeout
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = defaultRequestsPerMin
	}
	return c
}

// NewClassifier builds the classifier for cfg.Provider
func NewClassifier(ctx context.Context, cfg Config, logger zerolog.Logger) (domain.IntentClassifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm api key is required")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGroq, "":
		return NewGroqClient(cfg, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	defaultGroqURL         = "https://api.groq.com/openai/v1"
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultTemperature     = 0.3
	defaultMaxTokens       = 1024
	defaultRequestTimeout  = 30 * time.Second
	defaultRequestsPerMin  = 30
	maxErrorBodyLogLength  = 512
	completionsPathSuffix  = "/chat/completions"
	openAICompatiblePrefix = "/openai/v1"
)

// GroqClient classifies messages with an OpenAI-compatible chat completions endpoint
type GroqClient struct {
	httpClient  *http.Client
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	maxTokens   int
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewGroqClient creates a classifier client. Zero-valued settings fall back to defaults.
func NewGroqClient(cfg Config, logger zerolog.Logger) *GroqClient {
	cfg = cfg.withDefaults(defaultGroqModel)

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultGroqURL
	}

	// Requests per minute spread evenly, with a small burst
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), max(1, cfg.RequestsPerMinute/10))

	return &GroqClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:      cfg.APIKey,
		endpoint:    completionsURL(apiURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		rateLimiter: limiter,
		logger:      logger.With().Str("component", "groq").Logger(),
	}
}

// completionsURL accepts a base ending in /v1, a full completions URL or a bare host
func completionsURL(apiURL string) string {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	switch {
	case strings.HasSuffix(apiURL, completionsPathSuffix):
		return apiURL
	case strings.HasSuffix(apiURL, "/v1"):
		return apiURL + completionsPathSuffix
	default:
		return apiURL + openAICompatiblePrefix + completionsPathSuffix
	}
}

// Classify sends one prompt and decodes the reply. Transport failures, non-200 statuses
// and timeouts wrap domain.ErrUpstreamUnavailable. Unusable replies wrap
// domain.ErrClassificationFailed.
func (c *GroqClient) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Intent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrUpstreamUnavailable, domain.ErrRateLimited, err)
	}

	content, err := c.complete(ctx, BuildPrompt(req.Message, req.Context))
	if err != nil {
		return nil, err
	}

	intent, err := DecodeIntent(content)
	if err != nil {
		c.logger.Warn().Err(err).Str("output", truncate(content, maxErrorBodyLogLength)).Msg("unparsable classifier output")
		return nil, err
	}
	return intent, nil
}

func (c *GroqClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "CosmoCart/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrUpstreamUnavailable, err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("classifier responded")

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(raw), maxErrorBodyLogLength)).
			Msg("classifier returned error status")
		upstreamErr := fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			upstreamErr = errors.Join(upstreamErr, domain.ErrRateLimited)
		}
		return "", upstreamErr
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("%w: decode completion: %v", domain.ErrClassificationFailed, err)
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrClassificationFailed)
	}
	return completion.Choices[0].Message.Content, nil
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/cosmocart/backend/internal/domain"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient classifies messages with the Gemini API
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

// NewGeminiClient creates a Gemini-backed classifier. A non-empty cfg.APIURL overrides the
// API base URL.
func NewGeminiClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	cfg = cfg.withDefaults(defaultGeminiModel)

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.APIURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.APIURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		timeout:     cfg.Timeout,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), max(1, cfg.RequestsPerMinute/10)),
		logger:      logger.With().Str("component", "gemini").Logger(),
	}, nil
}

// Classify sends one prompt and decodes the JSON reply
func (c *GeminiClient) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Intent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrUpstreamUnavailable, domain.ErrRateLimited, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(BuildPrompt(req.Message, req.Context)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(c.temperature),
			MaxOutputTokens:   c.maxTokens,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: GenAI generate failed: %v", domain.ErrUpstreamUnavailable, err)
	}

	c.logger.Debug().Dur("latency", time.Since(start)).Msg("classifier responded")

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrClassificationFailed)
	}

	intent, err := DecodeIntent(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("output", truncate(text, maxErrorBodyLogLength)).Msg("unparsable classifier output")
		return nil, err
	}
	return intent, nil
}

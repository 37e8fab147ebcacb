package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	catalogContextCacheKey = "chat:context"
	intentCacheKeyPrefix   = "chat:intent:"
	defaultSampleProducts  = 30
	defaultClassifyTimeout = 30 * time.Second
	maxReadableKeyLength   = 128
)

// User-facing messages for envelopes produced before the orchestrator runs
const (
	emptyMessageText    = "Please type a message so I can help you shop."
	unclassifiedText    = "Could not understand query. Try asking about a product, a category or a price range."
	upstreamDownText    = "Chat service is temporarily unavailable. Please try the regular search."
	internalFailureText = "An error occurred while processing your request. Please try again."
)

// ChatServiceConfig holds configuration for the chat service
type ChatServiceConfig struct {
	ContextTTL      time.Duration
	IntentTTL       time.Duration
	ClassifyTimeout time.Duration
	SampleProducts  int
	Logger          zerolog.Logger
}

// ChatService answers free-text shopping messages.
// Flow: load catalog context -> classify -> normalize intent -> open session -> orchestrate
type ChatService struct {
	catalog         domain.CatalogProvider
	classifier      domain.IntentClassifier
	cache           domain.CacheRepository
	normalizer      *IntentNormalizer
	orchestrator    *QueryOrchestrator
	contextTTL      time.Duration
	intentTTL       time.Duration
	classifyTimeout time.Duration
	sampleProducts  int
	logger          zerolog.Logger
}

// NewChatService creates a new chat service with dependencies
func NewChatService(
	catalog domain.CatalogProvider,
	classifier domain.IntentClassifier,
	cache domain.CacheRepository,
	normalizer *IntentNormalizer,
	orchestrator *QueryOrchestrator,
	config ChatServiceConfig,
) *ChatService {
	timeout := config.ClassifyTimeout
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	samples := config.SampleProducts
	if samples <= 0 {
		samples = defaultSampleProducts
	}

	return &ChatService{
		catalog:         catalog,
		classifier:      classifier,
		cache:           cache,
		normalizer:      normalizer,
		orchestrator:    orchestrator,
		contextTTL:      config.ContextTTL,
		intentTTL:       config.IntentTTL,
		classifyTimeout: timeout,
		sampleProducts:  samples,
		logger:          config.Logger.With().Str("component", "chat").Logger(),
	}
}

// ProcessMessage classifies message and resolves it against the catalog.
// It never fails: classifier, catalog and internal faults all become envelopes.
func (s *ChatService) ProcessMessage(ctx context.Context, message string) (envelope domain.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("chat pipeline panicked")
			envelope = domain.NewEnvelope(domain.QueryUnknown, domain.Unavailable{}, internalFailureText, 0)
		}
	}()

	message = s.normalizer.PreprocessMessage(message)
	if message == "" {
		return domain.NewEnvelope(domain.QueryUnknown, domain.Unclassified{}, emptyMessageText, 0)
	}

	catalogCtx, err := s.CatalogContext(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog context")
		return domain.NewEnvelope(domain.QueryUnknown, domain.Unavailable{}, catalogUnavailableMessage, 0)
	}

	intent, err := s.classify(ctx, message, catalogCtx)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn().Err(err).Msg("classifier unavailable")
			return domain.NewEnvelope(domain.QueryUnknown, domain.Unavailable{}, upstreamDownText, 0)
		}
		s.logger.Warn().Err(err).Str("message", message).Msg("classification failed")
		return domain.NewEnvelope(domain.QueryUnknown, domain.Unclassified{}, unclassifiedText, 0)
	}
	if intent == nil {
		return domain.NewEnvelope(domain.QueryUnknown, domain.Unclassified{}, unclassifiedText, 0)
	}

	normalized := s.normalizer.Normalize(*intent, catalogCtx.Categories)

	session, err := s.catalog.OpenSession(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to open catalog session")
		return domain.NewEnvelope(normalized.QueryType, domain.Unavailable{}, catalogUnavailableMessage, normalized.Confidence)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release catalog session")
		}
	}()

	return s.orchestrator.Handle(ctx, session, OrchestratorInput{
		Intent:         normalized,
		SampleProducts: catalogCtx.SampleProducts,
	})
}

// CatalogContext returns the categories and sample product names the classifier sees,
// served from cache when possible
func (s *ChatService) CatalogContext(ctx context.Context) (domain.CatalogContext, error) {
	var catalogCtx domain.CatalogContext
	if s.getFromCache(ctx, catalogContextCacheKey, &catalogCtx) {
		return catalogCtx, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.catalog.DistinctCategories(gctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		catalogCtx.Categories = categories
		return nil
	})
	g.Go(func() error {
		names, err := s.catalog.SampleProductNames(gctx, s.sampleProducts)
		if err != nil {
			return fmt.Errorf("sample products: %w", err)
		}
		catalogCtx.SampleProducts = names
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.CatalogContext{}, err
	}

	s.setInCache(ctx, catalogContextCacheKey, catalogCtx, s.contextTTL)
	return catalogCtx, nil
}

// classify calls the classifier under a bounded wait. Successful intents are cached
// per normalized message.
func (s *ChatService) classify(ctx context.Context, message string, catalogCtx domain.CatalogContext) (*domain.Intent, error) {
	cacheKey := generateIntentCacheKey(message)

	var cached domain.Intent
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	classifyCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout)
	defer cancel()

	start := time.Now()
	intent, err := s.classifier.Classify(classifyCtx, domain.ClassifyRequest{
		Message: message,
		Context: catalogCtx,
	})
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, domain.ErrClassificationFailed
	}

	s.logger.Info().
		Str("query_type", string(intent.QueryType)).
		Float64("confidence", intent.Confidence).
		Dur("latency", time.Since(start)).
		Msg("message classified")

	s.setInCache(ctx, cacheKey, intent, s.intentTTL)
	return intent, nil
}

// generateIntentCacheKey creates a cache key from a chat message.
// Format: "chat:intent:{normalized_message}", or "chat:intent:sha256:{hex}" for long messages.
func generateIntentCacheKey(message string) string {
	normalized := normalizeForCacheKey(message)
	if len(normalized) > maxReadableKeyLength {
		sum := sha256.Sum256([]byte(normalized))
		return intentCacheKeyPrefix + "sha256:" + hex.EncodeToString(sum[:])
	}
	return intentCacheKeyPrefix + normalized
}

// normalizeForCacheKey lowercases s and collapses whitespace. Every other character is
// kept, so messages that differ in digits, punctuation or script never share a key.
func normalizeForCacheKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// getFromCache decodes a cached JSON value into dest, reporting whether it was found.
// Cache is disabled when no repository is configured or the TTL is zero.
func (s *ChatService) getFromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}
	return true
}

// setInCache stores value as JSON. Failures are logged, never returned.
func (s *ChatService) setInCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

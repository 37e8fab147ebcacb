package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/config"
	"github.com/cosmocart/backend/internal/domain"
	"github.com/cosmocart/backend/internal/infrastructure/cache"
	"github.com/cosmocart/backend/internal/infrastructure/llm"
	"github.com/cosmocart/backend/internal/infrastructure/sqlstore"
	"github.com/cosmocart/backend/internal/observability"
	"github.com/cosmocart/backend/internal/usecase"
)

// app bundles the wired services shared by the serve and chat commands
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	db       *sqlstore.DB
	cache    domain.CacheRepository
	chat     *usecase.ChatService
	catalog  *usecase.CatalogService
	commerce *usecase.CommerceService
	closers  []func() error
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "cosmocart",
	})
	return cfg, logger, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sqlstore.DB, error) {
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	return db, nil
}

func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func() error, error) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:    cfg.Cache.RedisURL,
			Prefix: cfg.Cache.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisCache, redisCache.Close, nil
	}

	memoryCache := cache.NewMemoryCache()
	return memoryCache, memoryCache.Close, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	store, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.cache = store
	a.closers = append(a.closers, closeCache)

	classifier, err := llm.NewClassifier(ctx, llm.Config{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.APIKey,
		APIURL:            cfg.LLM.APIURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("intent classifier: %w", err)
	}

	catalogRepo := sqlstore.NewCatalogRepository(db)
	commerceRepo := sqlstore.NewCommerceRepository(db)

	resolver := usecase.NewProductResolver(usecase.MatchConfig{
		Policy: usecase.MatchPolicy{
			ExactThreshold:   cfg.Matching.ExactThreshold,
			SuggestThreshold: cfg.Matching.SuggestThreshold,
		},
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		Logger:             logger,
	})
	orchestrator := usecase.NewQueryOrchestrator(resolver, usecase.OrchestratorConfig{
		SimilarLimit: cfg.Matching.SimilarLimit,
		Logger:       logger,
	})

	a.chat = usecase.NewChatService(
		catalogRepo,
		classifier,
		store,
		usecase.NewIntentNormalizer(logger, cfg.Matching.EnableDebugLogging),
		orchestrator,
		usecase.ChatServiceConfig{
			ContextTTL:      cfg.Cache.ContextTTL,
			IntentTTL:       cfg.Cache.IntentTTL,
			ClassifyTimeout: cfg.LLM.Timeout,
			SampleProducts:  cfg.Matching.SampleProducts,
			Logger:          logger,
		},
	)
	a.catalog = usecase.NewCatalogService(catalogRepo)
	a.commerce = usecase.NewCommerceService(commerceRepo, commerceRepo, commerceRepo, store,
		usecase.CommerceServiceConfig{OTPTTL: cfg.OTP.TTL, Logger: logger})

	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

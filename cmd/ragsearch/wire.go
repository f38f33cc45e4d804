package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/config"
	"github.com/kailas-cloud/ragsearch/internal/db"
	dbRedis "github.com/kailas-cloud/ragsearch/internal/db/redis"
	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
	"github.com/kailas-cloud/ragsearch/internal/repository/answercache"
	budgetrepo "github.com/kailas-cloud/ragsearch/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/ragsearch/internal/repository/document"
	"github.com/kailas-cloud/ragsearch/internal/repository/embcache"
	"github.com/kailas-cloud/ragsearch/internal/repository/memstore"
	"github.com/kailas-cloud/ragsearch/internal/transport/openai"
	"github.com/kailas-cloud/ragsearch/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
	"github.com/kailas-cloud/ragsearch/internal/usecase/retrieval"
)

// documents is what the engine and the HTTP layer need from a store.
type documents interface {
	All(ctx context.Context) ([]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// storage bundles the document source with the optional KV store.
// kv is nil for the memory driver; caches and budget persistence are then off.
type storage struct {
	docs   documents
	pinger db.Pinger
	kv     db.KVStore
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memstore.New()
		if cfg.Database.DocumentsFile != "" {
			var err error
			store, err = memstore.LoadFile(cfg.Database.DocumentsFile)
			if err != nil {
				return storage{}, fmt.Errorf("load documents: %w", err)
			}
		}
		logger.Info("Using in-memory document store", zap.Int("documents", store.Len()))
		return storage{docs: store, pinger: store, close: func() {}}, nil
	}

	// valkey and redis share the rueidis store.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return storage{}, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return storage{}, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	return storage{
		docs:   documentrepo.New(store, cfg.Storage.KeyPrefix),
		pinger: store,
		kv:     store,
		close:  store.Close,
	}, nil
}

// buildModel assembles the completion chain: OpenAI -> Cached -> Instrumented (budget + usage).
// It also returns the shared budget (read by the usage service) and the raw provider for health checks.
func buildModel(
	ctx context.Context,
	cfg *config.Config,
	kv db.KVStore,
	logger *zap.Logger,
) (domain.LanguageModel, *generation.Budget, healthuc.ProviderChecker) {
	base := openai.NewChatModel(&openai.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})

	var model domain.LanguageModel = base
	if cfg.Cache.Answers && kv != nil {
		model = answercache.New(base, kv, answercache.Config{
			KeyPrefix:  cfg.Storage.KeyPrefix,
			Namespace:  cfg.LLM.Model,
			TTL:        time.Duration(cfg.Cache.AnswerTTLSec) * time.Second,
			CacheTotal: metrics.AnswerCacheTotal,
			Logger:     logger,
		})
	}

	budget := generation.NewBudget(generation.BudgetConfig{
		Provider:     cfg.LLM.Provider,
		KeyPrefix:    cfg.Storage.KeyPrefix,
		DailyLimit:   cfg.LLM.Budget.DailyTokenLimit,
		MonthlyLimit: cfg.LLM.Budget.MonthlyTokenLimit,
		Action:       generation.BudgetAction(cfg.LLM.Budget.Action),
		Logger:       logger,
	})
	if kv != nil {
		budget.WithStore(ctx, budgetrepo.New(kv, 0, 0))
	}

	logger.Info("Language model ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("answer_cache", cfg.Cache.Answers && kv != nil),
	)
	return generation.NewInstrumentedModel(model, cfg.LLM.Provider, cfg.LLM.Model, budget), budget, base
}

// buildScorer picks the relevance scorer. The embedding health checker is nil for lexical scoring.
func buildScorer(
	cfg *config.Config,
	kv db.KVStore,
	logger *zap.Logger,
) (retrieval.Scorer, healthuc.ProviderChecker, error) {
	lexical := retrieval.NewLexical()
	if !cfg.UsesEmbeddings() {
		return lexical, nil, nil
	}

	base := openai.NewEmbedder(&openai.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache.Embeddings && kv != nil {
		embedder = embcache.New(base, kv, embcache.Config{
			KeyPrefix:  cfg.Storage.KeyPrefix,
			TTL:        time.Duration(cfg.Cache.EmbeddingTTLSec) * time.Second,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     logger,
		})
	}

	// Instruction prefix is outermost so cache keys include it.
	semantic := retrieval.NewSemantic(
		withInstruction(embedder, cfg.Embedding.QueryInstruction),
		withInstruction(embedder, cfg.Embedding.DocumentInstruction),
		cfg.Embedding.Concurrency,
	).WithMinSimilarity(cfg.Search.MinSimilarity)

	logger.Info("Embedder ready",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Float64("min_similarity", cfg.Search.MinSimilarity),
	)

	switch cfg.Search.Scorer {
	case config.ScorerSemantic:
		return semantic, base, nil
	case config.ScorerHybrid:
		return retrieval.NewHybrid(lexical, semantic), base, nil
	default:
		return nil, nil, fmt.Errorf("unknown scorer %q", cfg.Search.Scorer)
	}
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// buildHealth registers the database as critical and providers as degradable.
func buildHealth(pinger db.Pinger, llm, embedder healthuc.ProviderChecker) *healthuc.Service {
	svc := healthuc.New(pinger).WithProvider("llm", llm)
	if embedder != nil {
		svc.WithProvider("embedding", embedder)
	}
	return svc
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/config"
	dbRedis "github.com/kailas-cloud/docusort/internal/db/redis"
	"github.com/kailas-cloud/docusort/internal/domain"
	"github.com/kailas-cloud/docusort/internal/extract"
	"github.com/kailas-cloud/docusort/internal/metrics"
	"github.com/kailas-cloud/docusort/internal/repository/artifact"
	budgetrepo "github.com/kailas-cloud/docusort/internal/repository/budget"
	chatrepo "github.com/kailas-cloud/docusort/internal/repository/chat"
	"github.com/kailas-cloud/docusort/internal/repository/embcache"
	"github.com/kailas-cloud/docusort/internal/repository/vectorindex"
	openaiTransport "github.com/kailas-cloud/docusort/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docusort/internal/usecase/answer"
	chatuc "github.com/kailas-cloud/docusort/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/docusort/internal/usecase/embedding"
	financeuc "github.com/kailas-cloud/docusort/internal/usecase/finance"
	healthuc "github.com/kailas-cloud/docusort/internal/usecase/health"
	"github.com/kailas-cloud/docusort/internal/usecase/ingest"
	treeuc "github.com/kailas-cloud/docusort/internal/usecase/tree"
	usageuc "github.com/kailas-cloud/docusort/internal/usecase/usage"
)

// app holds the wired services shared by serve and ask.
type app struct {
	index   *vectorindex.Index
	ingest  *ingest.Service
	chat    *chatuc.Service
	health  *healthuc.Service
	usage   *usageuc.Service
	tree    *treeuc.Service
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// chatStore is satisfied by both session store drivers.
type chatStore interface {
	chatuc.Store
	Close() error
}

// buildApp wires the decorator chain and services:
// OpenAI -> Cached (redis) -> Instrumented (budget + metrics) -> Gateway (offline fallback).
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	for _, dir := range []string{cfg.Storage.UploadsDir, cfg.Storage.GeneratedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	a := &app{}

	var cache *dbRedis.Store
	if cfg.Cache.Driver == "redis" {
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Cache.Addrs, Password: cfg.Cache.Password})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		a.closers = append(a.closers, func() error { store.Close(); return nil })
		cache = store
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	var (
		primary   domain.BatchEmbedder
		generator answeruc.Generator
		completer treeuc.Completer
		checker   healthuc.EmbeddingChecker
		budget    *embeddinguc.BudgetTracker
	)
	if cfg.OpenAI.APIKey != "" {
		client := openaiTransport.NewClient(&openaiTransport.Config{
			APIKey:       cfg.OpenAI.APIKey,
			BaseURL:      cfg.OpenAI.BaseURL,
			RateLimitRPS: cfg.OpenAI.RateLimitRPS,
			Logger:       logger,
		})
		base := openaiTransport.NewEmbedder(client, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.Dimensions)
		checker = base
		gen := openaiTransport.NewGenerator(client, cfg.OpenAI.ChatModel)
		generator, completer = gen, gen

		budget = buildBudget(ctx, cfg.OpenAI.Budget, cache, logger)
		// A typed nil *BudgetTracker must not reach the interface.
		var budgetChecker embeddinguc.BudgetChecker
		if budget != nil {
			budgetChecker = budget
		}

		var embedder domain.Embedder = base
		if cache != nil {
			ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
			embedder = embcache.New(base, cache, cfg.OpenAI.EmbeddingModel, ttl, metrics.EmbeddingCacheTotal, logger)
		}
		primary = embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.OpenAI.EmbeddingModel, budgetChecker, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set, running in offline mode")
	}

	gateway := embeddinguc.NewGateway(primary, embeddinguc.NewFallbackEmbedder(cfg.OpenAI.Dimensions), logger)
	a.index = vectorindex.New()

	writer, err := artifact.NewWriter(cfg.Storage.GeneratedDir)
	if err != nil {
		return nil, err
	}

	store, err := openChatStore(cfg.Chat)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	finance := financeuc.New(gateway, a.index, writer, cfg.Retrieval.PnLTopK, logger)
	answers := answeruc.New(generator, logger)

	a.ingest = ingest.New(extract.New(logger), gateway, a.index,
		cfg.Retrieval.ChunkSize, cfg.Retrieval.Overlap(), logger)
	a.chat = chatuc.New(store, gateway, a.index, answers, finance,
		writer.Dir(), cfg.Retrieval.ChatTopK, logger)

	var pinger healthuc.Pinger
	if cache != nil {
		pinger = cache
	}
	a.health = healthuc.New(pinger, checker, a.index, cfg.OpenAI.ChatModel)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	a.usage = usageuc.New(budgetReader, gateway.Online())
	a.tree = treeuc.New(a.index, completer, logger)

	return a, nil
}

// buildBudget returns nil when no limit is configured.
func buildBudget(
	ctx context.Context, cfg config.BudgetConfig, cache *dbRedis.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if cfg.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker("openai", cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, logger)
	if cache != nil {
		budget.WithStore(ctx, budgetrepo.New(cache, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}
	return budget
}

func openChatStore(cfg config.ChatConfig) (chatStore, error) {
	if cfg.Driver != "bolt" {
		return chatrepo.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create chat store dir: %w", err)
	}
	store, err := chatrepo.OpenBoltStore(cfg.Path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

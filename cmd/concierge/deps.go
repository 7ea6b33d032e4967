package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/compliance"
	"github.com/Veraticus/concierge/internal/config"
	"github.com/Veraticus/concierge/internal/discovery"
	"github.com/Veraticus/concierge/internal/invite"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/search"
	"github.com/Veraticus/concierge/internal/service"
	"github.com/Veraticus/concierge/internal/storage"
	"github.com/Veraticus/concierge/internal/storage/postgres"
)

// app holds the wired pipelines and the resources to release on exit.
type app struct {
	store      service.Storage
	gateway    *llm.Gateway
	discovery  *discovery.Service
	compliance *compliance.Checker
}

// openStorage opens and migrates the configured backend.
func openStorage(ctx context.Context, cfg config.DatabaseConfig) (service.Storage, error) {
	var store service.Storage
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		sqlite, err := storage.NewSQLiteStorage(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store = sqlite
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// buildApp wires both pipelines from cfg. Missing optional credentials
// disable the collaborator instead of failing.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{store: store}

	var client llm.Client
	if cfg.LLM.APIKey != "" {
		gateway, err := llm.NewClient(llm.Config{
			Provider:    cfg.LLM.Provider,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxRetries:  cfg.LLM.MaxRetries,
			RetryDelay:  cfg.LLM.RetryDelay,
			Timeout:     cfg.LLM.Timeout,
			RateLimit:   cfg.LLM.RateLimit,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.gateway = gateway
		client = gateway
	} else {
		logger.Warn("no LLM API key configured; discovery is unavailable and the AI risk screen is skipped")
	}

	deps := discovery.Deps{
		LLM:    client,
		Store:  store,
		Logger: logger,
	}
	if searcher := search.New(search.Config{
		APIKey:          cfg.Search.APIKey,
		BaseURL:         cfg.Search.BaseURL,
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		Timeout:         cfg.Search.Timeout,
	}, logger); searcher.Enabled() {
		deps.Search = searcher
	} else {
		logger.Warn("no search API key configured; discovery runs without web results")
	}
	if cfg.Outreach.InviteURL != "" {
		deps.Inviter = invite.New(cfg.Outreach.InviteURL, cfg.Outreach.APIKey)
	}

	a.discovery = discovery.NewService(deps, discovery.Config{
		CacheTTL:        cfg.Discovery.CacheTTL,
		MemoryCacheSize: cfg.Discovery.MemoryCacheSize,
	})
	a.compliance = compliance.NewChecker(store, client, logger, compliance.WithStaleAfter(cfg.Compliance.StaleAfter))
	return a, nil
}

// Close waits for background cache writes and closes storage.
func (a *app) Close() {
	if a.discovery != nil {
		a.discovery.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			common.LogError(err, "failed to close storage", nil)
		}
	}
}

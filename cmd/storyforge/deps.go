package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/StoryForge/internal/adapter/litellm"
	"github.com/Strob0t/StoryForge/internal/adapter/memory"
	"github.com/Strob0t/StoryForge/internal/adapter/postgres"
	"github.com/Strob0t/StoryForge/internal/adapter/sqlite"
	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/port/docstore"
	"github.com/Strob0t/StoryForge/internal/port/generator"
	"github.com/Strob0t/StoryForge/internal/resilience"
	"github.com/Strob0t/StoryForge/internal/service"
)

// openStore opens the document store selected by store.driver. PostgreSQL
// migrations are applied on open.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return st, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return postgres.NewStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newGenerator returns the LiteLLM client and generator, or nils when no
// LiteLLM URL is configured.
func newGenerator(cfg *config.Config) (*litellm.Client, generator.Generator) {
	if cfg.LiteLLM.URL == "" {
		return nil, nil
	}
	client := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	client.SetBreaker(resilience.NewBreaker("litellm", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithStateChange(func(name, from, to string) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from, "to", to)
		}),
	))
	client.SetPool(resilience.NewPool(cfg.Generator.MaxConcurrent))
	return client, litellm.NewGenerator(client, cfg.Generator)
}

// openService builds a StoryMapService over the configured store. The
// returned function closes the store.
func (a *app) openService(ctx context.Context) (*service.StoryMapService, func(), error) {
	store, err := openStore(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	_, gen := newGenerator(a.cfg)
	svc := service.NewStoryMapService(store, gen, a.cfg.Generator)
	return svc, func() {
		if err := store.Close(); err != nil {
			slog.Warn("close store", "error", err)
		}
	}, nil
}

package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/cache"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/peers"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/store"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/universe"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/fmp"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/perplexity"
)

// env bundles the collaborators shared by the serve, screen, and sweep
// commands.
type env struct {
	Store    store.Store
	Cache    *cache.Service
	FMP      fmp.Client
	LLM      perplexity.Client
	Universe *universe.Cache
	Screener *peers.Screener
	Batch    *peers.Batch
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close", zap.Error(err))
	}
}

// openStore builds the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres", "":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initEnv wires the store, cache, and API clients from configuration.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	fmpOpts := []fmp.Option{}
	if cfg.FMP.BaseURL != "" {
		fmpOpts = append(fmpOpts, fmp.WithBaseURL(cfg.FMP.BaseURL))
	}
	if cfg.FMP.RatePerSec > 0 {
		fmpOpts = append(fmpOpts, fmp.WithRateLimit(cfg.FMP.RatePerSec, int(cfg.FMP.RatePerSec)))
	}
	fmpClient := fmp.NewClient(cfg.FMP.Key, fmpOpts...)

	var llm perplexity.Client
	if cfg.Perplexity.Key != "" {
		llmOpts := []perplexity.Option{perplexity.WithModel(cfg.Perplexity.Model)}
		if cfg.Perplexity.BaseURL != "" {
			llmOpts = append(llmOpts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		llm = perplexity.NewClient(cfg.Perplexity.Key, llmOpts...)
	}

	screener := peers.NewScreener(fmpClient, st, peers.Config{
		MaxIndustryPeers: cfg.Screener.MaxIndustryPeers,
		MinPeers:         cfg.Screener.MinPeers,
		MarketCapFloor:   cfg.Screener.MarketCapFloor,
	})
	batch := peers.NewBatch(screener)
	if cfg.Screener.BatchDelayMillis > 0 {
		batch.ChunkDelay = time.Duration(cfg.Screener.BatchDelayMillis) * time.Millisecond
	}

	return &env{
		Store:    st,
		Cache:    cache.New(st),
		FMP:      fmpClient,
		LLM:      llm,
		Universe: universe.New(time.Duration(cfg.Cache.UniverseTTLMinutes)*time.Minute, nil),
		Screener: screener,
		Batch:    batch,
	}, nil
}

// Package cache implements read-through caching of provider responses,
// layered over an in-process hot cache and the relational store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/store"
)

// TTLs for the two cache classes. Intraday price data goes stale fast;
// everything else is refreshed daily.
const (
	DefaultTTL  = 24 * time.Hour
	IntradayTTL = 5 * time.Minute
)

// Service is a read-through/write-through cache keyed by (ticker, endpoint).
// Store failures are logged and treated as MISS so the caller falls through
// to a direct provider fetch. There is no request coalescing: two
// simultaneous misses for the same key both fetch, last write wins.
type Service struct {
	store  store.Store
	memory *gocache.Cache
}

// New creates a cache service over the given store.
func New(st store.Store) *Service {
	return &Service{
		store:  st,
		memory: gocache.New(IntradayTTL, 10*time.Minute),
	}
}

func cacheKey(ticker, endpoint string) string {
	return ticker + "|" + endpoint
}

// Get returns the cached payload for (ticker, endpoint), or ok=false on miss.
func (s *Service) Get(ctx context.Context, ticker, endpoint string) (json.RawMessage, bool) {
	key := cacheKey(ticker, endpoint)
	if v, found := s.memory.Get(key); found {
		return v.(json.RawMessage), true
	}

	data, err := s.store.GetCachedResponse(ctx, ticker, endpoint)
	if err != nil {
		zap.L().Warn("cache read failed, treating as miss",
			zap.String("ticker", ticker),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	s.memory.Set(key, data, gocache.DefaultExpiration)
	return data, true
}

// Put stores the payload under (ticker, endpoint) with the given TTL.
// Store failures are logged, not returned: a failed cache write must not
// fail the request that produced the data.
func (s *Service) Put(ctx context.Context, ticker, endpoint string, data json.RawMessage, ttl time.Duration) {
	memTTL := ttl
	if memTTL > IntradayTTL {
		memTTL = IntradayTTL
	}
	s.memory.Set(cacheKey(ticker, endpoint), data, memTTL)

	if err := s.store.SetCachedResponse(ctx, ticker, endpoint, data, ttl); err != nil {
		zap.L().Warn("cache write failed",
			zap.String("ticker", ticker),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
	}
}

// GetOrFetch returns the cached payload or, on miss, calls fetch and
// caches its result.
func (s *Service) GetOrFetch(ctx context.Context, ticker, endpoint string, ttl time.Duration, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if data, ok := s.Get(ctx, ticker, endpoint); ok {
		return data, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.Put(ctx, ticker, endpoint, data, ttl)
	return data, nil
}

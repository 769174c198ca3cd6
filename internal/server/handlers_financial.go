package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/cache"
)

func (s *Server) defaultTTL() time.Duration {
	if h := s.cfg.Cache.DefaultTTLHours; h > 0 {
		return time.Duration(h) * time.Hour
	}
	return cache.DefaultTTL
}

func (s *Server) intradayTTL() time.Duration {
	if m := s.cfg.Cache.IntradayTTLMinutes; m > 0 {
		return time.Duration(m) * time.Minute
	}
	return cache.IntradayTTL
}

// proxyCached fetches a provider endpoint through the response cache and
// returns the payload verbatim.
func (s *Server) proxyCached(ctx context.Context, symbol, endpoint, path string, query url.Values, ttl time.Duration) (json.RawMessage, error) {
	return s.cache.GetOrFetch(ctx, symbol, endpoint, ttl, func(ctx context.Context) (json.RawMessage, error) {
		return s.fmp.GetJSON(ctx, path, query)
	})
}

func requireSymbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return "", false
	}
	return symbol, true
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol, ok := requireSymbol(w, r)
	if !ok {
		return
	}

	data, err := s.proxyCached(r.Context(), symbol, "quote", "/quote/"+url.PathEscape(symbol), nil, s.intradayTTL())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch quote", err.Error())
		return
	}
	respondRaw(w, http.StatusOK, data)
}

func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol, ok := requireSymbol(w, r)
	if !ok {
		return
	}

	q := url.Values{}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "annual"
	}
	q.Set("period", period)
	limit := r.URL.Query().Get("limit")
	if limit == "" {
		limit = "5"
	}
	q.Set("limit", limit)

	endpoint := "ratios:" + period + ":" + limit
	data, err := s.proxyCached(r.Context(), symbol, endpoint, "/ratios/"+url.PathEscape(symbol), q, s.defaultTTL())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch ratios", err.Error())
		return
	}
	respondRaw(w, http.StatusOK, data)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol, ok := requireSymbol(w, r)
	if !ok {
		return
	}

	data, err := s.proxyCached(r.Context(), symbol, "profile", "/profile/"+url.PathEscape(symbol), nil, s.defaultTTL())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch profile", err.Error())
		return
	}
	respondRaw(w, http.StatusOK, data)
}

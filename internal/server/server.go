// Package server exposes the dashboard HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/cache"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/config"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/kpi"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/peers"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/store"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/universe"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/fmp"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/perplexity"
)

// Server wires the API handlers to their collaborators.
type Server struct {
	cfg      *config.Config
	store    store.Store
	cache    *cache.Service
	fmp      fmp.Client
	llm      perplexity.Client
	universe *universe.Cache
	screener *peers.Screener
	batch    *peers.Batch
	kpiLLM   *kpi.LLMExtractor
}

// Options carries the server's collaborators.
type Options struct {
	Config   *config.Config
	Store    store.Store
	Cache    *cache.Service
	FMP      fmp.Client
	LLM      perplexity.Client
	Universe *universe.Cache
	Screener *peers.Screener
	Batch    *peers.Batch
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		cache:    opts.Cache,
		fmp:      opts.FMP,
		llm:      opts.LLM,
		universe: opts.Universe,
		screener: opts.Screener,
		batch:    opts.Batch,
	}
	if opts.LLM != nil {
		s.kpiLLM = kpi.NewLLMExtractor(opts.LLM)
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/financial/quote", s.handleQuote)
		r.Get("/financial/ratios", s.handleRatios)
		r.Get("/financial/profile", s.handleProfile)

		r.Route("/stock", func(r chi.Router) {
			r.Get("/universe", s.handleUniverse)
			r.Get("/{symbol}/price", s.handlePrice)
			r.Get("/{symbol}/revenue-segments", s.handleRevenueSegments)
			r.Get("/{symbol}/transcript", s.handleTranscript)
		})

		r.Post("/kpi/extract-simple", s.handleExtractSimple)
		r.Post("/kpi/extract-llm", s.handleExtractLLM)

		r.Post("/competitors/batch", s.handleCompetitorsBatch)
		r.Get("/competitors/manage", s.handleCompetitorsGet)
		r.Post("/competitors/manage", s.handleCompetitorsPost)
		r.Delete("/competitors/manage", s.handleCompetitorsDelete)

		r.Get("/sentiment", s.handleSentiment)
		r.Post("/waitlist", s.handleWaitlist)
	})

	return r
}

// requestLogger logs each request with zap once the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// requireFMPKey guards provider-backed routes. Missing configuration is
// a server error, not a client one.
func (s *Server) requireFMPKey(w http.ResponseWriter) bool {
	if s.cfg.FMP.Key == "" {
		respondError(w, http.StatusInternalServerError, "API key not configured")
		return false
	}
	return true
}

func (s *Server) requireLLM(w http.ResponseWriter) bool {
	if s.cfg.Perplexity.Key == "" || s.llm == nil {
		respondError(w, http.StatusServiceUnavailable, "LLM provider not configured")
		return false
	}
	return true
}

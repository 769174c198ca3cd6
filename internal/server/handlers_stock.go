package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/segments"
)

// transcriptTimeout bounds the earnings-transcript fetch; transcripts
// are by far the slowest provider endpoint.
const transcriptTimeout = 15 * time.Second

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	if listings, ok := s.universe.Get(); ok {
		respondJSON(w, http.StatusOK, listings)
		return
	}
	if !s.requireFMPKey(w) {
		return
	}

	raw, err := s.fmp.StockList(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch stock list", err.Error())
		return
	}

	listings := make([]model.StockListing, 0, len(raw))
	for _, l := range raw {
		listings = append(listings, model.StockListing{
			Symbol:   l.Symbol,
			Name:     l.Name,
			Exchange: l.Exchange,
			Type:     l.Type,
		})
	}
	s.universe.Set(listings)
	respondJSON(w, http.StatusOK, listings)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "1Y"
	}
	days := model.TimeframeDays(timeframe, time.Now())

	ttl := s.defaultTTL()
	if timeframe == "1D" {
		ttl = s.intradayTTL()
	}

	q := url.Values{}
	q.Set("timeseries", strconv.Itoa(days))
	data, err := s.proxyCached(r.Context(), symbol, "price:"+timeframe, "/historical-price-full/"+url.PathEscape(symbol), q, ttl)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch prices", err.Error())
		return
	}

	var hist struct {
		Symbol     string           `json:"symbol"`
		Historical []model.PriceBar `json:"historical"`
	}
	if err := json.Unmarshal(data, &hist); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to parse prices", err.Error())
		return
	}

	// Provider returns newest-first; charts want oldest-first.
	bars := hist.Historical
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"symbol":    symbol,
		"timeframe": timeframe,
		"bars":      bars,
	})
}

func (s *Server) handleRevenueSegments(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	segmentType := r.URL.Query().Get("type")
	path := "/revenue-product-segmentation"
	if segmentType == "geographic" {
		path = "/revenue-geographic-segmentation"
	} else {
		segmentType = "product"
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("structure", "flat")
	data, err := s.proxyCached(r.Context(), symbol, "segments:"+segmentType, path, q, s.defaultTTL())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch segments", err.Error())
		return
	}

	entries, err := segments.Aggregate(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to aggregate segments", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"type":     segmentType,
		"segments": entries,
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	quarter, _ := strconv.Atoi(r.URL.Query().Get("quarter"))

	ctx, cancel := context.WithTimeout(r.Context(), transcriptTimeout)
	defer cancel()

	data, err := s.fmp.EarningsTranscript(ctx, symbol, year, quarter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch transcript", err.Error())
		return
	}
	respondRaw(w, http.StatusOK, data)
}

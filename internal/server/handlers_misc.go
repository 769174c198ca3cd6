package server

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/sentiment"
)

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}
	symbol, ok := requireSymbol(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := url.Values{}
	q.Set("tickers", symbol)
	q.Set("limit", strconv.Itoa(limit))
	data, err := s.proxyCached(r.Context(), symbol, "news:"+strconv.Itoa(limit), "/stock_news", q, s.intradayTTL())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch news", err.Error())
		return
	}

	var articles []model.NewsArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to parse news", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sentiment.Score(symbol, articles))
}

type waitlistRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	if err := s.store.AddWaitlistEmail(r.Context(), email); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to join waitlist", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "joined", "email": email})
}

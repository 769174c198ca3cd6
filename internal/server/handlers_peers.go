package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/peers"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/store"
)

type batchRequest struct {
	Symbols   []string `json:"symbols"`
	BatchSize int      `json:"batchSize"`
}

func (s *Server) handleCompetitorsBatch(w http.ResponseWriter, r *http.Request) {
	if !s.requireFMPKey(w) {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	result := s.batch.Process(r.Context(), req.Symbols, req.BatchSize)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompetitorsGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if symbol := strings.ToUpper(strings.TrimSpace(q.Get("symbol"))); symbol != "" {
		rec, err := s.store.GetPeers(r.Context(), symbol)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load peers", err.Error())
			return
		}
		if rec == nil {
			respondError(w, http.StatusNotFound, "peer record not found")
			return
		}
		respondJSON(w, http.StatusOK, rec)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	recs, err := s.store.ListPeers(r.Context(), store.PeerFilter{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list peers", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(recs),
		"records": recs,
	})
}

type managePeersRequest struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Peers    []string `json:"peers"`
	Sector   string   `json:"sector"`
	Industry string   `json:"industry"`
}

func (s *Server) handleCompetitorsPost(w http.ResponseWriter, r *http.Request) {
	var req managePeersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	peerList := req.Peers
	if r.URL.Query().Get("source") == "ai" {
		if !s.requireLLM(w) {
			return
		}
		suggested, err := peers.SuggestLLM(r.Context(), s.llm, symbol)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to suggest peers", err.Error())
			return
		}
		peerList = suggested
	}

	for i := range peerList {
		peerList[i] = strings.ToUpper(strings.TrimSpace(peerList[i]))
	}

	rec := model.PeerRecord{
		Symbol:    symbol,
		Name:      req.Name,
		Peers:     model.SanitizePeers(symbol, peerList),
		Sector:    req.Sector,
		Industry:  req.Industry,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.UpsertPeers(r.Context(), rec); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save peers", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCompetitorsDelete(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := s.store.DeletePeers(r.Context(), symbol); err != nil {
		if errors.Is(err, store.ErrPeerNotFound) {
			respondError(w, http.StatusNotFound, "peer record not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete peers", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": symbol})
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/kpi"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// normalizePeriod maps a fiscal period label (FY, Q1..Q4, annual, monthly)
// onto a reporting period, keeping the fallback when the label is unknown.
func normalizePeriod(label string, fallback model.KPIPeriod) model.KPIPeriod {
	switch l := strings.ToUpper(strings.TrimSpace(label)); {
	case l == "FY" || l == "ANNUAL":
		return model.KPIPeriodAnnual
	case l == "MONTHLY":
		return model.KPIPeriodMonthly
	case strings.HasPrefix(l, "Q"):
		return model.KPIPeriodQuarterly
	default:
		return fallback
	}
}

// maxUploadBytes caps the multipart document body.
const maxUploadBytes = 10 << 20

func (s *Server) handleExtractSimple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.FormValue("symbol")))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	defer file.Close() //nolint:errcheck

	text, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read file", err.Error())
		return
	}

	docType := r.FormValue("documentType")
	reportDate := r.FormValue("reportDate")
	fiscalPeriod := r.FormValue("fiscalPeriod")

	kpis := kpi.ExtractPattern(string(text))
	for i := range kpis {
		kpis[i].Symbol = symbol
		if docType != "" {
			kpis[i].SourceDocument = docType
		} else {
			kpis[i].SourceDocument = header.Filename
		}
		kpis[i].Date = reportDate
		if fiscalPeriod != "" {
			kpis[i].Period = normalizePeriod(fiscalPeriod, kpis[i].Period)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"count":  len(kpis),
		"kpis":   kpis,
	})
}

type extractLLMRequest struct {
	Text         string `json:"text"`
	Symbol       string `json:"symbol"`
	Industry     string `json:"industry"`
	DocumentType string `json:"documentType"`
}

func (s *Server) handleExtractLLM(w http.ResponseWriter, r *http.Request) {
	var req extractLLMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if !s.requireLLM(w) {
		return
	}

	result, err := s.kpiLLM.Extract(r.Context(), kpi.ExtractRequest{
		Text:         req.Text,
		Symbol:       req.Symbol,
		Industry:     req.Industry,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		if errors.Is(err, kpi.ErrInvalidJSON) {
			respondError(w, http.StatusInternalServerError, "Invalid JSON response", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "extraction failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// errorEnvelope is the JSON error body returned by every route.
type errorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

// respondRaw writes an already-encoded JSON payload verbatim.
func respondRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string, details ...string) {
	env := errorEnvelope{Error: msg}
	if len(details) > 0 {
		env.Details = details[0]
	}
	respondJSON(w, status, env)
}

package kpi

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidJSON marks an LLM response that could not be parsed even
// after best-effort extraction. Callers use errors.Is to distinguish
// malformed data from an empty result.
var ErrInvalidJSON = eris.New("kpi: invalid JSON response")

// RawKPI is one metric as returned by the extraction prompt.
type RawKPI struct {
	Type        string  `json:"type"`
	DisplayName string  `json:"displayName"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Period      string  `json:"period"`
	SourceText  string  `json:"sourceText"`
	Confidence  float64 `json:"confidence"`
	Category    string  `json:"category"`
}

// ParsedKPIs is the structured payload demanded by the extraction prompt.
type ParsedKPIs struct {
	KPIs []RawKPI `json:"kpis"`
}

// ParseResponse parses LLM output in two stages: a strict JSON parse,
// then a fallback that extracts the outermost {...} block from prose or
// code fences. Total failure returns an error wrapping ErrInvalidJSON.
func ParseResponse(content string) (*ParsedKPIs, error) {
	trimmed := strings.TrimSpace(content)

	var parsed ParsedKPIs
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return &parsed, nil
	}

	block, ok := extractJSONBlock(trimmed)
	if !ok {
		return nil, eris.Wrap(ErrInvalidJSON, "no JSON object found")
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, eris.Wrap(ErrInvalidJSON, err.Error())
	}
	return &parsed, nil
}

// extractJSONBlock returns the substring from the first '{' to the last
// '}', the outermost object in a prose- or fence-wrapped response.
func extractJSONBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

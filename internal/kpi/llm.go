package kpi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/perplexity"
)

// industryHints lists metrics worth looking for per industry. Unknown
// industries fall back to the generic set.
var industryHints = map[string][]string{
	"technology": {"monthly active users", "daily active users", "ARR", "net revenue retention", "paid seats"},
	"retail":     {"same-store sales growth", "store count", "e-commerce penetration", "inventory turnover"},
	"gaming":     {"daily active users", "monthly active users", "bookings", "average revenue per paying user"},
	"telecom":    {"subscribers", "ARPU", "churn rate", "net adds", "postpaid/prepaid mix"},
	"streaming":  {"paid subscribers", "ARPU", "churn rate", "content spend", "engagement hours"},
}

var genericHints = []string{"subscribers", "customers", "units sold", "active users", "margins", "growth rates"}

// documentTypeHints steer the prompt toward the sections that matter for
// each filing type.
var documentTypeHints = map[string]string{
	"10-K":                  "Focus on the business overview and MD&A sections; prefer annual figures.",
	"10-Q":                  "Focus on the MD&A section; prefer quarterly figures.",
	"earnings-release":      "Focus on the highlights and outlook sections; prefer quarterly figures.",
	"investor-presentation": "Focus on labeled charts and callout figures.",
}

// LLMExtractor extracts KPIs by prompting a chat-completion model for
// structured JSON.
type LLMExtractor struct {
	llm perplexity.Client
}

// NewLLMExtractor creates an extractor over the given LLM client.
func NewLLMExtractor(llm perplexity.Client) *LLMExtractor {
	return &LLMExtractor{llm: llm}
}

// ExtractRequest describes one LLM extraction call.
type ExtractRequest struct {
	Text         string
	Symbol       string
	Industry     string
	DocumentType string
}

// ExtractResult carries the extracted KPIs and the mean per-KPI
// confidence (0 for an empty set).
type ExtractResult struct {
	KPIs              []model.ExtractedKPI `json:"kpis"`
	OverallConfidence float64              `json:"overallConfidence"`
}

const systemPrompt = `You are a financial analyst extracting key performance indicators from company documents. Respond with JSON only, no prose, no code fences.`

func buildPrompt(req ExtractRequest) string {
	hints := industryHints[strings.ToLower(req.Industry)]
	if hints == nil {
		hints = genericHints
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract operational KPIs for %s from the document below.\n", strings.ToUpper(req.Symbol))
	fmt.Fprintf(&b, "Metrics to look for: %s.\n", strings.Join(hints, ", "))
	if hint, ok := documentTypeHints[req.DocumentType]; ok {
		b.WriteString(hint)
		b.WriteString("\n")
	}
	b.WriteString(`Return JSON of the form {"kpis":[{"type","displayName","value","unit","period","sourceText","confidence","category"}]} where unit is one of count|USD|percentage, period is quarterly|annual|monthly, category is operational|customer|financial|efficiency|growth, value is the fully scaled number (52.6 million -> 52600000), sourceText is the verbatim snippet, and confidence is between 0 and 1.`)
	b.WriteString("\n\nDocument:\n")
	b.WriteString(req.Text)
	return b.String()
}

// Extract prompts the LLM and post-processes the structured response.
func (e *LLMExtractor) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	text := req.Text
	if len(text) > maxInputBytes {
		req.Text = text[:maxInputBytes]
	}

	content, err := e.llm.Complete(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		return nil, err
	}

	parsed, err := ParseResponse(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	symbol := strings.ToUpper(req.Symbol)
	kpis := make([]model.ExtractedKPI, 0, len(parsed.KPIs))
	var confSum float64

	for _, rk := range parsed.KPIs {
		kpis = append(kpis, model.ExtractedKPI{
			Symbol:           symbol,
			KPIType:          rk.Type,
			DisplayName:      rk.DisplayName,
			Category:         model.KPICategory(rk.Category),
			Value:            rk.Value,
			Unit:             model.KPIUnit(rk.Unit),
			Period:           model.KPIPeriod(rk.Period),
			SourceText:       rk.SourceText,
			SourceDocument:   req.DocumentType,
			ExtractionMethod: model.ExtractionLLM,
			Confidence:       rk.Confidence,
			Validated:        false,
			QualityScore:     rk.Confidence,
			AnomalyFlags:     []string{},
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		confSum += rk.Confidence
	}

	overall := 0.0
	if len(kpis) > 0 {
		overall = confSum / float64(len(kpis))
	}

	zap.L().Debug("llm extraction complete",
		zap.String("symbol", symbol),
		zap.Int("kpis", len(kpis)),
		zap.Float64("overall_confidence", overall),
	)

	return &ExtractResult{KPIs: kpis, OverallConfidence: overall}, nil
}

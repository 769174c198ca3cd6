package peers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/perplexity"
)

const peerSystemPrompt = `You are an equity analyst. Respond with a JSON array of ticker symbols only, no prose.`

// SuggestLLM asks the LLM for comparable companies. The response is
// parsed defensively: strict JSON first, then the first [...] block.
func SuggestLLM(ctx context.Context, llm perplexity.Client, symbol string) ([]string, error) {
	symbol = strings.ToUpper(symbol)

	prompt := "List the 5 to 10 publicly traded companies most comparable to " + symbol +
		` for valuation purposes. Return a JSON array of US-listed ticker symbols, e.g. ["MSFT","GOOGL"].`

	content, err := llm.Complete(ctx, peerSystemPrompt, prompt)
	if err != nil {
		return nil, eris.Wrapf(err, "peers: llm suggest %s", symbol)
	}

	tickers, err := parseTickerArray(content)
	if err != nil {
		return nil, err
	}

	for i := range tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(tickers[i]))
	}
	return model.SanitizePeers(symbol, tickers), nil
}

func parseTickerArray(content string) ([]string, error) {
	trimmed := strings.TrimSpace(content)

	var tickers []string
	if err := json.Unmarshal([]byte(trimmed), &tickers); err == nil {
		return tickers, nil
	}

	start := strings.IndexByte(trimmed, '[')
	end := strings.LastIndexByte(trimmed, ']')
	if start < 0 || end <= start {
		return nil, eris.New("peers: no JSON array in llm response")
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &tickers); err != nil {
		return nil, eris.Wrap(err, "peers: parse llm response")
	}
	return tickers, nil
}

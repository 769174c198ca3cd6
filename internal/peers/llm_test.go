package peers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Metapanda-byte/FinHub1-sub003/pkg/perplexity"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) ChatCompletion(context.Context, perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) Complete(context.Context, string, string) (string, error) {
	return f.response, f.err
}

func TestSuggestLLM(t *testing.T) {
	llm := &fakeLLM{response: `["MSFT", "googl", "AMZN"]`}

	peers, err := SuggestLLM(context.Background(), llm, "aapl")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "GOOGL", "AMZN"}, peers)
}

func TestSuggestLLM_StripsProseAndSelf(t *testing.T) {
	llm := &fakeLLM{response: "The best comparables are:\n[\"MSFT\", \"AAPL\", \"GOOGL\"]\nbased on business mix."}

	peers, err := SuggestLLM(context.Background(), llm, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "GOOGL"}, peers, "subject ticker removed")
}

func TestSuggestLLM_NoArray(t *testing.T) {
	llm := &fakeLLM{response: "I cannot answer that."}

	_, err := SuggestLLM(context.Background(), llm, "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON array")
}

func TestSuggestLLM_ProviderError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("status 500")}

	_, err := SuggestLLM(context.Background(), llm, "AAPL")
	require.Error(t, err)
}

func TestParseTickerArray(t *testing.T) {
	tickers, err := parseTickerArray("```json\n[\"A\",\"B\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tickers)

	_, err = parseTickerArray(`["A", 42]`)
	require.Error(t, err)
}

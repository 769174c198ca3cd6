// Package fmp provides a client for the Financial Modeling Prep API.
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://financialmodelingprep.com/api/v3"

// Client performs requests against the Financial Modeling Prep API.
type Client interface {
	// GetJSON fetches an arbitrary endpoint and returns the raw payload.
	// Proxy routes use this to pass provider responses through verbatim.
	GetJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error)

	Profile(ctx context.Context, symbol string) (*Profile, error)
	HistoricalPrices(ctx context.Context, symbol string, days int) (*HistoricalPrices, error)
	Screener(ctx context.Context, params ScreenerParams) ([]ScreenerResult, error)
	StockNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error)
	StockList(ctx context.Context) ([]Listing, error)
	EarningsTranscript(ctx context.Context, symbol string, year, quarter int) (json.RawMessage, error)
}

// Profile is a company profile record.
type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MktCap      float64 `json:"mktCap"`
	Price       float64 `json:"price"`
	Exchange    string  `json:"exchangeShortName"`
}

// HistoricalPrices is the historical-price-full response.
type HistoricalPrices struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume int64   `json:"volume"`
	} `json:"historical"`
}

// ScreenerParams filters the stock screener endpoint.
type ScreenerParams struct {
	Industry          string
	Sector            string
	MarketCapMoreThan float64
	Limit             int
}

// ScreenerResult is one screener hit.
type ScreenerResult struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	MarketCap   float64 `json:"marketCap"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
}

// NewsItem is one stock news article.
type NewsItem struct {
	Symbol        string `json:"symbol"`
	PublishedDate string `json:"publishedDate"`
	Title         string `json:"title"`
	Site          string `json:"site"`
	Text          string `json:"text"`
	URL           string `json:"url"`
}

// Listing is one entry of the tradable stock list.
type Listing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchangeShortName"`
	Type     string `json:"type"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Financial Modeling Prep API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GetJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fmp: rate limiter wait")
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apikey", c.apiKey)

	reqURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fmp: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: GET %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fmp: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fmp: GET %s returned status %d", path, resp.StatusCode)
	}
	return body, nil
}

func (c *httpClient) getInto(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.GetJSON(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "fmp: decode %s", path)
	}
	return nil
}

func (c *httpClient) Profile(ctx context.Context, symbol string) (*Profile, error) {
	var profiles []Profile
	if err := c.getInto(ctx, "/profile/"+url.PathEscape(symbol), nil, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, eris.Errorf("fmp: no profile for %s", symbol)
	}
	return &profiles[0], nil
}

func (c *httpClient) HistoricalPrices(ctx context.Context, symbol string, days int) (*HistoricalPrices, error) {
	q := url.Values{}
	q.Set("timeseries", fmt.Sprintf("%d", days))
	var hist HistoricalPrices
	if err := c.getInto(ctx, "/historical-price-full/"+url.PathEscape(symbol), q, &hist); err != nil {
		return nil, err
	}
	return &hist, nil
}

func (c *httpClient) Screener(ctx context.Context, params ScreenerParams) ([]ScreenerResult, error) {
	q := url.Values{}
	if params.Industry != "" {
		q.Set("industry", params.Industry)
	}
	if params.Sector != "" {
		q.Set("sector", params.Sector)
	}
	if params.MarketCapMoreThan > 0 {
		q.Set("marketCapMoreThan", fmt.Sprintf("%.0f", params.MarketCapMoreThan))
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", fmt.Sprintf("%d", limit))

	var results []ScreenerResult
	if err := c.getInto(ctx, "/stock-screener", q, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *httpClient) StockNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("tickers", symbol)
	q.Set("limit", fmt.Sprintf("%d", limit))

	var items []NewsItem
	if err := c.getInto(ctx, "/stock_news", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *httpClient) StockList(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	if err := c.getInto(ctx, "/stock/list", nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (c *httpClient) EarningsTranscript(ctx context.Context, symbol string, year, quarter int) (json.RawMessage, error) {
	q := url.Values{}
	if year > 0 {
		q.Set("year", fmt.Sprintf("%d", year))
	}
	if quarter > 0 {
		q.Set("quarter", fmt.Sprintf("%d", quarter))
	}
	return c.GetJSON(ctx, "/earning_call_transcript/"+url.PathEscape(symbol), q)
}

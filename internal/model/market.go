package model

import "time"

// PriceBar is a single OHLCV bar reshaped for charting.
type PriceBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// SegmentEntry is one slice of a revenue-segment or geography breakdown,
// derived per request and never persisted.
type SegmentEntry struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// StockListing is one entry in the tradable-symbol universe.
type StockListing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchangeShortName,omitempty"`
	Type     string `json:"type,omitempty"`
}

// NewsArticle is a provider news item used for sentiment scoring.
type NewsArticle struct {
	Symbol        string    `json:"symbol"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	Site          string    `json:"site,omitempty"`
	URL           string    `json:"url,omitempty"`
	PublishedDate string    `json:"publishedDate,omitempty"`
	Sentiment     string    `json:"sentiment,omitempty"`
	FetchedAt     time.Time `json:"-"`
}

// SentimentResult aggregates keyword sentiment over recent news.
type SentimentResult struct {
	Symbol   string        `json:"symbol"`
	Score    float64       `json:"score"`
	Label    string        `json:"label"`
	Positive int           `json:"positive"`
	Negative int           `json:"negative"`
	Neutral  int           `json:"neutral"`
	Articles []NewsArticle `json:"articles"`
}

// timeframeDays maps chart timeframes to lookback windows in days.
var timeframeDays = map[string]int{
	"1D":  1,
	"1W":  7,
	"1M":  30,
	"3M":  90,
	"6M":  180,
	"YTD": 0, // computed from Jan 1
	"1Y":  365,
	"3Y":  1095,
	"5Y":  1825,
	"MAX": 7300,
}

// TimeframeDays returns the lookback window for a chart timeframe.
// YTD is computed against the given reference time; unknown timeframes
// default to one year.
func TimeframeDays(timeframe string, now time.Time) int {
	days, ok := timeframeDays[timeframe]
	if !ok {
		return 365
	}
	if timeframe == "YTD" {
		jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		days = int(now.Sub(jan1).Hours()/24) + 1
	}
	return days
}

// Package peers selects comparable companies for a ticker, either by
// market-cap similarity screening or by LLM recommendation, and persists
// the result to the peer store.
package peers

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/store"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/fmp"
)

// Config tunes the similarity screen.
type Config struct {
	// MaxIndustryPeers caps the first (industry) pass.
	MaxIndustryPeers int
	// MinPeers triggers the sector fallback pass and caps its top-up.
	MinPeers int
	// MarketCapFloor excludes micro caps from screener queries.
	MarketCapFloor float64
}

// DefaultConfig matches the dashboard's production tuning.
func DefaultConfig() Config {
	return Config{
		MaxIndustryPeers: 8,
		MinPeers:         5,
		MarketCapFloor:   1e8,
	}
}

// Screener selects peers by market-cap distance within an industry.
type Screener struct {
	fmp   fmp.Client
	store store.Store
	cfg   Config
}

// NewScreener creates a Screener.
func NewScreener(client fmp.Client, st store.Store, cfg Config) *Screener {
	if cfg.MaxIndustryPeers <= 0 {
		cfg.MaxIndustryPeers = 8
	}
	if cfg.MinPeers <= 0 {
		cfg.MinPeers = 5
	}
	return &Screener{fmp: client, store: st, cfg: cfg}
}

// Screen finds peers for symbol and persists them. The industry pass
// takes the closest candidates by absolute market-cap distance; when it
// yields fewer than MinPeers, a sector pass tops the list up.
func (s *Screener) Screen(ctx context.Context, symbol string) (*model.PeerRecord, error) {
	symbol = strings.ToUpper(symbol)

	profile, err := s.fmp.Profile(ctx, symbol)
	if err != nil {
		return nil, eris.Wrapf(err, "peers: profile %s", symbol)
	}

	peers, err := s.rankCandidates(ctx, symbol, profile.MktCap, fmp.ScreenerParams{
		Industry:          profile.Industry,
		MarketCapMoreThan: s.cfg.MarketCapFloor,
	}, s.cfg.MaxIndustryPeers, nil)
	if err != nil {
		return nil, err
	}

	if len(peers) < s.cfg.MinPeers && profile.Sector != "" {
		fill, err := s.rankCandidates(ctx, symbol, profile.MktCap, fmp.ScreenerParams{
			Sector:            profile.Sector,
			MarketCapMoreThan: s.cfg.MarketCapFloor,
		}, s.cfg.MinPeers-len(peers), peers)
		if err != nil {
			zap.L().Warn("sector fallback pass failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		} else {
			peers = append(peers, fill...)
		}
	}

	rec := model.PeerRecord{
		Symbol:   symbol,
		Name:     profile.CompanyName,
		Peers:    peers,
		Sector:   profile.Sector,
		Industry: profile.Industry,
	}
	if err := s.store.UpsertPeers(ctx, rec); err != nil {
		return nil, eris.Wrapf(err, "peers: persist %s", symbol)
	}

	zap.L().Info("peer screen complete",
		zap.String("symbol", symbol),
		zap.Int("peers", len(peers)),
	)
	return &rec, nil
}

// rankCandidates queries the screener, drops the subject, already-chosen
// symbols, and non-positive caps, and returns the closest n by absolute
// market-cap distance.
func (s *Screener) rankCandidates(ctx context.Context, symbol string, subjectCap float64, params fmp.ScreenerParams, n int, exclude []string) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	params.Limit = 100

	results, err := s.fmp.Screener(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "peers: screener query")
	}

	excluded := map[string]bool{symbol: true}
	for _, e := range exclude {
		excluded[e] = true
	}

	candidates := results[:0]
	for _, r := range results {
		sym := strings.ToUpper(r.Symbol)
		if excluded[sym] || r.MarketCap <= 0 {
			continue
		}
		r.Symbol = sym
		candidates = append(candidates, r)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].MarketCap-subjectCap) < math.Abs(candidates[j].MarketCap-subjectCap)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	peers := make([]string, len(candidates))
	for i, c := range candidates {
		peers[i] = c.Symbol
	}
	return peers, nil
}

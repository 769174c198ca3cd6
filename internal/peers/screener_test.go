package peers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
	"github.com/Metapanda-byte/FinHub1-sub003/internal/store"
	"github.com/Metapanda-byte/FinHub1-sub003/pkg/fmp"
)

// fakeFMP serves canned profiles and screener results.
type fakeFMP struct {
	profiles     map[string]*fmp.Profile
	profileErr   error
	industryHits []fmp.ScreenerResult
	sectorHits   []fmp.ScreenerResult
	screenerErr  error
	sectorErr    error
}

func (f *fakeFMP) GetJSON(context.Context, string, url.Values) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

func (f *fakeFMP) Profile(_ context.Context, symbol string) (*fmp.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p, ok := f.profiles[symbol]
	if !ok {
		return nil, errors.New("no profile")
	}
	return p, nil
}

func (f *fakeFMP) HistoricalPrices(context.Context, string, int) (*fmp.HistoricalPrices, error) {
	return nil, errors.New("not used")
}

func (f *fakeFMP) Screener(_ context.Context, params fmp.ScreenerParams) ([]fmp.ScreenerResult, error) {
	// Fresh copy per call: the ranking pass filters the slice in place.
	if params.Industry != "" {
		if f.screenerErr != nil {
			return nil, f.screenerErr
		}
		return append([]fmp.ScreenerResult(nil), f.industryHits...), nil
	}
	if f.sectorErr != nil {
		return nil, f.sectorErr
	}
	return append([]fmp.ScreenerResult(nil), f.sectorHits...), nil
}

func (f *fakeFMP) StockNews(context.Context, string, int) ([]fmp.NewsItem, error) {
	return nil, errors.New("not used")
}

func (f *fakeFMP) StockList(context.Context) ([]fmp.Listing, error) {
	return nil, errors.New("not used")
}

func (f *fakeFMP) EarningsTranscript(context.Context, string, int, int) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

// memStore records the peer record written by a screen run.
type memStore struct {
	upserted  *model.PeerRecord
	upsertErr error
}

func (m *memStore) GetCachedResponse(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}
func (m *memStore) SetCachedResponse(context.Context, string, string, []byte, time.Duration) error {
	return nil
}
func (m *memStore) DeleteExpiredResponses(context.Context) (int, error) { return 0, nil }
func (m *memStore) UpsertPeers(_ context.Context, rec model.PeerRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = &rec
	return nil
}
func (m *memStore) GetPeers(context.Context, string) (*model.PeerRecord, error) { return nil, nil }
func (m *memStore) ListPeers(context.Context, store.PeerFilter) ([]model.PeerRecord, error) {
	return nil, nil
}
func (m *memStore) DeletePeers(context.Context, string) error      { return nil }
func (m *memStore) AddWaitlistEmail(context.Context, string) error { return nil }
func (m *memStore) Migrate(context.Context) error                  { return nil }
func (m *memStore) Close() error                                   { return nil }

func hit(symbol string, cap float64) fmp.ScreenerResult {
	return fmp.ScreenerResult{Symbol: symbol, MarketCap: cap}
}

func TestScreen_RanksByMarketCapDistance(t *testing.T) {
	client := &fakeFMP{
		profiles: map[string]*fmp.Profile{
			"AAPL": {Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: "Technology", Industry: "Consumer Electronics", MktCap: 3000},
		},
		industryHits: []fmp.ScreenerResult{
			hit("FARCAP", 10),
			hit("NEAR1", 2900),
			hit("NEAR2", 3100),
			hit("AAPL", 3000), // subject is excluded
			hit("MID", 2000),
			hit("NEG", -5), // non-positive caps are excluded
			hit("NEAR3", 2800),
			hit("NEAR4", 3300),
		},
	}
	st := &memStore{}
	s := NewScreener(client, st, Config{MaxIndustryPeers: 3, MinPeers: 2})

	rec, err := s.Screen(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, "Apple Inc.", rec.Name)
	assert.Equal(t, []string{"NEAR1", "NEAR2", "NEAR3"}, rec.Peers)
	assert.NotContains(t, rec.Peers, "AAPL")

	require.NotNil(t, st.upserted)
	assert.Equal(t, rec.Peers, st.upserted.Peers)
}

func TestScreen_SectorTopUpWhenIndustryThin(t *testing.T) {
	client := &fakeFMP{
		profiles: map[string]*fmp.Profile{
			"XYZ": {Symbol: "XYZ", Sector: "Industrials", Industry: "Niche Widgets", MktCap: 500},
		},
		industryHits: []fmp.ScreenerResult{hit("ONLY", 480)},
		sectorHits: []fmp.ScreenerResult{
			hit("ONLY", 480), // already chosen, not duplicated
			hit("SEC1", 520),
			hit("SEC2", 900),
			hit("SEC3", 100),
			hit("SEC4", 5000),
		},
	}
	s := NewScreener(client, &memStore{}, Config{MaxIndustryPeers: 8, MinPeers: 5})

	rec, err := s.Screen(context.Background(), "XYZ")
	require.NoError(t, err)

	// 1 industry peer + a top-up to MinPeers total.
	require.Len(t, rec.Peers, 5)
	assert.Equal(t, "ONLY", rec.Peers[0])
	assert.NotContains(t, rec.Peers[1:], "ONLY")
}

func TestScreen_SectorFallbackFailureIsNotFatal(t *testing.T) {
	client := &fakeFMP{
		profiles: map[string]*fmp.Profile{
			"XYZ": {Symbol: "XYZ", Sector: "Industrials", Industry: "Niche Widgets", MktCap: 500},
		},
		industryHits: []fmp.ScreenerResult{hit("ONLY", 480)},
		sectorErr:    errors.New("screener down"),
	}
	s := NewScreener(client, &memStore{}, Config{MaxIndustryPeers: 8, MinPeers: 5})

	rec, err := s.Screen(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ONLY"}, rec.Peers)
}

func TestScreen_ProfileErrorAborts(t *testing.T) {
	client := &fakeFMP{profileErr: errors.New("no profile")}
	st := &memStore{}
	s := NewScreener(client, st, DefaultConfig())

	_, err := s.Screen(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Nil(t, st.upserted)
}

func TestScreen_PersistErrorSurfaces(t *testing.T) {
	client := &fakeFMP{
		profiles: map[string]*fmp.Profile{
			"AAPL": {Symbol: "AAPL", Industry: "Consumer Electronics", MktCap: 3000},
		},
		industryHits: []fmp.ScreenerResult{hit("MSFT", 2900)},
	}
	s := NewScreener(client, &memStore{upsertErr: errors.New("db down")}, DefaultConfig())

	_, err := s.Screen(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist")
}

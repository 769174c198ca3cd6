package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "finhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	payload := []byte(`{"price":190.5,"symbol":"AAPL"}`)
	require.NoError(t, st.SetCachedResponse(ctx, "AAPL", "quote", payload, time.Hour))

	data, err := st.GetCachedResponse(ctx, "AAPL", "quote")
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(data))
}

func TestSQLiteCacheMiss(t *testing.T) {
	st := newTestSQLite(t)

	data, err := st.GetCachedResponse(context.Background(), "AAPL", "quote")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLiteCacheExpiry(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	// Already expired on write.
	require.NoError(t, st.SetCachedResponse(ctx, "AAPL", "quote", []byte(`{}`), -time.Minute))

	data, err := st.GetCachedResponse(ctx, "AAPL", "quote")
	require.NoError(t, err)
	assert.Nil(t, data, "expired rows read as a miss")
}

func TestSQLiteCacheUpsertReplaces(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedResponse(ctx, "AAPL", "quote", []byte(`{"v":1}`), time.Hour))
	require.NoError(t, st.SetCachedResponse(ctx, "AAPL", "quote", []byte(`{"v":2}`), time.Hour))

	data, err := st.GetCachedResponse(ctx, "AAPL", "quote")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))
}

func TestSQLiteSweepDeletesOnlyExpired(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedResponse(ctx, "AAPL", "quote", []byte(`{}`), -time.Minute))
	require.NoError(t, st.SetCachedResponse(ctx, "MSFT", "quote", []byte(`{"live":true}`), time.Hour))

	n, err := st.DeleteExpiredResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := st.GetCachedResponse(ctx, "MSFT", "quote")
	require.NoError(t, err)
	assert.JSONEq(t, `{"live":true}`, string(data))
}

func TestSQLitePeerCRUD(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	rec := model.PeerRecord{
		Symbol:   "AAPL",
		Name:     "Apple Inc.",
		Peers:    []string{"MSFT", "AAPL", "GOOGL"},
		Sector:   "Technology",
		Industry: "Consumer Electronics",
	}
	require.NoError(t, st.UpsertPeers(ctx, rec))

	got, err := st.GetPeers(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Apple Inc.", got.Name)
	assert.Equal(t, []string{"MSFT", "GOOGL"}, got.Peers, "self-reference stripped on write")

	// Overwrite wholesale.
	rec.Peers = []string{"AMZN"}
	require.NoError(t, st.UpsertPeers(ctx, rec))
	got, err = st.GetPeers(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"AMZN"}, got.Peers)

	require.NoError(t, st.DeletePeers(ctx, "AAPL"))
	got, err = st.GetPeers(ctx, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = st.DeletePeers(ctx, "AAPL")
	require.ErrorIs(t, err, ErrPeerNotFound)
}

func TestSQLiteListPeers(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	for _, sym := range []string{"MSFT", "AAPL", "GOOGL"} {
		require.NoError(t, st.UpsertPeers(ctx, model.PeerRecord{Symbol: sym, Peers: []string{"X"}}))
	}

	recs, err := st.ListPeers(ctx, PeerFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "AAPL", recs[0].Symbol, "sorted by symbol")

	recs, err = st.ListPeers(ctx, PeerFilter{Search: "oog"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "GOOGL", recs[0].Symbol)

	recs, err = st.ListPeers(ctx, PeerFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "GOOGL", recs[0].Symbol)
}

func TestSQLiteWaitlist(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.AddWaitlistEmail(ctx, "user@example.com"))
	// Duplicate signups are silently ignored.
	require.NoError(t, st.AddWaitlistEmail(ctx, "user@example.com"))
}

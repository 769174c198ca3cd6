// Package store provides persistence for cached provider responses,
// peer lists, and waitlist signups.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// ErrPeerNotFound is returned when a peer operation targets a symbol
// with no stored record.
var ErrPeerNotFound = eris.New("peer record not found")

// PeerFilter specifies criteria for listing peer records.
type PeerFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the dashboard backend.
type Store interface {
	// Provider response cache, keyed by (ticker, endpoint). A read past
	// expiry returns (nil, nil); expired rows are only removed by
	// DeleteExpiredResponses.
	GetCachedResponse(ctx context.Context, ticker, endpoint string) (json.RawMessage, error)
	SetCachedResponse(ctx context.Context, ticker, endpoint string, data []byte, ttl time.Duration) error
	DeleteExpiredResponses(ctx context.Context) (int, error)

	// Peer records
	UpsertPeers(ctx context.Context, rec model.PeerRecord) error
	GetPeers(ctx context.Context, symbol string) (*model.PeerRecord, error)
	ListPeers(ctx context.Context, filter PeerFilter) ([]model.PeerRecord, error)
	DeletePeers(ctx context.Context, symbol string) error

	// Waitlist
	AddWaitlistEmail(ctx context.Context, email string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

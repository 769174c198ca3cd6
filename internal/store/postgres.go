package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// Pool abstracts pgxpool.Pool for testability with pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS api_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ticker     TEXT NOT NULL,
	endpoint   TEXT NOT NULL,
	data       JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	UNIQUE (ticker, endpoint)
);

CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_api_cache_key_expires ON api_cache(ticker, endpoint, expires_at DESC);

CREATE TABLE IF NOT EXISTS stock_peers (
	symbol     TEXT PRIMARY KEY,
	name       TEXT,
	peers      JSONB NOT NULL DEFAULT '[]',
	sector     TEXT,
	industry   TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stock_peers_sector ON stock_peers(sector);

CREATE TABLE IF NOT EXISTS waitlist_emails (
	email      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) GetCachedResponse(ctx context.Context, ticker, endpoint string) (json.RawMessage, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM api_cache
		 WHERE ticker = $1 AND endpoint = $2 AND expires_at > now()
		 ORDER BY fetched_at DESC LIMIT 1`,
		ticker, endpoint,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached response")
	}
	return data, nil
}

func (s *PostgresStore) SetCachedResponse(ctx context.Context, ticker, endpoint string, data []byte, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_cache (id, ticker, endpoint, data, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (ticker, endpoint) DO UPDATE SET data = $4, fetched_at = $5, expires_at = $6`,
		id, ticker, endpoint, data, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set cached response")
}

func (s *PostgresStore) DeleteExpiredResponses(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired responses")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) UpsertPeers(ctx context.Context, rec model.PeerRecord) error {
	peersJSON, err := json.Marshal(model.SanitizePeers(rec.Symbol, rec.Peers))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal peers")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO stock_peers (symbol, name, peers, sector, industry, updated_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (symbol) DO UPDATE SET name = $2, peers = $3, sector = $4, industry = $5, updated_at = $6`,
		rec.Symbol, rec.Name, peersJSON, rec.Sector, rec.Industry, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert peers %s", rec.Symbol)
}

func (s *PostgresStore) GetPeers(ctx context.Context, symbol string) (*model.PeerRecord, error) {
	var rec model.PeerRecord
	var name, sector, industry *string
	var peersJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT symbol, name, peers, sector, industry, updated_at FROM stock_peers WHERE symbol = $1`,
		symbol,
	).Scan(&rec.Symbol, &name, &peersJSON, &sector, &industry, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get peers %s", symbol)
	}

	if name != nil {
		rec.Name = *name
	}
	if sector != nil {
		rec.Sector = *sector
	}
	if industry != nil {
		rec.Industry = *industry
	}
	if err := json.Unmarshal(peersJSON, &rec.Peers); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal peers")
	}
	return &rec, nil
}

func (s *PostgresStore) ListPeers(ctx context.Context, filter PeerFilter) ([]model.PeerRecord, error) {
	query := `SELECT symbol, name, peers, sector, industry, updated_at FROM stock_peers WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Search != "" {
		query += fmt.Sprintf(` AND (symbol ILIKE $%d OR name ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	query += ` ORDER BY symbol ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list peers")
	}
	defer rows.Close()

	var recs []model.PeerRecord
	for rows.Next() {
		var rec model.PeerRecord
		var name, sector, industry *string
		var peersJSON []byte

		if err := rows.Scan(&rec.Symbol, &name, &peersJSON, &sector, &industry, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan peer record")
		}
		if name != nil {
			rec.Name = *name
		}
		if sector != nil {
			rec.Sector = *sector
		}
		if industry != nil {
			rec.Industry = *industry
		}
		if err := json.Unmarshal(peersJSON, &rec.Peers); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal peers")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list peers iterate")
}

func (s *PostgresStore) DeletePeers(ctx context.Context, symbol string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stock_peers WHERE symbol = $1`, symbol)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete peers %s", symbol)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrPeerNotFound, "postgres: delete peers %s", symbol)
	}
	return nil
}

func (s *PostgresStore) AddWaitlistEmail(ctx context.Context, email string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO waitlist_emails (email, created_at) VALUES ($1, $2)
		 ON CONFLICT (email) DO NOTHING`,
		email, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: add waitlist email")
}

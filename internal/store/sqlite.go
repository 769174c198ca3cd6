package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for
// local development; production deployments use PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS api_cache (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	endpoint   TEXT NOT NULL,
	data       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	UNIQUE (ticker, endpoint)
);

CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache(expires_at);

CREATE TABLE IF NOT EXISTS stock_peers (
	symbol     TEXT PRIMARY KEY,
	name       TEXT,
	peers      TEXT NOT NULL DEFAULT '[]',
	sector     TEXT,
	industry   TEXT,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS waitlist_emails (
	email      TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedResponse(ctx context.Context, ticker, endpoint string) (json.RawMessage, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM api_cache
		 WHERE ticker = ? AND endpoint = ? AND expires_at > ?
		 ORDER BY fetched_at DESC LIMIT 1`,
		ticker, endpoint, time.Now().UTC(),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get cached response")
	}
	return json.RawMessage(data), nil
}

func (s *SQLiteStore) SetCachedResponse(ctx context.Context, ticker, endpoint string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_cache (id, ticker, endpoint, data, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker, endpoint) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		uuid.New().String(), ticker, endpoint, string(data), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached response")
}

func (s *SQLiteStore) DeleteExpiredResponses(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired responses")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) UpsertPeers(ctx context.Context, rec model.PeerRecord) error {
	peersJSON, err := json.Marshal(model.SanitizePeers(rec.Symbol, rec.Peers))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal peers")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stock_peers (symbol, name, peers, sector, industry, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (symbol) DO UPDATE SET name = excluded.name, peers = excluded.peers,
		   sector = excluded.sector, industry = excluded.industry, updated_at = excluded.updated_at`,
		rec.Symbol, rec.Name, string(peersJSON), rec.Sector, rec.Industry, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert peers %s", rec.Symbol)
}

func (s *SQLiteStore) GetPeers(ctx context.Context, symbol string) (*model.PeerRecord, error) {
	var rec model.PeerRecord
	var name, sector, industry sql.NullString
	var peersJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT symbol, name, peers, sector, industry, updated_at FROM stock_peers WHERE symbol = ?`,
		symbol,
	).Scan(&rec.Symbol, &name, &peersJSON, &sector, &industry, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get peers %s", symbol)
	}

	rec.Name = name.String
	rec.Sector = sector.String
	rec.Industry = industry.String
	if err := json.Unmarshal([]byte(peersJSON), &rec.Peers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal peers")
	}
	return &rec, nil
}

func (s *SQLiteStore) ListPeers(ctx context.Context, filter PeerFilter) ([]model.PeerRecord, error) {
	query := `SELECT symbol, name, peers, sector, industry, updated_at FROM stock_peers WHERE 1=1`
	args := []any{}

	if filter.Search != "" {
		query += ` AND (symbol LIKE ? OR name LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY symbol ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list peers")
	}
	defer rows.Close()

	var recs []model.PeerRecord
	for rows.Next() {
		var rec model.PeerRecord
		var name, sector, industry sql.NullString
		var peersJSON string

		if err := rows.Scan(&rec.Symbol, &name, &peersJSON, &sector, &industry, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan peer record")
		}
		rec.Name = name.String
		rec.Sector = sector.String
		rec.Industry = industry.String
		if err := json.Unmarshal([]byte(peersJSON), &rec.Peers); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal peers")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list peers iterate")
}

func (s *SQLiteStore) DeletePeers(ctx context.Context, symbol string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stock_peers WHERE symbol = ?`, symbol)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete peers %s", symbol)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrPeerNotFound, "sqlite: delete peers %s", symbol)
	}
	return nil
}

func (s *SQLiteStore) AddWaitlistEmail(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO waitlist_emails (email, created_at) VALUES (?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		email, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: add waitlist email")
}

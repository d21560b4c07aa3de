package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rentbeacon/internal/db"
	"github.com/sells-group/rentbeacon/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var listingsUpsert = db.UpsertConfig{
	Table:     ListingsTable,
	IDColumn:  "id",
	KeyColumn: "provider_id",
	Columns:   model.Columns(),
}

// NewPostgres creates a PostgresStore with a connection pool. The pool is
// released by Close.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	if connString == "" {
		return nil, eris.New("postgres: database url is required (DATABASE_URL)")
	}

	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Single-process CLI; a small pool is plenty.
	maxConns := int32(4)
	minConns := int32(1)
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close releases it.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id             SERIAL PRIMARY KEY,
	provider_id    TEXT NOT NULL,
	provider       TEXT NOT NULL,
	address        TEXT,
	address_line1  TEXT,
	address_line2  TEXT,
	city           TEXT,
	state          TEXT,
	zip_code       TEXT,
	county         TEXT,
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION,
	property_type  TEXT,
	status         TEXT,
	price          INTEGER,
	bedrooms       DOUBLE PRECISION,
	bathrooms      DOUBLE PRECISION,
	square_feet    INTEGER,
	lot_size       INTEGER,
	year_built     INTEGER,
	listed_date    TEXT,
	removed_date   TEXT,
	created_date   TEXT,
	last_seen_date TEXT,
	days_on_market INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS ix_listings_provider_id ON listings(provider_id);
CREATE INDEX IF NOT EXISTS ix_listings_city ON listings(city);
CREATE INDEX IF NOT EXISTS ix_listings_state ON listings(state);
CREATE INDEX IF NOT EXISTS ix_listings_zip_code ON listings(zip_code);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return eris.Wrap(err, "postgres: ping")
	}
	return nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// UpsertListings writes the batch in one transaction. Any failure rolls back
// every write made by this call.
func (s *PostgresStore) UpsertListings(ctx context.Context, listings []model.Listing) (UpsertResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return UpsertResult{}, eris.Wrap(err, "postgres: upsert listings: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := upsertEach(listings, func(l model.Listing) (db.UpsertOutcome, error) {
		outcome, err := db.UpsertRow(ctx, tx, listingsUpsert, l.ProviderID, l.Values())
		return outcome, eris.Wrapf(err, "postgres: upsert listing %s", l.ProviderID)
	})
	if err != nil {
		return UpsertResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return UpsertResult{}, eris.Wrap(err, "postgres: upsert listings: commit tx")
	}
	return res, nil
}

func (s *PostgresStore) GetListing(ctx context.Context, providerID string) (*model.Listing, error) {
	query := "SELECT " + strings.Join(selectListingColumns(), ", ") + " FROM listings WHERE provider_id = $1"

	var l model.Listing
	err := s.pool.QueryRow(ctx, query, providerID).Scan(l.ScanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get listing")
	}
	return &l, nil
}

func (s *PostgresStore) CountListings(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count listings")
	}
	return n, nil
}

func (s *PostgresStore) SampleListings(ctx context.Context, limit int) ([]model.Listing, error) {
	query := "SELECT " + strings.Join(selectListingColumns(), ", ") + " FROM listings ORDER BY id LIMIT $1"

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sample listings")
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(l.ScanTargets()...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate listings")
}

func (s *PostgresStore) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan table name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "postgres: iterate tables")
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rentbeacon/internal/db"
	"github.com/sells-group/rentbeacon/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := conn.Ping(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: open")
	}
	return &SQLiteStore{db: conn}, nil
}

func withPragmas(dsn string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// AUTOINCREMENT keeps ids from being reused after deletes.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_id    TEXT NOT NULL,
	provider       TEXT NOT NULL,
	address        TEXT,
	address_line1  TEXT,
	address_line2  TEXT,
	city           TEXT,
	state          TEXT,
	zip_code       TEXT,
	county         TEXT,
	latitude       REAL,
	longitude      REAL,
	property_type  TEXT,
	status         TEXT,
	price          INTEGER,
	bedrooms       REAL,
	bathrooms      REAL,
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return eris.Wrap(err, "sqlite: ping")
	}
	return nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	sqliteSelectID = `SELECT id FROM listings WHERE provider_id = ?`
	sqliteInsert   = fmt.Sprintf(`INSERT INTO listings (provider_id, %s) VALUES (?%s)`,
		strings.Join(model.Columns(), ", "),
		strings.Repeat(", ?", len(model.Columns())),
	)
	sqliteUpdate = fmt.Sprintf(`UPDATE listings SET %s = ? WHERE id = ?`,
		strings.Join(model.Columns(), " = ?, "),
	)
)

// UpsertListings writes the batch in one transaction. Any failure rolls back
// every write made by this call.
func (s *SQLiteStore) UpsertListings(ctx context.Context, listings []model.Listing) (UpsertResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, eris.Wrap(err, "sqlite: upsert listings: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := upsertEach(listings, func(l model.Listing) (db.UpsertOutcome, error) {
		var id int64
		err := tx.QueryRowContext(ctx, sqliteSelectID, l.ProviderID).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			args := append([]any{l.ProviderID}, l.Values()...)
			if _, err := tx.ExecContext(ctx, sqliteInsert, args...); err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert listing %s", l.ProviderID)
			}
			return db.Inserted, nil
		case err != nil:
			return 0, eris.Wrapf(err, "sqlite: lookup listing %s", l.ProviderID)
		}

		args := append(l.Values(), id)
		if _, err := tx.ExecContext(ctx, sqliteUpdate, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: update listing %s", l.ProviderID)
		}
		return db.Updated, nil
	})
	if err != nil {
		return UpsertResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, eris.Wrap(err, "sqlite: upsert listings: commit tx")
	}
	return res, nil
}

func (s *SQLiteStore) GetListing(ctx context.Context, providerID string) (*model.Listing, error) {
	query := "SELECT " + strings.Join(selectListingColumns(), ", ") + " FROM listings WHERE provider_id = ?"

	var l model.Listing
	err := s.db.QueryRowContext(ctx, query, providerID).Scan(l.ScanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get listing")
	}
	return &l, nil
}

func (s *SQLiteStore) CountListings(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count listings")
	}
	return n, nil
}

func (s *SQLiteStore) SampleListings(ctx context.Context, limit int) ([]model.Listing, error) {
	query := "SELECT " + strings.Join(selectListingColumns(), ", ") + " FROM listings ORDER BY id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sample listings")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(l.ScanTargets()...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate listings")
}

func (s *SQLiteStore) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tables")
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan table name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "sqlite: iterate tables")
}

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a table keyed by a natural key column alongside a
// surrogate primary key.
type UpsertConfig struct {
	Table     string   // target table (e.g., "public.listings")
	IDColumn  string   // surrogate key assigned by the database
	KeyColumn string   // natural key with a unique constraint
	Columns   []string // mutable columns written on insert and update
}

// UpsertOutcome reports which branch UpsertRow took.
type UpsertOutcome int

const (
	Inserted UpsertOutcome = iota + 1
	Updated
)

// UpsertRow writes one row inside q, which is normally a transaction owned by
// the caller:
// 1. SELECT the surrogate id by natural key
// 2. INSERT when no row exists, letting the database assign the id
// 3. otherwise UPDATE every mutable column of the matched row
//
// values must line up with cfg.Columns. The caller decides commit or rollback.
func UpsertRow(ctx context.Context, q Querier, cfg UpsertConfig, key any, values []any) (UpsertOutcome, error) {
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert row: no columns specified")
	}
	if cfg.KeyColumn == "" || cfg.IDColumn == "" {
		return 0, eris.New("db: upsert row: id and key columns are required")
	}
	if len(values) != len(cfg.Columns) {
		return 0, eris.Errorf("db: upsert row: %d values for %d columns", len(values), len(cfg.Columns))
	}

	var id int64
	err := q.QueryRow(ctx, selectByKeySQL(cfg), key).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		args := append([]any{key}, values...)
		if _, err := q.Exec(ctx, insertSQL(cfg), args...); err != nil {
			return 0, eris.Wrapf(err, "db: upsert row: insert into %s", cfg.Table)
		}
		return Inserted, nil
	case err != nil:
		return 0, eris.Wrapf(err, "db: upsert row: lookup in %s", cfg.Table)
	}

	args := append(append([]any{}, values...), id)
	if _, err := q.Exec(ctx, updateSQL(cfg), args...); err != nil {
		return 0, eris.Wrapf(err, "db: upsert row: update %s", cfg.Table)
	}
	return Updated, nil
}

func selectByKeySQL(cfg UpsertConfig) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		pgx.Identifier{cfg.IDColumn}.Sanitize(),
		sanitizeTable(cfg.Table),
		pgx.Identifier{cfg.KeyColumn}.Sanitize(),
	)
}

func insertSQL(cfg UpsertConfig) string {
	cols := append([]string{cfg.KeyColumn}, cfg.Columns...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sanitizeTable(cfg.Table),
		quoteAndJoin(cols),
		strings.Join(placeholders, ", "),
	)
}

func updateSQL(cfg UpsertConfig) string {
	setClauses := make([]string, len(cfg.Columns))
	for i, col := range cfg.Columns {
		setClauses[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		sanitizeTable(cfg.Table),
		strings.Join(setClauses, ", "),
		pgx.Identifier{cfg.IDColumn}.Sanitize(),
		len(cfg.Columns)+1,
	)
}

// sanitizeTable handles schema-qualified table names like "public.listings".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

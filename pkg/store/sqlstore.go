package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQL is a generic Store backed by one table (named by the caller, one per
// record kind) keyed by id with
// a JSON blob column, usable against any database/sql driver. Production
// deployments wire *sql.DB from modernc.org/sqlite (embedded, single-node)
// or github.com/lib/pq (Postgres, multi-writer), matching the two backends
// the teacher's receipt/credential stores offer side by side.
type SQL[T any] struct {
	db      *sql.DB
	table   string
	pgStyle bool // true: $1, $2 placeholders (Postgres); false: ? (SQLite)
}

// NewSQLiteStore opens (or reuses) db and ensures the records table exists
// for the given logical table name (one per record kind, e.g. "tasks").
func NewSQLiteStore[T any](db *sql.DB, table string) (*SQL[T], error) {
	s := &SQL[T]{db: db, table: table, pgStyle: false}
	if err := s.migrateSQLite(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgresStore is the Postgres-dialect equivalent (SERIAL/TEXT PRIMARY
// KEY syntax is identical here; the dialect difference lives in migrate and
// in placeholder style).
func NewPostgresStore[T any](db *sql.DB, table string) (*SQL[T], error) {
	s := &SQL[T]{db: db, table: table, pgStyle: true}
	if err := s.migratePostgres(); err != nil {
		return nil, err
	}
	return s, nil
}

// ph renders the nth (1-based) bind placeholder in this store's dialect.
func (s *SQL[T]) ph(n int) string {
	if s.pgStyle {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQL[T]) migrateSQLite() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		payload JSON NOT NULL
	);`, s.table)
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("store: migrate sqlite table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQL[T]) migratePostgres() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	);`, s.table)
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("store: migrate postgres table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQL[T]) Get(ctx context.Context, id string) (*T, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT payload FROM %s WHERE id = %s`, s.table, s.ph(1)), id)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, NewNotFound(id)
		}
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &v, nil
}

func (s *SQL[T]) Put(ctx context.Context, id string, rec *T) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", id, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, payload) VALUES (%s, %s)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`, s.table, s.ph(1), s.ph(2))
	if _, err := s.db.ExecContext(ctx, query, id, string(raw)); err != nil {
		return fmt.Errorf("store: put %s: %w", id, err)
	}
	return nil
}

func (s *SQL[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, s.table, s.ph(1))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

func (s *SQL[T]) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", s.table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", s.table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQL[T]) Exists(ctx context.Context, id string) (bool, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = %s`, s.table, s.ph(1)), id)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("store: exists %s: %w", id, err)
	}
	return true, nil
}

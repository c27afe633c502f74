package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const DefaultSlotTable = "slots"

var _ domain.SlotStore = (*SQLSlotStore)(nil)

// SQLSlotStore keeps one row per slot. The same queries run on SQLite and
// Postgres; placeholders are rebound for the driver in use.
type SQLSlotStore struct {
	db    *sqlx.DB
	table string
}

func NewSQLSlotStore(db *sqlx.DB, table string) (*SQLSlotStore, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = DefaultSlotTable
	}

	return &SQLSlotStore{
		db:    db,
		table: pq.QuoteIdentifier(table),
	}, nil
}

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" gives a
// private in-memory database; the pool is pinned to one connection so every
// query sees the same database.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func OpenPostgres(host, port, user, password, name string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name)
	return OpenPostgresDSN(dsn)
}

func OpenPostgresDSN(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func (r *SQLSlotStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create slot table %s: %w", r.table, err)
	}
	return nil
}

func (r *SQLSlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := r.db.Rebind(fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, r.table))

	var value string
	err := r.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}

	return []byte(value), nil
}

func (r *SQLSlotStore) Put(ctx context.Context, key string, value []byte) error {
	query := r.db.Rebind(fmt.Sprintf(`
        INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET
            value = excluded.value,
            updated_at = excluded.updated_at`, r.table))

	if _, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

func (r *SQLSlotStore) Delete(ctx context.Context, key string) error {
	query := r.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.table))

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

func (r *SQLSlotStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

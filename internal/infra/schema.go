package infra

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		firstname TEXT NOT NULL,
		lastname TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		secret_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		owner_user_id UUID NOT NULL REFERENCES users(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_owner_idx ON contacts (owner_user_id, position)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id BIGSERIAL PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		address TEXT,
		ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS alerts_ts_idx ON alerts (ts DESC, id DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		firstname TEXT NOT NULL,
		lastname TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		secret_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL REFERENCES users(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_owner_idx ON contacts (owner_user_id, position)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		address TEXT,
		ts INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS alerts_ts_idx ON alerts (ts DESC, id DESC)`,
}

// EnsurePostgresSchema creates the users, contacts and alerts tables when absent.
// It is safe to run on every start.
func EnsurePostgresSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure postgres schema: %w", err)
		}
	}
	return nil
}

// EnsureSQLiteSchema is the SQLite counterpart of EnsurePostgresSchema.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure sqlite schema: %w", err)
		}
	}
	return nil
}

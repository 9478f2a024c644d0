// Package sqlite persists the portfolio: accounts, positions, liabilities,
// other assets, and net-worth snapshots.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go driver
)

// DB wraps the SQLite connection.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the portfolio database in dir and applies the
// schema migrations.
func Open(dir string) (*DB, error) {
	path := filepath.Join(dir, "nestegg.db")
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; WAL keeps readers unblocked during balance updates.
	sqldb.SetMaxOpenConns(1)
	if _, err := sqldb.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	db := &DB{db: sqldb}
	if err := db.migrate(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}

// migrate applies the schema. Each string is a single SQL statement
// (SQLite executes one at a time).
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id           TEXT PRIMARY KEY,
			account_name TEXT NOT NULL,
			institution  TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS positions (
			id         TEXT PRIMARY KEY,
			account_id TEXT NOT NULL DEFAULT '',
			ticker     TEXT NOT NULL DEFAULT '',
			name       TEXT NOT NULL DEFAULT '',
			asset_type TEXT NOT NULL DEFAULT 'security',
			quantity   REAL NOT NULL DEFAULT 0,
			amount     REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_ticker ON positions(ticker)`,

		`CREATE TABLE IF NOT EXISTS liabilities (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			liability_type  TEXT NOT NULL DEFAULT '',
			institution     TEXT NOT NULL DEFAULT '',
			current_balance REAL NOT NULL DEFAULT 0,
			updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS other_assets (
			id            TEXT PRIMARY KEY,
			asset_name    TEXT NOT NULL,
			asset_type    TEXT NOT NULL DEFAULT '',
			institution   TEXT NOT NULL DEFAULT '',
			current_value REAL NOT NULL DEFAULT 0,
			updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Net-worth snapshots, written on every refresh
		`CREATE TABLE IF NOT EXISTS networth_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			assets      REAL NOT NULL DEFAULT 0,
			liabilities REAL NOT NULL DEFAULT 0,
			other       REAL NOT NULL DEFAULT 0,
			net         REAL NOT NULL DEFAULT 0,
			snapshot_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_at ON networth_snapshots(snapshot_at)`,
	}
}

// Package sqlite stores schema packages as single-file SQLite databases.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string

	// ReadOnly opens an existing database without creating the schema.
	ReadOnly bool
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.db = conn
	if db.ReadOnly {
		return nil
	}

	// Package files travel as one file, so no -wal or -shm siblings.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = DELETE"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set journal mode: %w", err)
		}
	}

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (db *DB) dsn() string {
	if !db.ReadOnly || db.path == ":memory:" {
		return db.path
	}
	// URI filenames must be absolute or the first segment parses as an
	// authority.
	p, err := filepath.Abs(db.path)
	if err != nil {
		p = db.path
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro"}
	return u.String()
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// createSchema creates the package tables if they don't exist.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS namespaces (
			position INTEGER PRIMARY KEY,
			prefix TEXT NOT NULL,
			uri TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mappings (
			position INTEGER PRIMARY KEY,
			from_location TEXT NOT NULL,
			to_location TEXT NOT NULL,
			pattern INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS entry_points (
			position INTEGER PRIMARY KEY,
			location TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS documents (
			position INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			target_namespace TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			markup BLOB,
			content_hash TEXT NOT NULL DEFAULT '',
			chameleon_namespace TEXT,
			source_package TEXT,
			source_priority INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS index_entries (
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			namespace TEXT NOT NULL DEFAULT '',
			local_name TEXT NOT NULL,
			origin TEXT NOT NULL REFERENCES documents(path),
			priority INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (kind, namespace, local_name)
		);

		CREATE TABLE IF NOT EXISTS failures (
			position INTEGER PRIMARY KEY,
			document TEXT NOT NULL,
			site INTEGER NOT NULL,
			attr TEXT NOT NULL,
			reference TEXT NOT NULL,
			namespace TEXT NOT NULL DEFAULT '',
			local_name TEXT NOT NULL DEFAULT '',
			suggestions TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS duplicates (
			position INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			namespace TEXT NOT NULL DEFAULT '',
			local_name TEXT NOT NULL,
			kept TEXT NOT NULL,
			replaced TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_index_entries_local_name ON index_entries(local_name);
	`

	_, err := db.db.Exec(schema)
	return err
}

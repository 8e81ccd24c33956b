// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// A single executive's records fit comfortably in one file, and SQLite ships
// FTS5 (full-text search with bm25 ranking) and JSON1, which cover the two
// things a document database was doing for this data: free-text relevance
// search and nested arrays inside a record.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, trivial
// cross-compilation.
//
// LAYOUT OF THIS PACKAGE:
//
//	sqlite.go      connection, pragmas, migrations, tx-aware querier
//	txmanager.go   unit of work carried in the context
//	fts.go         free-text query building and index maintenance
//	json.go        JSON columns for ordered nested arrays
//	<entity>.go    one file per table
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, applies pragmas and runs migrations.
//
// dbPath examples:
//   - "data/execmind.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
//
// PRAGMAS PER CONNECTION:
// sql.DB is a pool, and a PRAGMA executed with Exec only reaches whichever
// connection ran it. modernc's "_pragma" DSN parameters are applied to every
// new connection instead, so foreign keys and the busy timeout hold pool-wide.
//
// TIME FORMAT:
// "_time_format=sqlite" stores time.Time as "2006-01-02 15:04:05.999999999-07:00".
// Every time is normalised to UTC before it is written, which makes string
// order match chronological order for range queries.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	memory := dbPath == ":memory:"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database, so the pool
	// must never open a second one.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Start checks it before
// accepting traffic.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate applies the embedded goose migrations.
//
// goose records applied versions in its own table, so running this on every
// start is safe: only new files are applied.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the transaction carried by ctx, or the pool.
//
// Every repository method goes through q. Calling db.conn directly inside a
// RunInTx callback would bypass the transaction, and with ":memory:" (one
// connection) it would deadlock.
func (db *DB) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db.conn
}

// withinTx runs fn in the caller's transaction if there is one, otherwise in
// a fresh one. Writes that touch a table and its FTS index use it.
func (db *DB) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return NewTxManager(db).RunInTx(ctx, fn)
}

// utc normalises t for storage.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

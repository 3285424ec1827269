// Package store opens the relational store that holds the inventory tables
// and, usually, the destination summary table.
//
// Every supported kind is reached through database/sql so readers and sinks
// can share one handle; backend-specific fast paths (pgx COPY, MSSQL bulk
// copy) borrow the underlying driver connection when they need it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite"

	"vendorsummary/internal/failure"
)

// Supported store kinds.
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMSSQL    = "mssql"
	KindMySQL    = "mysql"
	KindDuckDB   = "duckdb"
)

// driverNames maps store kinds to registered database/sql driver names.
var driverNames = map[string]string{
	KindSQLite:   "sqlite",
	KindPostgres: "pgx",
	KindMSSQL:    "sqlserver",
	KindMySQL:    "mysql",
	KindDuckDB:   "duckdb",
}

// Kinds lists the supported store kinds. The duckdb driver is only linked
// into cgo builds; without it Open reports duckdb as unavailable.
func Kinds() []string {
	return []string{KindSQLite, KindPostgres, KindMSSQL, KindMySQL, KindDuckDB}
}

// Store is an open handle plus the dialect used to talk to it.
type Store struct {
	Kind    string
	DB      *sql.DB
	Dialect Dialect
}

// pingTimeout bounds the initial connectivity check.
const pingTimeout = 5 * time.Second

// Open connects to the store and verifies it answers a ping. Any failure is
// reported as failure.ErrSourceUnavailable.
func Open(ctx context.Context, kind, dsn string) (*Store, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	driver, ok := driverNames[kind]
	if !ok {
		return nil, failure.SourceUnavailable(nil, "unsupported store kind %q", kind)
	}
	d, err := DialectFor(kind)
	if err != nil {
		return nil, failure.SourceUnavailable(err, "dialect")
	}
	if kind != KindDuckDB && strings.TrimSpace(dsn) == "" {
		return nil, failure.SourceUnavailable(nil, "%s: DSN must not be empty", kind)
	}
	if kind == KindMSSQL {
		if _, err := msdsn.Parse(dsn); err != nil {
			return nil, failure.SourceUnavailable(err, "mssql dsn")
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, failure.SourceUnavailable(err, "%s: open", kind)
	}

	if kind == KindSQLite {
		// In-memory SQLite databases exist per connection; pin to one so
		// readers and the sink see the same data.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, failure.SourceUnavailable(err, "%s: ping", kind)
	}

	return &Store{Kind: kind, DB: db, Dialect: d}, nil
}

// Wrap adopts an already open *sql.DB, e.g. one created by a test.
func Wrap(kind string, db *sql.DB) (*Store, error) {
	d, err := DialectFor(kind)
	if err != nil {
		return nil, err
	}
	return &Store{Kind: kind, DB: db, Dialect: d}, nil
}

// Close releases the handle.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", s.Kind, err)
	}
	return nil
}

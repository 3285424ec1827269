// Package sqlite persists the summary into a SQLite database. The destination
// is dropped, recreated and filled inside one transaction, so readers see
// either the previous table or the complete new one.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// openStore is a test hook that points to storage.OpenStore by default.
var openStore = storage.OpenStore

// Sink is the SQLite storage.Sink.
type Sink struct {
	st      *store.Store
	release func() error
	table   string
}

var _ storage.Sink = (*Sink)(nil)

func init() {
	storage.Register(store.KindSQLite, func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		st, release, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Sink{st: st, release: release, table: cfg.Table}, nil
	})
}

// Replace drops and recreates the destination and inserts every row, all in
// a single transaction.
func (s *Sink) Replace(ctx context.Context, t table.Table) (int64, error) {
	if err := storage.Check(t); err != nil {
		return 0, err
	}
	name := storage.TargetName(s.table, t)
	n, err := ReplaceInTx(ctx, s.st.DB, s.st.Dialect, name, t)
	if err != nil {
		return 0, failure.SinkWrite(err, "sqlite: replace %s", name)
	}
	return n, nil
}

// ReplaceInTx runs DROP, CREATE and INSERT for name in one transaction on db.
// Any store with transactional DDL can use it.
func ReplaceInTx(ctx context.Context, db *sql.DB, d store.Dialect, name string, t table.Table) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.FQN(name)); err != nil {
		rollback()
		return 0, fmt.Errorf("drop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, d.CreateTableSQL(name, t.Columns)); err != nil {
		rollback()
		return 0, fmt.Errorf("create: %w", err)
	}
	n, err := storage.InsertRows(ctx, tx, d, name, t, storage.DefaultBatchRows)
	if err != nil {
		rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Close releases the store unless it is shared with the source.
func (s *Sink) Close() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

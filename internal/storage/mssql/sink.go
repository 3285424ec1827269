// Package mssql persists the summary into SQL Server. Rows are bulk copied
// into a staging table, and the staging table is renamed over the
// destination, all inside one transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// openStore is a test hook that points to storage.OpenStore by default.
var openStore = storage.OpenStore

// Sink is the SQL Server storage.Sink.
type Sink struct {
	st      *store.Store
	release func() error
	table   string
}

var _ storage.Sink = (*Sink)(nil)

func init() {
	storage.Register(store.KindMSSQL, func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		st, release, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Sink{st: st, release: release, table: cfg.Table}, nil
	})
}

// Replace bulk copies t into <name>__staging, drops name and renames the
// staging table in its place. Nothing is visible until commit.
func (s *Sink) Replace(ctx context.Context, t table.Table) (int64, error) {
	if err := storage.Check(t); err != nil {
		return 0, err
	}
	name := storage.TargetName(s.table, t)
	stage := name + storage.StagingSuffix
	d := s.st.Dialect

	tx, err := s.st.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, failure.SinkWrite(err, "mssql: begin tx")
	}
	rollback := func() { _ = tx.Rollback() }

	for _, q := range []string{"DROP TABLE IF EXISTS " + d.FQN(stage), d.CreateTableSQL(stage, t.Columns)} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			rollback()
			return 0, failure.SinkWrite(err, "mssql: prepare %s", stage)
		}
	}

	n, err := bulkCopy(ctx, tx, stage, t)
	if err != nil {
		rollback()
		return 0, failure.SinkWrite(err, "mssql: bulk copy into %s", stage)
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.FQN(name)); err != nil {
		rollback()
		return 0, failure.SinkWrite(err, "mssql: drop %s", name)
	}
	if _, err := tx.ExecContext(ctx, renameSQL, stage, storage.BaseName(name)); err != nil {
		rollback()
		return 0, failure.SinkWrite(err, "mssql: rename %s", stage)
	}
	if err := tx.Commit(); err != nil {
		return 0, failure.SinkWrite(err, "mssql: commit")
	}
	return n, nil
}

// renameSQL takes the current (optionally schema-qualified) name and the new
// bare name.
const renameSQL = "EXEC sp_rename @p1, @p2"

func bulkCopy(ctx context.Context, tx *sql.Tx, stage string, t table.Table) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(stage, mssql.BulkOptions{Tablock: true}, t.ColumnNames()...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range t.Rows {
		if _, err := stmt.ExecContext(ctx, t.Rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
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

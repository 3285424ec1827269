// Package postgres persists the summary into PostgreSQL. Rows are streamed
// with COPY into a staging table on a dedicated connection; the staging
// table then replaces the destination inside one transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// openStore is a test hook that points to storage.OpenStore by default.
var openStore = storage.OpenStore

// Sink is the PostgreSQL storage.Sink.
type Sink struct {
	st      *store.Store
	release func() error
	table   string
}

var _ storage.Sink = (*Sink)(nil)

func init() {
	storage.Register(store.KindPostgres, func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		st, release, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Sink{st: st, release: release, table: cfg.Table}, nil
	})
}

// Replace copies t into <name>__staging and swaps it in for name.
func (s *Sink) Replace(ctx context.Context, t table.Table) (int64, error) {
	if err := storage.Check(t); err != nil {
		return 0, err
	}
	name := storage.TargetName(s.table, t)
	stage := name + storage.StagingSuffix
	d := s.st.Dialect

	conn, err := s.st.DB.Conn(ctx)
	if err != nil {
		return 0, failure.SinkWrite(err, "postgres: acquire connection")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.FQN(stage)); err != nil {
		return 0, failure.SinkWrite(err, "postgres: drop stale %s", stage)
	}
	if _, err := conn.ExecContext(ctx, d.CreateTableSQL(stage, t.Columns)); err != nil {
		return 0, failure.SinkWrite(err, "postgres: create %s", stage)
	}
	dropStage := func() { _, _ = conn.ExecContext(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+d.FQN(stage)) }

	n, err := copyRows(ctx, conn, stage, t)
	if err != nil {
		dropStage()
		return 0, failure.SinkWrite(err, "postgres: copy into %s", stage)
	}

	if err := swap(ctx, conn, d, stage, name); err != nil {
		dropStage()
		return 0, failure.SinkWrite(err, "postgres: replace %s", name)
	}
	return n, nil
}

// copyRows streams t.Rows through the native pgx COPY protocol.
func copyRows(ctx context.Context, conn *sql.Conn, stage string, t table.Table) (int64, error) {
	var n int64
	err := conn.Raw(func(dc any) error {
		pc, ok := dc.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", dc)
		}
		var err error
		n, err = pc.Conn().CopyFrom(ctx, identifier(stage), t.ColumnNames(), pgx.CopyFromRows(t.Rows))
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("%s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
		}
		return 0, err
	}
	return n, nil
}

// swap drops name and renames stage to it in one transaction.
func swap(ctx context.Context, conn *sql.Conn, d store.Dialect, stage, name string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range swapStatements(d, stage, name) {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: %w", q, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func swapStatements(d store.Dialect, stage, name string) []string {
	return []string{
		"DROP TABLE IF EXISTS " + d.FQN(name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.FQN(stage), d.Ident(storage.BaseName(name))),
	}
}

// identifier splits a possibly schema-qualified name for pgx.
func identifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

// Close releases the store unless it is shared with the source.
func (s *Sink) Close() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

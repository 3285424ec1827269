//go:build cgo

package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/marcboeker/go-duckdb"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// openStore is a test hook that points to storage.OpenStore by default.
var openStore = storage.OpenStore

// Sink is the DuckDB storage.Sink.
type Sink struct {
	st      *store.Store
	release func() error
	table   string
}

var _ storage.Sink = (*Sink)(nil)

func init() {
	storage.Register(store.KindDuckDB, func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		st, release, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Sink{st: st, release: release, table: cfg.Table}, nil
	})
}

// Replace appends t into <name>__staging and swaps it in for name.
func (s *Sink) Replace(ctx context.Context, t table.Table) (int64, error) {
	if err := storage.Check(t); err != nil {
		return 0, err
	}
	name := storage.TargetName(s.table, t)
	stage := name + storage.StagingSuffix
	d := s.st.Dialect

	conn, err := s.st.DB.Conn(ctx)
	if err != nil {
		return 0, failure.SinkWrite(err, "duckdb: acquire connection")
	}
	defer conn.Close()

	for _, q := range []string{"DROP TABLE IF EXISTS " + d.FQN(stage), d.CreateTableSQL(stage, t.Columns)} {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return 0, failure.SinkWrite(err, "duckdb: prepare %s", stage)
		}
	}
	dropStage := func() { _, _ = conn.ExecContext(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+d.FQN(stage)) }

	n, err := appendRows(conn, stage, t)
	if err != nil {
		dropStage()
		return 0, failure.SinkWrite(err, "duckdb: append into %s", stage)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		dropStage()
		return 0, failure.SinkWrite(err, "duckdb: begin tx")
	}
	swap := []string{
		"DROP TABLE IF EXISTS " + d.FQN(name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.FQN(stage), d.Ident(storage.BaseName(name))),
	}
	for _, q := range swap {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			dropStage()
			return 0, failure.SinkWrite(err, "duckdb: replace %s", name)
		}
	}
	if err := tx.Commit(); err != nil {
		dropStage()
		return 0, failure.SinkWrite(err, "duckdb: commit")
	}
	return n, nil
}

func appendRows(conn *sql.Conn, stage string, t table.Table) (int64, error) {
	schema, base := "", stage
	if i := strings.LastIndex(stage, "."); i >= 0 {
		schema, base = stage[:i], stage[i+1:]
	}

	var n int64
	err := conn.Raw(func(dc any) error {
		c, ok := dc.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", dc)
		}
		a, err := duckdb.NewAppenderFromConn(c, schema, base)
		if err != nil {
			return fmt.Errorf("appender: %w", err)
		}
		vals := make([]driver.Value, len(t.Columns))
		for i, row := range t.Rows {
			for j, v := range row {
				vals[j] = v
			}
			if err := a.AppendRow(vals...); err != nil {
				_ = a.Close()
				return fmt.Errorf("row %d: %w", i, err)
			}
			n++
		}
		return a.Close()
	})
	if err != nil {
		return 0, err
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

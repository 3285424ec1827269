// Package mysql persists the summary into MySQL. MySQL commits DDL
// implicitly, so the replace is built from a filled staging table and a
// single multi-table RENAME TABLE, which MySQL applies atomically.
package mysql

import (
	"context"
	"errors"
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// openStore is a test hook that points to storage.OpenStore by default.
var openStore = storage.OpenStore

// Sink is the MySQL storage.Sink.
type Sink struct {
	st      *store.Store
	release func() error
	table   string
}

var _ storage.Sink = (*Sink)(nil)

func init() {
	storage.Register(store.KindMySQL, func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		st, release, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Sink{st: st, release: release, table: cfg.Table}, nil
	})
}

// Replace fills <name>__staging and swaps it in with RENAME TABLE. The
// previous table survives any failure before the rename.
func (s *Sink) Replace(ctx context.Context, t table.Table) (int64, error) {
	if err := storage.Check(t); err != nil {
		return 0, err
	}
	name := storage.TargetName(s.table, t)
	stage := name + storage.StagingSuffix
	d := s.st.Dialect
	db := s.st.DB

	for _, q := range prepareStatements(d, name, t) {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return 0, failure.SinkWrite(describe(err), "mysql: prepare %s", stage)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, failure.SinkWrite(err, "mysql: begin tx")
	}
	n, err := storage.InsertRows(ctx, tx, d, stage, t, storage.DefaultBatchRows)
	if err != nil {
		_ = tx.Rollback()
		return 0, failure.SinkWrite(describe(err), "mysql: fill %s", stage)
	}
	if err := tx.Commit(); err != nil {
		return 0, failure.SinkWrite(err, "mysql: commit %s", stage)
	}

	for _, q := range swapStatements(d, name) {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return 0, failure.SinkWrite(describe(err), "mysql: swap %s", name)
		}
	}
	return n, nil
}

// prepareStatements clears leftovers from an earlier failed run, creates an
// empty destination if none exists (RENAME TABLE needs one), and creates the
// staging table.
func prepareStatements(d store.Dialect, name string, t table.Table) []string {
	stage := name + storage.StagingSuffix
	retired := name + storage.RetiredSuffix
	create := d.CreateTableSQL(name, t.Columns)
	return []string{
		"DROP TABLE IF EXISTS " + d.FQN(stage) + ", " + d.FQN(retired),
		"CREATE TABLE IF NOT EXISTS" + create[len("CREATE TABLE"):],
		d.CreateTableSQL(stage, t.Columns),
	}
}

// swapStatements exchanges the staging table with the destination in one
// RENAME and drops the retired table.
func swapStatements(d store.Dialect, name string) []string {
	stage := name + storage.StagingSuffix
	retired := name + storage.RetiredSuffix
	return []string{
		fmt.Sprintf("RENAME TABLE %s TO %s, %s TO %s", d.FQN(name), d.FQN(retired), d.FQN(stage), d.FQN(name)),
		"DROP TABLE IF EXISTS " + d.FQN(retired),
	}
}

// describe adds the MySQL error number to driver errors.
func describe(err error) error {
	var me *driver.MySQLError
	if errors.As(err, &me) {
		return fmt.Errorf("mysql error %d: %w", me.Number, err)
	}
	return err
}

// Close releases the store unless it is shared with the source.
func (s *Sink) Close() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

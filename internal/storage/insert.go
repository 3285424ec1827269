package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DefaultBatchRows is the number of rows per multi-row INSERT.
const DefaultBatchRows = 200

// TargetName is the configured table name, or the table's own name.
func TargetName(configured string, t table.Table) string {
	if configured != "" {
		return configured
	}
	return t.Name
}

// InsertRows writes t.Rows into name with multi-row INSERT statements of at
// most batch rows each and returns the number of rows written.
func InsertRows(ctx context.Context, x Execer, d store.Dialect, name string, t table.Table, batch int) (int64, error) {
	if batch <= 0 {
		batch = DefaultBatchRows
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", d.FQN(name), strings.Join(d.Idents(t.ColumnNames()), ", "))
	width := len(t.Columns)

	var written int64
	for start := 0; start < len(t.Rows); start += batch {
		end := min(start+batch, len(t.Rows))
		chunk := t.Rows[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*width)
		for i, row := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			b.WriteString(d.Placeholders(len(args)+1, width))
			b.WriteString(")")
			args = append(args, row...)
		}
		if _, err := x.ExecContext(ctx, b.String(), args...); err != nil {
			return written, fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
		written += int64(len(chunk))
	}
	return written, nil
}

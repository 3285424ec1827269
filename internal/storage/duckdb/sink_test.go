//go:build cgo

package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

func TestSink_ReplaceInMemory(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.KindDuckDB, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sink, err := storage.New(ctx, storage.Config{Kind: store.KindDuckDB, Store: st})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	tbl := table.Table{
		Name: "vendor_sales_summary",
		Columns: []table.Column{
			{Name: "VendorName", Kind: table.KindText},
			{Name: "Brand", Kind: table.KindInt},
			{Name: "Volume", Kind: table.KindFloat},
		},
		Rows: [][]any{
			{"A", int64(1), 750.0},
			{"B", int64(2), 1000.0},
		},
	}

	for _, want := range []int64{2, 2} {
		n, err := sink.Replace(ctx, tbl)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}

	var rows int
	require.NoError(t, st.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM "vendor_sales_summary"`).Scan(&rows))
	require.Equal(t, 2, rows)

	var stale int
	require.NoError(t, st.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'vendor_sales_summary__staging'`).Scan(&stale))
	require.Zero(t, stale)
}

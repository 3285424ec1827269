package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/records"
	"vendorsummary/internal/store"
	"vendorsummary/internal/summary"
)

var inventoryDDL = []string{
	`CREATE TABLE purchases (VendorNumber INTEGER, VendorName TEXT, Brand INTEGER, Description TEXT, PurchasePrice REAL, Quantity INTEGER, Dollars REAL)`,
	`CREATE TABLE purchase_prices (Brand INTEGER, Price REAL, Volume TEXT)`,
	`CREATE TABLE sales (VendorNo INTEGER, Brand INTEGER, SalesQuantity INTEGER, SalesDollars REAL, SalesPrice REAL, ExciseTax REAL)`,
	`CREATE TABLE vendor_invoice (VendorNumber INTEGER, Freight REAL)`,
}

var inventoryRows = []string{
	`INSERT INTO purchases VALUES
		(1, 'V1 ', 1, 'B1', 10, 5, 50),
		(1, 'V1 ', 1, 'B1', 10.00, 3, 30),
		(2, 'V2', 2, 'B2', 0, 4, 0),
		(3, 'V3', 3, ' B3 ', 7, 2, 14),
		(4, 'V4', 4, 'B4', NULL, 1, 1)`,
	`INSERT INTO purchase_prices VALUES (1, 12, '750'), (2, 9, '750'), (3, 8, '1000')`,
	`INSERT INTO sales VALUES (1, 1, 4, 48, 12, 0.4), (1, 1, 2, 24, 12, 0.2), (2, 2, 1, 9, 9, 0.1)`,
	`INSERT INTO vendor_invoice VALUES (1, 2.5), (1, 2.5), (3, 2)`,
}

func newStore(t *testing.T, stmts ...[]string) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.KindSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	for _, group := range stmts {
		for _, q := range group {
			_, err := st.DB.Exec(q)
			require.NoError(t, err, q)
		}
	}
	return st
}

func TestProbe_MissingTable(t *testing.T) {
	st := newStore(t, inventoryDDL[:3])

	err := NewReader(st, Tables{}).Probe(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, failure.ErrSourceUnavailable), "got %v", err)
	require.Contains(t, err.Error(), "vendor_invoice")
}

func TestProbe_MissingColumn(t *testing.T) {
	ddl := append([]string{}, inventoryDDL...)
	ddl[2] = `CREATE TABLE sales (VendorNo INTEGER, Brand INTEGER, SalesQuantity INTEGER, SalesDollars REAL, SalesPrice REAL)`
	st := newStore(t, ddl)

	err := NewReader(st, Tables{}).Probe(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, failure.ErrSchemaMismatch), "got %v", err)
	require.Contains(t, err.Error(), "ExciseTax")
}

func TestProbe_CaseInsensitiveColumns(t *testing.T) {
	st := newStore(t, []string{
		`CREATE TABLE purchases (vendornumber INTEGER, vendorname TEXT, brand INTEGER, description TEXT, purchaseprice REAL, quantity INTEGER, dollars REAL)`,
		`CREATE TABLE purchase_prices (BRAND INTEGER, PRICE REAL, VOLUME TEXT)`,
		inventoryDDL[2],
		inventoryDDL[3],
	}, inventoryRows)

	r := NewReader(st, Tables{})
	ds, _, err := r.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Purchases, 4)
	require.Equal(t, `"vendornumber"`, r.col("purchases", "VendorNumber"))
}

func TestLoad(t *testing.T) {
	st := newStore(t, inventoryDDL, inventoryRows, []string{
		`INSERT INTO sales VALUES (NULL, 1, 1, 1, 1, 0)`,
		`INSERT INTO vendor_invoice VALUES (NULL, 9)`,
		`INSERT INTO purchase_prices VALUES (NULL, 1, NULL)`,
	})

	ds, stats, err := NewReader(st, Tables{}).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Purchases, 4)
	require.Len(t, ds.Prices, 3)
	require.Len(t, ds.Sales, 3)
	require.Len(t, ds.Freight, 3)
	require.Equal(t, LoadStats{SkippedPurchases: 1, SkippedPrices: 1, SkippedSales: 1, SkippedFreight: 1}, stats)

	p := ds.Purchases[1]
	require.Equal(t, int64(1), p.VendorNumber)
	require.Equal(t, records.Some("V1 "), p.VendorName)
	require.True(t, p.PurchasePrice.Equal(ds.Purchases[0].PurchasePrice), "10 and 10.00 must compare equal")
	require.Equal(t, "750", ds.Prices[0].Volume.V)
}

func TestLoad_BadIntegerIsSchemaMismatch(t *testing.T) {
	st := newStore(t, inventoryDDL, []string{
		`INSERT INTO purchases VALUES (1, 'V1', 'not-a-brand', 'B1', 10, 5, 50)`,
	})

	_, _, err := NewReader(st, Tables{}).Load(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, failure.ErrSchemaMismatch), "got %v", err)
	require.Contains(t, err.Error(), "purchases row 1")
}

func TestMerged_MatchesInProcessMerge(t *testing.T) {
	st := newStore(t, inventoryDDL, inventoryRows)
	ctx := context.Background()
	r := NewReader(st, Tables{})

	ds, _, err := r.Load(ctx)
	require.NoError(t, err)
	memRows, err := summary.Compute(ds)
	require.NoError(t, err)

	merged, err := r.Merged(ctx)
	require.NoError(t, err)
	sqlRows, err := summary.Derive(merged)
	require.NoError(t, err)

	require.Len(t, memRows, 2)
	require.Len(t, sqlRows, len(memRows))
	for i := range memRows {
		want, got := memRows[i].Values(), sqlRows[i].Values()
		for j, c := range summary.Columns {
			switch w := want[j].(type) {
			case float64:
				require.InDelta(t, w, got[j].(float64), 1e-9, "row %d %s", i, c.Name)
			default:
				require.Equal(t, w, got[j], "row %d %s", i, c.Name)
			}
		}
	}

	first := sqlRows[0]
	require.Equal(t, "V1", first.VendorName)
	require.Equal(t, int64(8), first.TotalPurchaseQuantity)
	require.InDelta(t, -8.0, first.GrossProfit.InexactFloat64(), 1e-9)
	require.InDelta(t, 5.0, first.TotalFreightCost.InexactFloat64(), 1e-9)
	require.Equal(t, "B3", sqlRows[1].Description)
}

func TestMerged_UnmatchedSalesAndFreightStayNull(t *testing.T) {
	st := newStore(t, inventoryDDL, []string{
		`INSERT INTO purchases VALUES (7, 'V7', 70, 'B70', 3, 2, 6)`,
		`INSERT INTO purchase_prices VALUES (70, 4, NULL)`,
	})

	merged, err := NewReader(st, Tables{}).Merged(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 1)

	m := merged[0]
	require.False(t, m.TotalSalesQuantity.Valid)
	require.False(t, m.TotalSalesDollars.Valid)
	require.False(t, m.TotalFreightCost.Valid)
	require.False(t, m.Volume.Valid)
}

func TestMerged_BrandFansOutToEveryPrice(t *testing.T) {
	st := newStore(t, inventoryDDL, []string{
		`INSERT INTO purchases VALUES (1, 'V1', 1, 'B1', 10, 5, 50)`,
		`INSERT INTO purchase_prices VALUES (1, 12, '750'), (1, 13, '1000')`,
	})

	merged, err := NewReader(st, Tables{}).Merged(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 2)
	for _, m := range merged {
		require.Equal(t, int64(5), m.TotalPurchaseQuantity)
	}
}

func TestNullKeysStayDistinctInBothEngines(t *testing.T) {
	st := newStore(t, inventoryDDL, []string{
		`INSERT INTO purchases VALUES (1, NULL, 1, 'B1', 10, 5, 50), (1, '', 1, 'B1', 10, 3, 30), (4, 'V4', 4, 'B4', 2.5, 1, 2.5)`,
		`INSERT INTO purchase_prices VALUES (1, 12, '1.75'), (4, NULL, '750'), (4, 0, '750')`,
	})
	ctx := context.Background()
	r := NewReader(st, Tables{})

	ds, _, err := r.Load(ctx)
	require.NoError(t, err)
	require.False(t, ds.Purchases[0].VendorName.Valid)
	require.Equal(t, records.Some(""), ds.Purchases[1].VendorName)
	require.False(t, ds.Prices[1].Price.Valid)
	mem := summary.Merge(summary.Aggregate(ds))

	pushed, err := r.Merged(ctx)
	require.NoError(t, err)
	require.Len(t, mem, 4)
	require.Len(t, pushed, 4)

	count := func(rows []summary.MergedRow) (nullName, nullActual int) {
		for _, m := range rows {
			if !m.VendorName.Valid {
				nullName++
			}
			if !m.ActualPrice.Valid {
				nullActual++
			}
		}
		return nullName, nullActual
	}
	memName, memActual := count(mem)
	sqlName, sqlActual := count(pushed)
	require.Equal(t, 1, memName)
	require.Equal(t, 1, memActual)
	require.Equal(t, memName, sqlName)
	require.Equal(t, memActual, sqlActual)
}

func TestMerged_NonNumericVolumeFailsDerive(t *testing.T) {
	st := newStore(t, inventoryDDL, []string{
		`INSERT INTO purchases VALUES (1, 'V1', 1, 'B1', 10, 5, 50)`,
		`INSERT INTO purchase_prices VALUES (1, 12, 'magnum')`,
	})

	merged, err := NewReader(st, Tables{}).Merged(context.Background())
	require.NoError(t, err)

	_, err = summary.Derive(merged)
	require.True(t, errors.Is(err, failure.ErrSchemaMismatch), "got %v", err)
}

func TestCheckColumns(t *testing.T) {
	t.Parallel()

	want := []string{"A", "B"}
	cases := []struct {
		got     []string
		wantErr bool
	}{
		{[]string{"a", "B"}, false},
		{[]string{"A"}, true},
		{[]string{"A", "B", "C"}, true},
		{[]string{"A", "X"}, true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.got), func(t *testing.T) {
			err := checkColumns(tc.got, want)
			if tc.wantErr != (err != nil) {
				t.Fatalf("checkColumns(%v) = %v, wantErr %v", tc.got, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, failure.ErrSchemaMismatch) {
				t.Fatalf("error kind = %v", err)
			}
		})
	}
}

func TestMergedQuery_QuotesPerDialect(t *testing.T) {
	t.Parallel()

	st, err := store.Wrap(store.KindMSSQL, nil)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	q := NewReader(st, Tables{Purchases: "dbo.purchases"}).MergedQuery()
	for _, frag := range []string{"FROM [dbo].[purchases] p", "SUM(p.[Quantity]) AS [TotalPurchaseQuantity]", "ORDER BY ps.[TotalPurchaseQuantity] DESC"} {
		if !strings.Contains(q, frag) {
			t.Fatalf("query missing %q:\n%s", frag, q)
		}
	}
}

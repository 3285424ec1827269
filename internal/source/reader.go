// Package source reads the inventory tables from the store.
//
// Reader.Probe checks that every table exists and carries the expected
// columns before anything is aggregated. Reader.Load pulls the raw rows for
// in-process aggregation; Reader.Merged instead pushes aggregation and merge
// down to the store as one query.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/records"
	"vendorsummary/internal/store"
)

// Tables names the four source tables.
type Tables struct {
	Purchases      string
	PurchasePrices string
	Sales          string
	VendorInvoice  string
}

// DefaultTables are the table names of the inventory database.
func DefaultTables() Tables {
	return Tables{
		Purchases:      "purchases",
		PurchasePrices: "purchase_prices",
		Sales:          "sales",
		VendorInvoice:  "vendor_invoice",
	}
}

// Expected columns per source table.
var (
	PurchaseColumns = []string{"VendorNumber", "VendorName", "Brand", "Description", "PurchasePrice", "Quantity", "Dollars"}
	PriceColumns    = []string{"Brand", "Price", "Volume"}
	SalesColumns    = []string{"VendorNo", "Brand", "SalesQuantity", "SalesDollars", "SalesPrice", "ExciseTax"}
	FreightColumns  = []string{"VendorNumber", "Freight"}
)

// Reader reads source tables from one store.
type Reader struct {
	st     *store.Store
	tables Tables

	// resolved maps table -> expected column -> column name as stored.
	resolved map[string]map[string]string
}

// NewReader returns a Reader over st. Empty table names fall back to the
// defaults.
func NewReader(st *store.Store, tables Tables) *Reader {
	def := DefaultTables()
	if tables.Purchases == "" {
		tables.Purchases = def.Purchases
	}
	if tables.PurchasePrices == "" {
		tables.PurchasePrices = def.PurchasePrices
	}
	if tables.Sales == "" {
		tables.Sales = def.Sales
	}
	if tables.VendorInvoice == "" {
		tables.VendorInvoice = def.VendorInvoice
	}
	return &Reader{st: st, tables: tables, resolved: map[string]map[string]string{}}
}

// Tables returns the resolved table names.
func (r *Reader) Tables() Tables { return r.tables }

func (r *Reader) expected() []struct {
	table string
	cols  []string
} {
	return []struct {
		table string
		cols  []string
	}{
		{r.tables.Purchases, PurchaseColumns},
		{r.tables.PurchasePrices, PriceColumns},
		{r.tables.Sales, SalesColumns},
		{r.tables.VendorInvoice, FreightColumns},
	}
}

// Probe verifies every source table is readable and has its expected
// columns. Column names match case-insensitively; the stored spelling is
// remembered for later queries.
func (r *Reader) Probe(ctx context.Context) error {
	for _, e := range r.expected() {
		got, err := r.columnsOf(ctx, e.table)
		if err != nil {
			return err
		}
		byFold := make(map[string]string, len(got))
		for _, c := range got {
			byFold[strings.ToLower(c)] = c
		}
		m := make(map[string]string, len(e.cols))
		for _, want := range e.cols {
			actual, ok := byFold[strings.ToLower(want)]
			if !ok {
				return failure.SchemaMismatch(nil, "table %s: missing column %s (have %s)", e.table, want, strings.Join(got, ", "))
			}
			m[want] = actual
		}
		r.resolved[e.table] = m
	}
	return nil
}

func (r *Reader) columnsOf(ctx context.Context, tbl string) ([]string, error) {
	rows, err := r.st.DB.QueryContext(ctx, r.st.Dialect.ZeroRowSelect(tbl))
	if err != nil {
		return nil, failure.SourceUnavailable(err, "table %s", tbl)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, failure.SourceUnavailable(err, "table %s: columns", tbl)
	}
	return cols, rows.Err()
}

// col returns the quoted stored name of an expected column.
func (r *Reader) col(tbl, name string) string {
	if m, ok := r.resolved[tbl]; ok {
		if actual, ok := m[name]; ok {
			return r.st.Dialect.Ident(actual)
		}
	}
	return r.st.Dialect.Ident(name)
}

func (r *Reader) ensureProbed(ctx context.Context) error {
	if len(r.resolved) == len(r.expected()) {
		return nil
	}
	return r.Probe(ctx)
}

// each runs SELECT cols FROM tbl and calls fn once per row with a scan func.
func (r *Reader) each(ctx context.Context, tbl string, cols []string, fn func(scan func(dest ...any) error) error) error {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = r.col(tbl, c)
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), r.st.Dialect.FQN(tbl))

	rows, err := r.st.DB.QueryContext(ctx, q)
	if err != nil {
		return failure.SourceUnavailable(err, "read %s", tbl)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		scan := func(dest ...any) error {
			if err := rows.Scan(dest...); err != nil {
				return failure.SchemaMismatch(err, "table %s row %d", tbl, line)
			}
			return nil
		}
		if err := fn(scan); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return failure.SourceUnavailable(err, "read %s", tbl)
	}
	return nil
}

// LoadStats counts rows skipped while loading because a key column (vendor,
// brand, or purchase price) was NULL. Such rows can never match a join or
// pass the positive purchase price filter.
type LoadStats struct {
	SkippedPurchases int
	SkippedPrices    int
	SkippedSales     int
	SkippedFreight   int
}

// Load reads all four source tables.
func (r *Reader) Load(ctx context.Context) (records.Dataset, LoadStats, error) {
	var (
		ds    records.Dataset
		stats LoadStats
	)
	if err := r.ensureProbed(ctx); err != nil {
		return ds, stats, err
	}

	err := r.each(ctx, r.tables.Purchases, PurchaseColumns, func(scan func(...any) error) error {
		var (
			vendor, brand, qty nullInt
			name, desc         sql.NullString
			price, dollars     decimal.NullDecimal
		)
		if err := scan(&vendor, &name, &brand, &desc, &price, &qty, &dollars); err != nil {
			return err
		}
		if !vendor.Valid || !brand.Valid || !price.Valid {
			stats.SkippedPurchases++
			return nil
		}
		ds.Purchases = append(ds.Purchases, records.PurchaseRecord{
			VendorNumber:  vendor.V,
			VendorName:    nullableString(name),
			Brand:         brand.V,
			Description:   nullableString(desc),
			PurchasePrice: price.Decimal,
			Quantity:      qty.V,
			Dollars:       orZero(dollars),
		})
		return nil
	})
	if err != nil {
		return ds, stats, err
	}

	err = r.each(ctx, r.tables.PurchasePrices, PriceColumns, func(scan func(...any) error) error {
		var (
			brand  nullInt
			price  decimal.NullDecimal
			volume sql.NullString
		)
		if err := scan(&brand, &price, &volume); err != nil {
			return err
		}
		if !brand.Valid {
			stats.SkippedPrices++
			return nil
		}
		rec := records.PriceRecord{Brand: brand.V, Price: nullableDecimal(price), Volume: nullableString(volume)}
		ds.Prices = append(ds.Prices, rec)
		return nil
	})
	if err != nil {
		return ds, stats, err
	}

	err = r.each(ctx, r.tables.Sales, SalesColumns, func(scan func(...any) error) error {
		var (
			vendor, brand, qty      nullInt
			dollars, unit, exciseTx decimal.NullDecimal
		)
		if err := scan(&vendor, &brand, &qty, &dollars, &unit, &exciseTx); err != nil {
			return err
		}
		if !vendor.Valid || !brand.Valid {
			stats.SkippedSales++
			return nil
		}
		ds.Sales = append(ds.Sales, records.SalesRecord{
			VendorNumber:  vendor.V,
			Brand:         brand.V,
			SalesQuantity: qty.V,
			SalesDollars:  orZero(dollars),
			SalesPrice:    orZero(unit),
			ExciseTax:     orZero(exciseTx),
		})
		return nil
	})
	if err != nil {
		return ds, stats, err
	}

	err = r.each(ctx, r.tables.VendorInvoice, FreightColumns, func(scan func(...any) error) error {
		var (
			vendor nullInt
			cost   decimal.NullDecimal
		)
		if err := scan(&vendor, &cost); err != nil {
			return err
		}
		if !vendor.Valid {
			stats.SkippedFreight++
			return nil
		}
		ds.Freight = append(ds.Freight, records.FreightRecord{VendorNumber: vendor.V, Freight: orZero(cost)})
		return nil
	})
	if err != nil {
		return ds, stats, err
	}

	return ds, stats, nil
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/records"
	"vendorsummary/internal/summary"
)

// MergedQuery renders the aggregation and merge as one CTE query in the
// store's dialect. Output columns follow summary.MergedColumns.
func (r *Reader) MergedQuery() string {
	d := r.st.Dialect
	q := d.Ident
	t := r.tables
	p := func(name string) string { return "p." + r.col(t.Purchases, name) }
	pp := func(name string) string { return "pp." + r.col(t.PurchasePrices, name) }
	s := func(name string) string { return r.col(t.Sales, name) }
	v := func(name string) string { return r.col(t.VendorInvoice, name) }

	purchaseKey := []string{
		p("VendorNumber"), p("VendorName"), p("Brand"), p("Description"),
		p("PurchasePrice"), pp("Price"), pp("Volume"),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "WITH FreightSummary AS (\n")
	fmt.Fprintf(&b, "  SELECT %s AS %s, SUM(%s) AS %s\n", v("VendorNumber"), q("VendorNumber"), v("Freight"), q("TotalFreightCost"))
	fmt.Fprintf(&b, "  FROM %s\n", d.FQN(t.VendorInvoice))
	fmt.Fprintf(&b, "  GROUP BY %s\n", v("VendorNumber"))
	fmt.Fprintf(&b, "),\nPurchaseSummary AS (\n")
	fmt.Fprintf(&b, "  SELECT %s AS %s, %s AS %s, %s AS %s, %s AS %s, %s AS %s, %s AS %s, %s AS %s,\n",
		p("VendorNumber"), q("VendorNumber"),
		p("VendorName"), q("VendorName"),
		p("Brand"), q("Brand"),
		p("Description"), q("Description"),
		p("PurchasePrice"), q("PurchasePrice"),
		pp("Price"), q("ActualPrice"),
		pp("Volume"), q("Volume"),
	)
	fmt.Fprintf(&b, "    SUM(%s) AS %s, SUM(%s) AS %s\n", p("Quantity"), q("TotalPurchaseQuantity"), p("Dollars"), q("TotalPurchaseDollars"))
	fmt.Fprintf(&b, "  FROM %s p\n", d.FQN(t.Purchases))
	fmt.Fprintf(&b, "  JOIN %s pp ON %s = %s\n", d.FQN(t.PurchasePrices), p("Brand"), pp("Brand"))
	fmt.Fprintf(&b, "  WHERE %s > 0 AND %s IS NOT NULL\n", p("PurchasePrice"), p("VendorNumber"))
	fmt.Fprintf(&b, "  GROUP BY %s\n", strings.Join(purchaseKey, ", "))
	fmt.Fprintf(&b, "),\nSalesSummary AS (\n")
	fmt.Fprintf(&b, "  SELECT %s AS %s, %s AS %s, SUM(%s) AS %s, SUM(%s) AS %s, SUM(%s) AS %s, SUM(%s) AS %s\n",
		s("VendorNo"), q("VendorNo"),
		s("Brand"), q("Brand"),
		s("SalesQuantity"), q("TotalSalesQuantity"),
		s("SalesDollars"), q("TotalSalesDollars"),
		s("SalesPrice"), q("TotalSalesPrice"),
		s("ExciseTax"), q("TotalExciseTax"),
	)
	fmt.Fprintf(&b, "  FROM %s\n", d.FQN(t.Sales))
	fmt.Fprintf(&b, "  GROUP BY %s, %s\n", s("VendorNo"), s("Brand"))
	fmt.Fprintf(&b, ")\nSELECT\n")

	sel := make([]string, 0, len(summary.MergedColumns))
	for _, c := range summary.MergedColumns {
		alias := "ps"
		switch c {
		case "TotalSalesQuantity", "TotalSalesDollars", "TotalSalesPrice", "TotalExciseTax":
			alias = "ss"
		case "TotalFreightCost":
			alias = "fs"
		}
		sel = append(sel, fmt.Sprintf("  %s.%s", alias, q(c)))
	}
	fmt.Fprintf(&b, "%s\n", strings.Join(sel, ",\n"))
	fmt.Fprintf(&b, "FROM PurchaseSummary ps\n")
	fmt.Fprintf(&b, "LEFT JOIN SalesSummary ss ON ps.%s = ss.%s AND ps.%s = ss.%s\n",
		q("VendorNumber"), q("VendorNo"), q("Brand"), q("Brand"))
	fmt.Fprintf(&b, "LEFT JOIN FreightSummary fs ON ps.%s = fs.%s\n", q("VendorNumber"), q("VendorNumber"))
	fmt.Fprintf(&b, "ORDER BY ps.%s DESC", q("TotalPurchaseQuantity"))
	return b.String()
}

// Merged runs MergedQuery and returns the merged rows, with unmatched sales
// and freight values left null. The result columns are checked against
// summary.MergedColumns before any row is scanned.
func (r *Reader) Merged(ctx context.Context) ([]summary.MergedRow, error) {
	if err := r.ensureProbed(ctx); err != nil {
		return nil, err
	}

	rows, err := r.st.DB.QueryContext(ctx, r.MergedQuery())
	if err != nil {
		return nil, failure.SourceUnavailable(err, "merged query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, failure.SourceUnavailable(err, "merged query: columns")
	}
	if err := checkColumns(cols, summary.MergedColumns); err != nil {
		return nil, err
	}

	var out []summary.MergedRow
	line := 0
	for rows.Next() {
		line++
		var (
			name, desc, volume                   sql.NullString
			vendor, brand, purchaseQty, salesQty nullInt
			price, actual, purchaseDollars       decimal.NullDecimal
			salesDollars, salesPrice, exciseTax  decimal.NullDecimal
			freight                              decimal.NullDecimal
		)
		if err := rows.Scan(
			&name, &vendor, &brand, &desc, &price, &actual, &volume,
			&purchaseQty, &purchaseDollars,
			&salesQty, &salesDollars, &salesPrice, &exciseTax,
			&freight,
		); err != nil {
			return nil, failure.SchemaMismatch(err, "merged query row %d", line)
		}

		m := summary.MergedRow{
			PurchaseGroup: summary.PurchaseGroup{
				PurchaseKey: summary.PurchaseKey{
					VendorNumber:  vendor.V,
					VendorName:    nullableString(name),
					Brand:         brand.V,
					Description:   nullableString(desc),
					PurchasePrice: orZero(price),
					ActualPrice:   nullableDecimal(actual),
					Volume:        nullableString(volume),
				},
				TotalPurchaseQuantity: purchaseQty.V,
				TotalPurchaseDollars:  orZero(purchaseDollars),
			},
			TotalSalesQuantity: nullableInt(salesQty),
			TotalSalesDollars:  nullableDecimal(salesDollars),
			TotalSalesPrice:    nullableDecimal(salesPrice),
			TotalExciseTax:     nullableDecimal(exciseTax),
			TotalFreightCost:   nullableDecimal(freight),
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, failure.SourceUnavailable(err, "merged query")
	}

	// Re-apply the ordering so ties are broken the same way as the in-process
	// merge: by the order the store returned them.
	summary.SortByPurchaseQuantity(out)
	return out, nil
}

// checkColumns reports the first expected column missing from got.
func checkColumns(got, want []string) error {
	have := make(map[string]struct{}, len(got))
	for _, c := range got {
		have[strings.ToLower(c)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[strings.ToLower(w)]; !ok {
			return failure.SchemaMismatch(nil, "merged result: missing column %s (have %s)", w, strings.Join(got, ", "))
		}
	}
	if len(got) != len(want) {
		return failure.SchemaMismatch(nil, "merged result: %d columns, want %d", len(got), len(want))
	}
	return nil
}

func nullableInt(n nullInt) records.Nullable[int64] {
	if !n.Valid {
		return records.Null[int64]()
	}
	return records.Some(n.V)
}

func nullableString(s sql.NullString) records.Nullable[string] {
	if !s.Valid {
		return records.Null[string]()
	}
	return records.Some(s.String)
}

func nullableDecimal(d decimal.NullDecimal) records.Nullable[decimal.Decimal] {
	if !d.Valid {
		return records.Null[decimal.Decimal]()
	}
	return records.Some(d.Decimal)
}

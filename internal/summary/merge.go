package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"vendorsummary/internal/records"
)

// MergedRow is one purchase group with its matched sales and freight totals.
// Sales and freight fields are null when the group had no match; they are
// not zero until Derive fills them.
type MergedRow struct {
	PurchaseGroup

	TotalSalesQuantity records.Nullable[int64]
	TotalSalesDollars  records.Nullable[decimal.Decimal]
	TotalSalesPrice    records.Nullable[decimal.Decimal]
	TotalExciseTax     records.Nullable[decimal.Decimal]
	TotalFreightCost   records.Nullable[decimal.Decimal]
}

// Merge left-joins the purchase groups with sales on (vendor, brand) and then
// with freight on vendor alone. Every purchase group yields exactly one row;
// freight is repeated across all brands of a vendor.
//
// Rows are ordered by TotalPurchaseQuantity descending; ties keep purchase
// group order.
func Merge(a Aggregates) []MergedRow {
	sales := make(map[vendorBrand]SalesTotal, len(a.Sales))
	for _, s := range a.Sales {
		sales[vendorBrand{vendor: s.VendorNumber, brand: s.Brand}] = s
	}
	freight := make(map[int64]decimal.Decimal, len(a.Freight))
	for _, f := range a.Freight {
		freight[f.VendorNumber] = f.TotalFreightCost
	}

	out := make([]MergedRow, 0, len(a.Purchases))
	for _, p := range a.Purchases {
		row := MergedRow{PurchaseGroup: p}
		if s, ok := sales[vendorBrand{vendor: p.VendorNumber, brand: p.Brand}]; ok {
			row.TotalSalesQuantity = records.Some(s.TotalSalesQuantity)
			row.TotalSalesDollars = records.Some(s.TotalSalesDollars)
			row.TotalSalesPrice = records.Some(s.TotalSalesPrice)
			row.TotalExciseTax = records.Some(s.TotalExciseTax)
		}
		if f, ok := freight[p.VendorNumber]; ok {
			row.TotalFreightCost = records.Some(f)
		}
		out = append(out, row)
	}

	SortByPurchaseQuantity(out)
	return out
}

// SortByPurchaseQuantity orders rows by TotalPurchaseQuantity descending,
// keeping the relative order of ties.
func SortByPurchaseQuantity(rows []MergedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalPurchaseQuantity > rows[j].TotalPurchaseQuantity
	})
}

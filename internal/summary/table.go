package summary

import (
	"vendorsummary/internal/table"
)

// DefaultTable is the destination table name.
const DefaultTable = "vendor_sales_summary"

// Columns is the destination schema, in output order.
var Columns = []table.Column{
	{Name: "VendorName", Kind: table.KindText},
	{Name: "VendorNumber", Kind: table.KindInt},
	{Name: "Brand", Kind: table.KindInt},
	{Name: "PurchasePrice", Kind: table.KindFloat},
	{Name: "ActualPrice", Kind: table.KindFloat},
	{Name: "Volume", Kind: table.KindFloat},
	{Name: "TotalPurchaseQuantity", Kind: table.KindInt},
	{Name: "TotalPurchaseDollars", Kind: table.KindFloat},
	{Name: "TotalSalesQuantity", Kind: table.KindInt},
	{Name: "TotalSalesDollars", Kind: table.KindFloat},
	{Name: "TotalSalesPrice", Kind: table.KindFloat},
	{Name: "TotalExciseTax", Kind: table.KindFloat},
	{Name: "TotalFreightCost", Kind: table.KindFloat},
	{Name: "GrossProfit", Kind: table.KindFloat},
	{Name: "ProfitMargin", Kind: table.KindFloat},
	{Name: "Stockturnover", Kind: table.KindFloat},
	{Name: "SalestoPurchaseRatio", Kind: table.KindFloat},
}

// MergedColumns names the columns of the merged (pre-derivation) result, in
// the order the pushed-down query selects them.
var MergedColumns = []string{
	"VendorName",
	"VendorNumber",
	"Brand",
	"Description",
	"PurchasePrice",
	"ActualPrice",
	"Volume",
	"TotalPurchaseQuantity",
	"TotalPurchaseDollars",
	"TotalSalesQuantity",
	"TotalSalesDollars",
	"TotalSalesPrice",
	"TotalExciseTax",
	"TotalFreightCost",
}

// Values returns the row aligned with Columns.
func (r Row) Values() []any {
	return []any{
		r.VendorName,
		r.VendorNumber,
		r.Brand,
		r.PurchasePrice.InexactFloat64(),
		r.ActualPrice.InexactFloat64(),
		r.Volume,
		r.TotalPurchaseQuantity,
		r.TotalPurchaseDollars.InexactFloat64(),
		r.TotalSalesQuantity,
		r.TotalSalesDollars.InexactFloat64(),
		r.TotalSalesPrice.InexactFloat64(),
		r.TotalExciseTax.InexactFloat64(),
		r.TotalFreightCost.InexactFloat64(),
		r.GrossProfit.InexactFloat64(),
		r.ProfitMargin.InexactFloat64(),
		r.StockTurnover.InexactFloat64(),
		r.SalesToPurchaseRatio.InexactFloat64(),
	}
}

// ToTable materializes rows as the destination table called name.
func ToTable(name string, rows []Row) table.Table {
	t := table.Table{
		Name:    name,
		Columns: Columns,
		Rows:    make([][]any, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = r.Values()
	}
	return t
}

package summary

import (
	"bytes"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vendorsummary/internal/records"
)

const nullCell = "NULL"

var numPrinter = message.NewPrinter(language.English)

// PreviewMerged renders the first n merged rows as a text table. Absent sales
// and freight values print as NULL. The footer carries totals over all rows.
func PreviewMerged(rows []MergedRow, n int) string {
	header := []string{
		"VendorName", "VendorNumber", "Brand", "PurchasePrice", "ActualPrice", "Volume",
		"TotalPurchaseQuantity", "TotalPurchaseDollars", "TotalSalesQuantity",
		"TotalSalesDollars", "TotalSalesPrice", "TotalExciseTax", "TotalFreightCost",
	}

	var qty int64
	dollars := decimal.Zero
	for _, r := range rows {
		qty += r.TotalPurchaseQuantity
		dollars = dollars.Add(r.TotalPurchaseDollars)
	}

	shown := head(rows, n)
	body := make([][]string, 0, len(shown))
	for _, r := range shown {
		body = append(body, []string{
			nullableString(r.VendorName),
			strconv.FormatInt(r.VendorNumber, 10),
			strconv.FormatInt(r.Brand, 10),
			r.PurchasePrice.String(),
			nullableMoney(r.ActualPrice),
			nullableString(r.Volume),
			strconv.FormatInt(r.TotalPurchaseQuantity, 10),
			r.TotalPurchaseDollars.StringFixed(2),
			nullableInt(r.TotalSalesQuantity),
			nullableMoney(r.TotalSalesDollars),
			nullableMoney(r.TotalSalesPrice),
			nullableMoney(r.TotalExciseTax),
			nullableMoney(r.TotalFreightCost),
		})
	}

	footer := make([]string, len(header))
	footer[0] = numPrinter.Sprintf("%d rows", len(rows))
	footer[6] = numPrinter.Sprintf("%d", qty)
	footer[7] = formatMoney(dollars)
	return render(header, body, footer)
}

// PreviewRows renders the first n final rows as a text table with totals over
// all rows in the footer.
func PreviewRows(rows []Row, n int) string {
	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = c.Name
	}

	var qty, salesQty int64
	purchase, sales, profit := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		qty += r.TotalPurchaseQuantity
		salesQty += r.TotalSalesQuantity
		purchase = purchase.Add(r.TotalPurchaseDollars)
		sales = sales.Add(r.TotalSalesDollars)
		profit = profit.Add(r.GrossProfit)
	}

	shown := head(rows, n)
	body := make([][]string, 0, len(shown))
	for _, r := range shown {
		body = append(body, []string{
			r.VendorName,
			strconv.FormatInt(r.VendorNumber, 10),
			strconv.FormatInt(r.Brand, 10),
			r.PurchasePrice.String(),
			r.ActualPrice.String(),
			strconv.FormatFloat(r.Volume, 'f', -1, 64),
			strconv.FormatInt(r.TotalPurchaseQuantity, 10),
			r.TotalPurchaseDollars.StringFixed(2),
			strconv.FormatInt(r.TotalSalesQuantity, 10),
			r.TotalSalesDollars.StringFixed(2),
			r.TotalSalesPrice.StringFixed(2),
			r.TotalExciseTax.StringFixed(2),
			r.TotalFreightCost.StringFixed(2),
			r.GrossProfit.StringFixed(2),
			r.ProfitMargin.StringFixed(4),
			r.StockTurnover.StringFixed(4),
			r.SalesToPurchaseRatio.StringFixed(4),
		})
	}

	footer := make([]string, len(header))
	footer[0] = numPrinter.Sprintf("%d rows", len(rows))
	footer[6] = numPrinter.Sprintf("%d", qty)
	footer[7] = formatMoney(purchase)
	footer[8] = numPrinter.Sprintf("%d", salesQty)
	footer[9] = formatMoney(sales)
	footer[13] = formatMoney(profit)
	return render(header, body, footer)
}

func render(header []string, body [][]string, footer []string) string {
	var buf bytes.Buffer
	tw := tablewriter.NewWriter(&buf)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetHeader(header)
	tw.SetFooter(footer)
	tw.AppendBulk(body)
	tw.Render()
	return buf.String()
}

func head[T any](rows []T, n int) []T {
	if n < 0 || n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

func formatMoney(d decimal.Decimal) string {
	return numPrinter.Sprintf("%.2f", d.InexactFloat64())
}

func nullableMoney(n records.Nullable[decimal.Decimal]) string {
	if !n.Valid {
		return nullCell
	}
	return n.V.StringFixed(2)
}

func nullableInt(n records.Nullable[int64]) string {
	if !n.Valid {
		return nullCell
	}
	return strconv.FormatInt(n.V, 10)
}

func nullableString(n records.Nullable[string]) string {
	if !n.Valid {
		return nullCell
	}
	return n.V
}

package summary

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vendorsummary/internal/failure"
)

// Row is one line of the final vendor sales summary.
type Row struct {
	VendorName            string
	VendorNumber          int64
	Brand                 int64
	Description           string
	PurchasePrice         decimal.Decimal
	ActualPrice           decimal.Decimal
	Volume                float64
	TotalPurchaseQuantity int64
	TotalPurchaseDollars  decimal.Decimal
	TotalSalesQuantity    int64
	TotalSalesDollars     decimal.Decimal
	TotalSalesPrice       decimal.Decimal
	TotalExciseTax        decimal.Decimal
	TotalFreightCost      decimal.Decimal

	GrossProfit          decimal.Decimal
	ProfitMargin         decimal.Decimal
	StockTurnover        decimal.Decimal
	SalesToPurchaseRatio decimal.Decimal
}

var one = decimal.NewFromInt(1)

// SafeDenominator returns d, or 1 when d is exactly zero. It is the single
// zero-handling policy for every ratio in the summary: a ratio over a zero
// denominator evaluates to its numerator.
func SafeDenominator(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return one
	}
	return d
}

// Ratio divides num by the safe form of den. The numerator is never altered.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	return num.Div(SafeDenominator(den))
}

// Derive turns merged rows into the reporting table. For each row it
// normalizes Volume to a float, fills absent sales and freight values with
// zero, trims VendorName and Description, and computes GrossProfit,
// ProfitMargin, StockTurnover and SalesToPurchaseRatio.
//
// A Volume that is present but not numeric is a schema mismatch and aborts
// the whole derivation; no partial result is returned.
func Derive(in []MergedRow) ([]Row, error) {
	out := make([]Row, 0, len(in))
	for i, m := range in {
		vol, err := normalizeVolume(m.Volume.V, m.Volume.Valid)
		if err != nil {
			return nil, failure.SchemaMismatch(err, "row %d (vendor %d, brand %d): column Volume", i, m.VendorNumber, m.Brand)
		}

		r := Row{
			VendorName:            strings.TrimSpace(m.VendorName.OrZero()),
			VendorNumber:          m.VendorNumber,
			Brand:                 m.Brand,
			Description:           strings.TrimSpace(m.Description.OrZero()),
			PurchasePrice:         m.PurchasePrice,
			ActualPrice:           m.ActualPrice.Or(decimal.Zero),
			Volume:                vol,
			TotalPurchaseQuantity: m.TotalPurchaseQuantity,
			TotalPurchaseDollars:  m.TotalPurchaseDollars,
			TotalSalesQuantity:    m.TotalSalesQuantity.OrZero(),
			TotalSalesDollars:     m.TotalSalesDollars.Or(decimal.Zero),
			TotalSalesPrice:       m.TotalSalesPrice.Or(decimal.Zero),
			TotalExciseTax:        m.TotalExciseTax.Or(decimal.Zero),
			TotalFreightCost:      m.TotalFreightCost.Or(decimal.Zero),
		}

		purchaseQty := decimal.NewFromInt(r.TotalPurchaseQuantity)
		salesQty := decimal.NewFromInt(r.TotalSalesQuantity)

		r.GrossProfit = r.TotalSalesDollars.Sub(r.TotalPurchaseDollars)
		r.ProfitMargin = Ratio(r.GrossProfit, r.TotalSalesDollars)
		r.StockTurnover = Ratio(salesQty, purchaseQty)
		r.SalesToPurchaseRatio = Ratio(r.TotalSalesDollars, r.TotalPurchaseDollars)

		out = append(out, r)
	}
	return out, nil
}

// normalizeVolume converts a stored container volume to float64. An absent
// volume becomes 0, like every other missing numeric field.
func normalizeVolume(raw string, valid bool) (float64, error) {
	if !valid {
		return 0, nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

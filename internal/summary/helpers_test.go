package summary

import (
	"testing"

	"github.com/shopspring/decimal"

	"vendorsummary/internal/records"
)

func dec(tb testing.TB, s string) decimal.Decimal {
	tb.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		tb.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func purchase(tb testing.TB, vendor int64, name string, brand int64, desc, price string, qty int64, dollars string) records.PurchaseRecord {
	tb.Helper()
	return records.PurchaseRecord{
		VendorNumber:  vendor,
		VendorName:    records.Some(name),
		Brand:         brand,
		Description:   records.Some(desc),
		PurchasePrice: dec(tb, price),
		Quantity:      qty,
		Dollars:       dec(tb, dollars),
	}
}

func price(tb testing.TB, brand int64, p, volume string) records.PriceRecord {
	tb.Helper()
	return records.PriceRecord{Brand: brand, Price: records.Some(dec(tb, p)), Volume: records.Some(volume)}
}

func sale(tb testing.TB, vendor, brand, qty int64, dollars, unit, tax string) records.SalesRecord {
	tb.Helper()
	return records.SalesRecord{
		VendorNumber:  vendor,
		Brand:         brand,
		SalesQuantity: qty,
		SalesDollars:  dec(tb, dollars),
		SalesPrice:    dec(tb, unit),
		ExciseTax:     dec(tb, tax),
	}
}

func freight(tb testing.TB, vendor int64, cost string) records.FreightRecord {
	tb.Helper()
	return records.FreightRecord{VendorNumber: vendor, Freight: dec(tb, cost)}
}

func mustEqualDec(tb testing.TB, what string, got decimal.Decimal, want string) {
	tb.Helper()
	if !got.Equal(dec(tb, want)) {
		tb.Fatalf("%s = %s, want %s", what, got, want)
	}
}

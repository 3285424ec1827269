// Package summary computes the per-vendor, per-brand sales and purchasing
// summary: three independent aggregations over raw records, a left-anchored
// merge of their results, and derivation of the reporting ratios.
//
// Money values use decimal arithmetic throughout; conversion to float64 only
// happens when the final table is handed to storage.
package summary

import (
	"github.com/shopspring/decimal"

	"vendorsummary/internal/records"
)

// FreightTotal is total freight cost per vendor.
type FreightTotal struct {
	VendorNumber     int64
	TotalFreightCost decimal.Decimal
}

// PurchaseKey is the full grouping tuple of the purchase aggregation. Two
// purchase lines collapse into one group only when every attribute matches;
// a NULL attribute only matches another NULL.
type PurchaseKey struct {
	VendorNumber  int64
	VendorName    records.Nullable[string]
	Brand         int64
	Description   records.Nullable[string]
	PurchasePrice decimal.Decimal
	ActualPrice   records.Nullable[decimal.Decimal]
	Volume        records.Nullable[string]
}

// PurchaseGroup is one row of the purchase aggregation.
type PurchaseGroup struct {
	PurchaseKey
	TotalPurchaseQuantity int64
	TotalPurchaseDollars  decimal.Decimal
}

// SalesTotal is the sales aggregation for one (vendor, brand) pair.
type SalesTotal struct {
	VendorNumber       int64
	Brand              int64
	TotalSalesQuantity int64
	TotalSalesDollars  decimal.Decimal
	TotalSalesPrice    decimal.Decimal
	TotalExciseTax     decimal.Decimal
}

// Aggregates holds the three intermediate results.
type Aggregates struct {
	Freight   []FreightTotal
	Purchases []PurchaseGroup
	Sales     []SalesTotal
}

// Aggregate runs all three aggregations over ds.
func Aggregate(ds records.Dataset) Aggregates {
	return Aggregates{
		Freight:   AggregateFreight(ds.Freight),
		Purchases: AggregatePurchases(ds.Purchases, ds.Prices),
		Sales:     AggregateSales(ds.Sales),
	}
}

// AggregateFreight sums freight per vendor. Groups are emitted in order of
// first appearance.
func AggregateFreight(in []records.FreightRecord) []FreightTotal {
	idx := make(map[int64]int)
	out := make([]FreightTotal, 0)
	for _, r := range in {
		i, ok := idx[r.VendorNumber]
		if !ok {
			i = len(out)
			idx[r.VendorNumber] = i
			out = append(out, FreightTotal{VendorNumber: r.VendorNumber, TotalFreightCost: decimal.Zero})
		}
		out[i].TotalFreightCost = out[i].TotalFreightCost.Add(r.Freight)
	}
	return out
}

// purchaseMapKey is the comparable form of PurchaseKey. Decimals are keyed by
// their canonical string so numerically equal prices (10 and 10.00) group
// together.
type purchaseMapKey struct {
	vendor      int64
	vendorName  records.Nullable[string]
	brand       int64
	description records.Nullable[string]
	price       string
	actual      records.Nullable[string]
	volume      records.Nullable[string]
}

func (k PurchaseKey) mapKey() purchaseMapKey {
	actual := records.Null[string]()
	if k.ActualPrice.Valid {
		actual = records.Some(k.ActualPrice.V.String())
	}
	return purchaseMapKey{
		vendor:      k.VendorNumber,
		vendorName:  k.VendorName,
		brand:       k.Brand,
		description: k.Description,
		price:       k.PurchasePrice.String(),
		actual:      actual,
		volume:      k.Volume,
	}
}

// AggregatePurchases inner-joins purchases to prices on brand, keeps lines
// with a positive purchase price, and sums quantity and dollars per full
// attribute tuple.
//
// A purchase whose brand has no price record is dropped. A brand with several
// price records fans the purchase out to each of them. Groups are emitted in
// order of first appearance.
func AggregatePurchases(purchases []records.PurchaseRecord, prices []records.PriceRecord) []PurchaseGroup {
	byBrand := make(map[int64][]records.PriceRecord, len(prices))
	for _, p := range prices {
		byBrand[p.Brand] = append(byBrand[p.Brand], p)
	}

	idx := make(map[purchaseMapKey]int)
	out := make([]PurchaseGroup, 0)
	for _, p := range purchases {
		if !p.PurchasePrice.IsPositive() {
			continue
		}
		for _, pp := range byBrand[p.Brand] {
			key := PurchaseKey{
				VendorNumber:  p.VendorNumber,
				VendorName:    p.VendorName,
				Brand:         p.Brand,
				Description:   p.Description,
				PurchasePrice: p.PurchasePrice,
				ActualPrice:   pp.Price,
				Volume:        pp.Volume,
			}
			mk := key.mapKey()
			i, ok := idx[mk]
			if !ok {
				i = len(out)
				idx[mk] = i
				out = append(out, PurchaseGroup{PurchaseKey: key, TotalPurchaseDollars: decimal.Zero})
			}
			out[i].TotalPurchaseQuantity += p.Quantity
			out[i].TotalPurchaseDollars = out[i].TotalPurchaseDollars.Add(p.Dollars)
		}
	}
	return out
}

type vendorBrand struct {
	vendor int64
	brand  int64
}

// AggregateSales sums the sales measures per (vendor, brand). Groups are
// emitted in order of first appearance.
func AggregateSales(in []records.SalesRecord) []SalesTotal {
	idx := make(map[vendorBrand]int)
	out := make([]SalesTotal, 0)
	for _, r := range in {
		k := vendorBrand{vendor: r.VendorNumber, brand: r.Brand}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, SalesTotal{
				VendorNumber:      r.VendorNumber,
				Brand:             r.Brand,
				TotalSalesDollars: decimal.Zero,
				TotalSalesPrice:   decimal.Zero,
				TotalExciseTax:    decimal.Zero,
			})
		}
		s := &out[i]
		s.TotalSalesQuantity += r.SalesQuantity
		s.TotalSalesDollars = s.TotalSalesDollars.Add(r.SalesDollars)
		s.TotalSalesPrice = s.TotalSalesPrice.Add(r.SalesPrice)
		s.TotalExciseTax = s.TotalExciseTax.Add(r.ExciseTax)
	}
	return out
}

// Package records holds the raw transactional rows read from the inventory
// store. Field names follow the source table columns.
package records

import "github.com/shopspring/decimal"

// PurchaseRecord is one purchase transaction line (table "purchases").
// VendorName and Description are grouping attributes, so NULL is kept apart
// from the empty string.
type PurchaseRecord struct {
	VendorNumber  int64
	VendorName    Nullable[string]
	Brand         int64
	Description   Nullable[string]
	PurchasePrice decimal.Decimal
	Quantity      int64
	Dollars       decimal.Decimal
}

// PriceRecord is one catalog entry per brand (table "purchase_prices").
// Volume is kept as stored; it is converted to a number only when the
// summary is derived. A NULL Price groups apart from a zero one.
type PriceRecord struct {
	Brand  int64
	Price  Nullable[decimal.Decimal]
	Volume Nullable[string]
}

// SalesRecord is one sale transaction line (table "sales").
type SalesRecord struct {
	VendorNumber  int64 // VendorNo in the source table
	Brand         int64
	SalesQuantity int64
	SalesDollars  decimal.Decimal
	SalesPrice    decimal.Decimal
	ExciseTax     decimal.Decimal
}

// FreightRecord is one vendor invoice line (table "vendor_invoice").
type FreightRecord struct {
	VendorNumber int64
	Freight      decimal.Decimal
}

// Dataset bundles the four source collections for one run.
type Dataset struct {
	Purchases []PurchaseRecord
	Prices    []PriceRecord
	Sales     []SalesRecord
	Freight   []FreightRecord
}

package summary

import "vendorsummary/internal/records"

// Compute runs aggregation, merge and derivation over ds in one call.
func Compute(ds records.Dataset) ([]Row, error) {
	return Derive(Merge(Aggregate(ds)))
}

package summary

import (
	"math"
	"strconv"

	"github.com/zeebo/xxh3"

	"vendorsummary/internal/table"
)

// Fingerprint returns an order-independent 64-bit digest of a table's rows.
// Two runs over unchanged input produce the same fingerprint even if rows
// with equal purchase quantity come back from the store in another order.
//
// Each row is encoded column by column with a 0x00 separator and hashed with
// xxh3; the per-row hashes are summed (mod 2^64), which keeps duplicate rows
// significant.
func Fingerprint(t table.Table) uint64 {
	var sum uint64
	buf := make([]byte, 0, 256)
	for _, row := range t.Rows {
		buf = buf[:0]
		for _, v := range row {
			buf = appendValue(buf, v)
			buf = append(buf, 0)
		}
		sum += xxh3.Hash(buf)
	}
	return sum
}

func appendValue(b []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(b, 0xff)
	case string:
		return append(b, x...)
	case int64:
		return strconv.AppendInt(b, x, 10)
	case float64:
		if x == 0 {
			x = math.Abs(x) // fold -0 into 0
		}
		return strconv.AppendFloat(b, x, 'g', -1, 64)
	default:
		return append(b, '?')
	}
}

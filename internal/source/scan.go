package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullInt scans integer-valued columns from any supported driver. Stores
// differ in what they hand back for integer data (int64, float64 from REAL
// columns, NUMERIC text from SUM over BIGINT), so all of these are accepted
// as long as the value is integral.
type nullInt struct {
	V     int64
	Valid bool
}

func (n *nullInt) Scan(src any) error {
	n.V, n.Valid = 0, false
	switch x := src.(type) {
	case nil:
		return nil
	case int64:
		n.V = x
	case int32:
		n.V = int64(x)
	case int16:
		n.V = int64(x)
	case int8:
		n.V = int64(x)
	case int:
		n.V = int64(x)
	case uint8:
		n.V = int64(x)
	case uint16:
		n.V = int64(x)
	case uint32:
		n.V = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return fmt.Errorf("integer %d overflows int64", x)
		}
		n.V = int64(x)
	case float64:
		v, err := integral(x)
		if err != nil {
			return err
		}
		n.V = v
	case float32:
		v, err := integral(float64(x))
		if err != nil {
			return err
		}
		n.V = v
	case []byte:
		return n.parse(string(x))
	case string:
		return n.parse(x)
	case bool:
		if x {
			n.V = 1
		}
	default:
		return fmt.Errorf("cannot scan %T into integer", src)
	}
	n.Valid = true
	return nil
}

func (n *nullInt) parse(s string) error {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		n.V, n.Valid = v, true
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	v, err := integral(f)
	if err != nil {
		return err
	}
	n.V, n.Valid = v, true
	return nil
}

func integral(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

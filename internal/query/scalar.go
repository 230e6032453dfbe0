package query

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/deferq/internal/ir"
)

// Scalar is the set of Go types ScalarAs converts to.
type Scalar interface {
	int64 | float64 | string | bool
}

// ScalarAs converts a scalar result to T.
//
// Conversions:
//   - int64: IRInt, integral IRFloat, numeric IRString, IRBool (0/1)
//   - float64: IRInt, IRFloat, numeric IRString
//   - string: any non-null value, rendered as text
//   - bool: IRBool, IRInt (non-zero is true)
//
// IRNull converts to nothing and is an error; use ToScalarOrDefault and
// ir.IsNull to handle missing values.
func ScalarAs[T Scalar](v ir.IRValue) (T, error) {
	var zero T
	if ir.IsNull(v) {
		return zero, fmt.Errorf("cannot convert NULL to %T", zero)
	}

	var out any
	var err error
	switch any(zero).(type) {
	case int64:
		out, err = toInt64(v)
	case float64:
		out, err = toFloat64(v)
	case string:
		out = ir.String(v)
	case bool:
		out, err = toBool(v)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func toInt64(v ir.IRValue) (int64, error) {
	switch x := v.(type) {
	case ir.IRInt:
		return int64(x), nil
	case ir.IRFloat:
		f := float64(x)
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("cannot convert %v to int64 without loss", f)
		}
		return int64(f), nil
	case ir.IRString:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int64: %w", string(x), err)
		}
		return n, nil
	case ir.IRBool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v)
}

func toFloat64(v ir.IRValue) (float64, error) {
	switch x := v.(type) {
	case ir.IRInt:
		return float64(x), nil
	case ir.IRFloat:
		return float64(x), nil
	case ir.IRString:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float64: %w", string(x), err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %T to float64", v)
}

func toBool(v ir.IRValue) (bool, error) {
	switch x := v.(type) {
	case ir.IRBool:
		return bool(x), nil
	case ir.IRInt:
		return x != 0, nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", v)
}

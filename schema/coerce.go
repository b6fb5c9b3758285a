package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	apperrors "github.com/kbukum/flowkit/errors"
)

// IsBlank reports whether v is nil, an empty string or a NaN float.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Coerce converts v to the field's kind. Blank inputs yield the null
// sentinel; failures are coercion errors carrying the value and kind.
func (f Field) Coerce(v any) (any, error) {
	kind := f.Kind()
	if kind == KindDecimal && isNaN(v) {
		return v, nil
	}
	if IsBlank(v) {
		return f.Null(), nil
	}

	var (
		out any
		err error
	)
	switch kind {
	case KindString:
		out, err = coerceString(v)
	case KindInteger:
		out, err = coerceInteger(v, f.CoercesFloat())
	case KindFloat:
		out, err = coerceFloat(v)
	case KindDate:
		out, err = coerceDate(v, f.Format(), f.InfersFormat())
	case KindDateTime:
		out, err = coerceDateTime(v, f.Format(), f.InfersFormat())
	case KindBoolean:
		out, err = f.coerceBoolean(v)
	case KindDecimal:
		return f.coerceDecimal(v)
	case KindJSON:
		out, err = coerceJSON(v)
	default:
		return v, nil
	}
	if err != nil {
		return nil, apperrors.Coercion(string(kind), v, err).WithDetail("field", f.Name)
	}
	return out, nil
}

func isNaN(v any) bool {
	switch x := v.(type) {
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

func coerceString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case time.Time:
		if isMidnight(x) {
			return x.Format(time.DateOnly), nil
		}
		return x.Format(time.RFC3339Nano), nil
	case decimal.Decimal:
		return x.String(), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v), nil
	}
	return s, nil
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func coerceInteger(v any, coerceFloat bool) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("integer %q out of range", x)
		}
		if !coerceFloat {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		fl, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return integerFromFloat(fl, coerceFloat)
	case float64:
		return integerFromFloat(x, coerceFloat)
	case float32:
		return integerFromFloat(float64(x), coerceFloat)
	case decimal.Decimal:
		if !x.IsInteger() && !coerceFloat {
			return nil, fmt.Errorf("fractional value %s", x)
		}
		n := x.Truncate(0)
		if n.LessThan(minInt64) || n.GreaterThan(maxInt64) {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		return n.IntPart(), nil
	case bool:
		return nil, fmt.Errorf("boolean is not an integer")
	}
	return cast.ToInt64E(v)
}

func integerFromFloat(fl float64, coerceFloat bool) (any, error) {
	if math.IsInf(fl, 0) {
		return nil, fmt.Errorf("infinite value")
	}
	if math.IsNaN(fl) {
		return nil, fmt.Errorf("NaN is not an integer")
	}
	if fl != math.Trunc(fl) && !coerceFloat {
		return nil, fmt.Errorf("fractional value %v", fl)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if fl < math.MinInt64 || fl >= math.MaxInt64 {
		return nil, fmt.Errorf("integer %v out of range", fl)
	}
	return int64(fl), nil
}

func coerceFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case bool:
		return nil, fmt.Errorf("boolean is not a float")
	}
	return cast.ToFloat64E(v)
}

func (f Field) coerceBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	s := strings.ToLower(strings.TrimSpace(cast.ToString(v)))
	for _, t := range f.TruthySet() {
		if s == strings.ToLower(t) {
			return true, nil
		}
	}
	for _, fv := range f.FalseySet() {
		if s == strings.ToLower(fv) {
			return false, nil
		}
	}
	if fallback, ok := f.UnknownTruthiness(); ok {
		return fallback, nil
	}
	return nil, fmt.Errorf("unrecognized truth value %q", s)
}

func (f Field) coerceDecimal(v any) (any, error) {
	d, err := toDecimal(v)
	if err != nil {
		return nil, apperrors.Coercion(string(KindDecimal), v, err).WithDetail("field", f.Name)
	}

	scale := f.Scale()
	if f.TruncatesDecimal() {
		d = d.RoundBank(int32(scale))
	}
	if !f.EnforcesDecimal() {
		return d, nil
	}

	if got := DecimalScale(d); got > scale {
		return nil, apperrors.DecimalCoercion(v, fmt.Sprintf("scale %d exceeds %d", got, scale)).
			WithDetail("field", f.Name)
	}
	if got := DecimalPrecision(d); got > f.Precision() {
		return nil, apperrors.DecimalCoercion(v, fmt.Sprintf("precision %d exceeds %d", got, f.Precision())).
			WithDetail("field", f.Name)
	}
	return d, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case float64:
		if math.IsInf(x, 0) {
			return decimal.Decimal{}, fmt.Errorf("infinite value")
		}
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case bool:
		return decimal.Decimal{}, fmt.Errorf("boolean is not a decimal")
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

// DecimalScale returns the number of fractional digits as written.
func DecimalScale(d decimal.Decimal) int {
	if exp := d.Exponent(); exp < 0 {
		return int(-exp)
	}
	return 0
}

// DecimalPrecision returns the number of integer digits; zero has none.
func DecimalPrecision(d decimal.Decimal) int {
	digits := d.Abs().Truncate(0).String()
	if digits == "0" {
		return 0
	}
	return len(digits)
}

func coerceJSON(v any) (any, error) {
	var raw []byte
	switch x := v.(type) {
	case string:
		raw = []byte(x)
	case []byte:
		raw = x
	default:
		return v, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

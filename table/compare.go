package table

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ValuesEqual compares two cell values tolerantly: numbers compare across
// int, float and decimal, times compare by instant, NaN equals NaN, and
// anything else falls back to comparing string forms.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNaN(a) || isNaN(b) {
		return isNaN(a) && isNaN(b)
	}
	if da, ok := asDecimal(a); ok {
		if db, ok := asDecimal(b); ok {
			return da.Equal(db)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return FormatValue(a) == FormatValue(b)
}

// FormatValue renders a cell the way literals are written.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.Equal(x.Truncate(24*time.Hour)) && x.Location() == time.UTC {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return cast.ToString(v)
	}
}

// String renders the table as a literal.
func (t *Table) String() string {
	cols := t.Columns()
	if len(cols) == 0 {
		return ""
	}
	widths := make([]int, len(cols))
	cells := make([][]string, t.Len())
	for j, c := range cols {
		widths[j] = max(len(c), 1)
	}
	for i := range cells {
		cells[i] = make([]string, len(cols))
		for j, c := range cols {
			cells[i][j] = FormatValue(t.data[c][i])
			widths[j] = max(widths[j], len(cells[i][j]))
		}
	}
	var b strings.Builder
	line := func(values []string) {
		b.WriteString("|")
		for j, v := range values {
			b.WriteString(" ")
			b.WriteString(v)
			b.WriteString(strings.Repeat(" ", widths[j]-len(v)))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	line(cols)
	sep := make([]string, len(cols))
	for j := range sep {
		sep[j] = strings.Repeat("-", widths[j])
	}
	line(sep)
	for _, row := range cells {
		line(row)
	}
	return b.String()
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return decimal.NewFromInt(cast.ToInt64(x)), true
	}
	return decimal.Decimal{}, false
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

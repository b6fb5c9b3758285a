package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/timefmt-go"
)

// Default layouts.
const (
	DefaultDateFormat     = time.DateOnly
	DefaultDateTimeFormat = time.DateTime
)

// dateTimeFallbacks are tried, in order, by DateTime fields without a format.
var dateTimeFallbacks = []string{
	time.DateTime,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

var inferCache = mustInferCache(1024)

func mustInferCache(size int) *lru.Cache[string, time.Time] {
	c, err := lru.New[string, time.Time](size)
	if err != nil {
		panic(err)
	}
	return c
}

// IsStrftime reports whether format is a strftime pattern (%Y-%m-%d) rather
// than a Go layout.
func IsStrftime(format string) bool {
	return strings.Contains(format, "%")
}

// parseFormat parses s with a strftime pattern or a Go layout.
func parseFormat(s, format string) (time.Time, error) {
	if IsStrftime(format) {
		return timefmt.Parse(s, format)
	}
	return time.Parse(format, s)
}

// inferTime parses s permissively. Columns repeat values, so results are
// memoized.
func inferTime(s string) (time.Time, error) {
	if t, ok := inferCache.Get(s); ok {
		return t, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, err
	}
	inferCache.Add(s, t)
	return t, nil
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func coerceDate(v any, format string, infer bool) (any, error) {
	t, err := parseTime(v, format, infer, []string{DefaultDateFormat})
	if err != nil {
		return nil, err
	}
	return truncateToDate(t), nil
}

func coerceDateTime(v any, format string, infer bool) (any, error) {
	return parseTime(v, format, infer, dateTimeFallbacks)
}

func parseTime(v any, format string, infer bool, fallbacks []string) (time.Time, error) {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *x, nil
	case string:
		s = strings.TrimSpace(x)
	case []byte:
		s = strings.TrimSpace(string(x))
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}

	if infer {
		return inferTime(s)
	}
	if format != "" {
		return parseFormat(s, format)
	}

	var lastErr error
	for _, layout := range fallbacks {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

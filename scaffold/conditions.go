package scaffold

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// Condition prepares a case's inputs.
type Condition func(in *Inputs) error

// ExampleFor installs a copy of t on source.
func ExampleFor(source string, t *table.Table) Condition {
	return func(in *Inputs) error {
		return in.Set(source, t.Clone())
	}
}

// ConformsTo installs n synthetic rows that coerce cleanly to s.
func ConformsTo(source string, s *schema.Schema, n int) Condition {
	return func(in *Inputs) error {
		t := table.New(s.Names()...)
		for i := 0; i < n; i++ {
			row := make(map[string]any, s.Len())
			for _, f := range s.Fields() {
				v, err := f.Coerce(synthetic(f, i))
				if err != nil {
					return err
				}
				row[f.Name] = v
			}
			t.AppendRow(row)
		}
		return in.Set(source, t)
	}
}

func synthetic(f schema.Field, i int) any {
	switch f.Kind() {
	case schema.KindInteger:
		return int64(i + 1)
	case schema.KindFloat:
		return float64(i) + 0.5
	case schema.KindDecimal:
		return decimal.NewFromInt(int64(i + 1))
	case schema.KindBoolean:
		return i%2 == 0
	case schema.KindDate:
		return time.Date(2020, time.January, 1+i, 0, 0, 0, 0, time.UTC)
	case schema.KindDateTime:
		return time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	case schema.KindJSON:
		return map[string]any{"n": i}
	default:
		return fmt.Sprintf("%s_%d", f.Name, i)
	}
}

// FieldHasValue pins field to v on every row of the case's source table.
// A source without rows gets a single row.
func FieldHasValue(source, field string, v any) Condition {
	return func(in *Inputs) error {
		t, ok := in.Table(source)
		if !ok || t.Len() == 0 {
			t = table.New()
			t.AppendRow(map[string]any{field: v})
			return in.Set(source, t)
		}
		values := make([]any, t.Len())
		for i := range values {
			values[i] = v
		}
		return t.SetColumn(field, values)
	}
}

// HasKeys writes the case's surrogate ids into the source's key field.
func HasKeys(source string) Condition {
	return func(in *Inputs) error {
		field, ok := in.scenario.Key(source)
		if !ok {
			return apperrors.Configuration(fmt.Sprintf("no key field declared for %q", source))
		}
		t, ok := in.Table(source)
		if !ok {
			return apperrors.Configuration(fmt.Sprintf("source %q has no rows to key", source))
		}
		return t.SetColumn(field, in.keys.IDs(t.Len()))
	}
}

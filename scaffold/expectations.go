package scaffold

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowkit/table"
)

// Expectation checks a case's outcome.
type Expectation func(out *Outcome) error

// TargetFieldHasValue expects every case row of target to hold v in field.
func TargetFieldHasValue(target, field string, v any) Expectation {
	return func(out *Outcome) error {
		t, err := out.Target(target)
		if err != nil {
			return err
		}
		if !t.Has(field) {
			return fmt.Errorf("target %s has no field %s", target, field)
		}
		if t.Len() == 0 {
			return fmt.Errorf("target %s has no rows to check %s", target, field)
		}
		for i := 0; i < t.Len(); i++ {
			if got := t.Value(i, field); !table.ValuesEqual(got, v) {
				return fmt.Errorf("target %s row %d: %s is %s, expected %s",
					target, t.Label(i), field, table.FormatValue(got), table.FormatValue(v))
			}
		}
		return nil
	}
}

// FieldIsCopied expects field to arrive on target unchanged from source.
func FieldIsCopied(source, target, field string) Expectation {
	return func(out *Outcome) error {
		in, err := out.Source(source)
		if err != nil {
			return err
		}
		t, err := out.Target(target)
		if err != nil {
			return err
		}
		if !t.Has(field) {
			return fmt.Errorf("target %s has no field %s", target, field)
		}
		want, got := in.Column(field), t.Column(field)
		if len(want) != len(got) {
			return fmt.Errorf("field %s: %d values on %s, %d on %s", field, len(want), source, len(got), target)
		}
		for i := range want {
			if !table.ValuesEqual(want[i], got[i]) {
				return fmt.Errorf("field %s row %d: %s on %s, %s on %s", field, i,
					table.FormatValue(want[i]), source, table.FormatValue(got[i]), target)
			}
		}
		return nil
	}
}

// TargetMatchesExample expects the case rows of target, restricted to the
// example's columns, to equal example.
func TargetMatchesExample(target string, example *table.Table) Expectation {
	return func(out *Outcome) error {
		t, err := out.Target(target)
		if err != nil {
			return err
		}
		var missing []string
		for _, c := range example.Columns() {
			if !t.Has(c) {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("target %s lacks fields %s", target, strings.Join(missing, ", "))
		}
		got := t.Select(example.Columns()...)
		if !got.Equal(example) {
			return fmt.Errorf("target %s does not match example\ngot:\n%s\nexpected:\n%s", target, got, example)
		}
		return nil
	}
}

// TargetIsEmpty expects no case rows on target.
func TargetIsEmpty(target string) Expectation {
	return TargetHasRecords(target, 0)
}

// TargetHasRecords expects exactly n case rows on target.
func TargetHasRecords(target string, n int) Expectation {
	return func(out *Outcome) error {
		t, err := out.Target(target)
		if err != nil {
			return err
		}
		if t.Len() != n {
			return fmt.Errorf("target %s has %d records, expected %d", target, t.Len(), n)
		}
		return nil
	}
}

// TargetLacksFields expects none of fields on target.
func TargetLacksFields(target string, fields ...string) Expectation {
	return func(out *Outcome) error {
		t, err := out.Whole(target)
		if err != nil {
			return err
		}
		var present []string
		for _, f := range fields {
			if t.Has(f) {
				present = append(present, f)
			}
		}
		if len(present) > 0 {
			return fmt.Errorf("target %s has unexpected fields %s", target, strings.Join(present, ", "))
		}
		return nil
	}
}

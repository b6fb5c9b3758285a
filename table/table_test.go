package table

import (
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromRows([]string{"id", "name"}, [][]any{
		{int64(1), "one"},
		{int64(2), "two"},
		{int64(3), "three"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tbl
}

func TestFromRows(t *testing.T) {
	tbl := sample(t)
	if tbl.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", tbl.Len())
	}
	if !slices.Equal(tbl.Columns(), []string{"id", "name"}) {
		t.Errorf("unexpected columns %v", tbl.Columns())
	}
	if got := tbl.Value(1, "name"); got != "two" {
		t.Errorf("expected two, got %v", got)
	}
	if !slices.Equal(tbl.Index(), []int{0, 1, 2}) {
		t.Errorf("unexpected index %v", tbl.Index())
	}

	if _, err := FromRows([]string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Error("expected error for short row")
	}
	if _, err := FromRows([]string{"a", "a"}, nil); err == nil {
		t.Error("expected error for duplicate column")
	}
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	if tbl.Len() != 0 || tbl.Has("x") || tbl.Columns() != nil {
		t.Fatal("nil table should be empty")
	}
	if tbl.Value(0, "x") != nil {
		t.Error("absent column reads as nil")
	}
}

func TestFilterKeepsLabels(t *testing.T) {
	tbl := sample(t)
	odd := tbl.Filter(func(_ int, row map[string]any) bool {
		return row["id"].(int64)%2 == 1
	})
	if !slices.Equal(odd.Index(), []int{0, 2}) {
		t.Fatalf("expected labels [0 2], got %v", odd.Index())
	}
	if pos, ok := odd.Position(2); !ok || pos != 1 {
		t.Errorf("expected label 2 at position 1, got %d %v", pos, ok)
	}

	dropped := tbl.DropIndex(1)
	if !slices.Equal(dropped.Column("name"), []any{"one", "three"}) {
		t.Errorf("unexpected names %v", dropped.Column("name"))
	}
	kept := tbl.KeepIndex(1)
	if kept.Len() != 1 || kept.Label(0) != 1 {
		t.Errorf("expected only label 1, got %v", kept.Index())
	}
	if !slices.Equal(odd.Reindex().Index(), []int{0, 1}) {
		t.Error("reindex should relabel from zero")
	}
}

func TestAppendRowAddsColumns(t *testing.T) {
	tbl := New("a")
	tbl.AppendRow(map[string]any{"a": 1})
	tbl.AppendRow(map[string]any{"a": 2, "b": "x"})

	if !slices.Equal(tbl.Columns(), []string{"a", "b"}) {
		t.Fatalf("unexpected columns %v", tbl.Columns())
	}
	if tbl.Value(0, "b") != nil || tbl.Value(1, "b") != "x" {
		t.Errorf("unexpected column b %v", tbl.Column("b"))
	}
	if !slices.Equal(tbl.Index(), []int{0, 1}) {
		t.Errorf("unexpected index %v", tbl.Index())
	}
}

func TestSetColumn(t *testing.T) {
	tbl := sample(t)
	if err := tbl.SetColumn("flag", []any{true, false, true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.SetColumn("short", []any{1}); err == nil {
		t.Error("expected length mismatch error")
	}
	if tbl.Value(2, "flag") != true {
		t.Error("expected flag on row 2")
	}
}

func TestSelectRenameDrop(t *testing.T) {
	tbl := sample(t)
	sel := tbl.Select("name", "missing")
	if !slices.Equal(sel.Columns(), []string{"name", "missing"}) {
		t.Fatalf("unexpected columns %v", sel.Columns())
	}
	if sel.Value(0, "missing") != nil {
		t.Error("absent selected column should be nil")
	}
	renamed := tbl.Rename(map[string]string{"name": "label"})
	if !renamed.Has("label") || renamed.Has("name") {
		t.Errorf("unexpected columns %v", renamed.Columns())
	}
	if !slices.Equal(tbl.Drop("id").Columns(), []string{"name"}) {
		t.Error("drop should remove id")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := sample(t)
	c := tbl.Clone()
	c.Set(0, "name", "changed")
	if tbl.Value(0, "name") != "one" {
		t.Fatal("clone shares storage with original")
	}
}

func TestConcat(t *testing.T) {
	a := MustFromRows([]string{"id"}, [][]any{{1}, {2}})
	b := MustFromRows([]string{"id", "extra"}, [][]any{{3, "x"}})

	out := Concat(a, b)
	if out.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.Len())
	}
	if !slices.Equal(out.Columns(), []string{"id", "extra"}) {
		t.Errorf("unexpected columns %v", out.Columns())
	}
	if !slices.Equal(out.Column("extra"), []any{nil, nil, "x"}) {
		t.Errorf("unexpected extra column %v", out.Column("extra"))
	}
	if !slices.Equal(out.Index(), []int{0, 1, 0}) {
		t.Errorf("labels should be kept, got %v", out.Index())
	}
}

func TestValuesEqual(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil vs empty", nil, "", false},
		{"int vs float", int64(2), 2.0, true},
		{"decimal vs int", decimal.RequireFromString("2.00"), 2, true},
		{"different numbers", 1, 2, false},
		{"nan", math.NaN(), math.NaN(), true},
		{"nan vs number", math.NaN(), 1.0, false},
		{"times by instant", day, day.In(time.FixedZone("x", 3600)), true},
		{"string fallback", "1", 1, true},
		{"strings", "a", "b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ValuesEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEqualIgnoresLabels(t *testing.T) {
	tbl := sample(t)
	other := tbl.DropIndex(0)
	if tbl.Equal(other) {
		t.Fatal("different lengths are not equal")
	}
	if !tbl.DropIndex(0).Equal(other.Reindex()) {
		t.Error("labels should not affect equality")
	}
}

func TestStringRendersLiteral(t *testing.T) {
	out := sample(t).String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "| id | name") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Trim(lines[1], "-| ") != "" {
		t.Errorf("unexpected separator %q", lines[1])
	}
}

package mapper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/flowkit/config"
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

var spanish = map[int64]string{1: "UNO", 2: "DOS", 3: "TRES"}

func translate(v any) (any, error) {
	n, ok := v.(int64)
	if !ok {
		return nil, fmt.Errorf("not an integer: %v", v)
	}
	word, ok := spanish[n]
	if !ok {
		return nil, fmt.Errorf("no translation for %d", n)
	}
	return word, nil
}

func numbers(values ...int64) *table.Table {
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	return table.MustFromRows([]string{"n"}, rows)
}

func TestWarnRoutesErrors(t *testing.T) {
	m := New(Scalar("n", "word", translate, Handle(Warn())))
	res, err := m.Map(context.Background(), numbers(1, 20, 3, 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := res.Mapped.Column("word"); !slices.Equal(got, []any{"UNO", nil, "TRES", nil}) {
		t.Fatalf("unexpected mapped column %v", got)
	}
	if !slices.Equal(res.Errors.Index(), []int{1, 3}) {
		t.Fatalf("expected errors at rows 1 and 3, got %v", res.Errors.Index())
	}
	if got := res.Errors.Column("n"); !slices.Equal(got, []any{int64(20), int64(40)}) {
		t.Errorf("errors should reference the offending values, got %v", got)
	}
	if !slices.Equal(res.Errors.Columns()[:4], ErrorColumns) {
		t.Errorf("unexpected error columns %v", res.Errors.Columns())
	}
	if res.Errors.Value(0, ColMode) != "warn" || res.Errors.Value(0, ColFields) != "n" {
		t.Errorf("unexpected error row %v", res.Errors.Row(0))
	}
	if len(res.Excluded) != 0 {
		t.Errorf("warn must not exclude rows, got %v", res.Excluded)
	}
}

func TestErrorsTableKeepsClashingSourceColumns(t *testing.T) {
	src := table.MustFromRows([]string{"message", "source_message", "mode"}, [][]any{
		{"hello", "kept", "fast"},
		{"bye", "also kept", "slow"},
	})
	recorded := []RecordedError{{Mode: ModeWarn, Index: 1, TypeName: "CoercionError", Message: "bad", Fields: []string{"message"}}}

	errs := ErrorsTable(recorded, src)
	want := append(slices.Clone(ErrorColumns), "source_source_message", "source_message", "source_mode")
	if !slices.Equal(errs.Columns(), want) {
		t.Fatalf("unexpected columns %v", errs.Columns())
	}
	row := errs.Row(0)
	if row[ColMessage] != "bad" || row[ColMode] != "warn" {
		t.Errorf("error columns overwritten: %v", row)
	}
	if row["source_source_message"] != "bye" || row["source_message"] != "also kept" || row["source_mode"] != "slow" {
		t.Errorf("source values lost: %v", row)
	}
	if !slices.Equal(errs.Index(), []int{1}) {
		t.Errorf("expected label 1, got %v", errs.Index())
	}
}

func TestExcludeDropsRows(t *testing.T) {
	m := New(Scalar("n", "word", translate, Handle(Exclude())))
	res, err := m.Map(context.Background(), numbers(1, 20, 3, 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Mapped.Index(), []int{0, 2}) {
		t.Fatalf("expected surviving rows [0 2], got %v", res.Mapped.Index())
	}
	if !slices.Equal(res.Excluded, []int{1, 3}) {
		t.Fatalf("expected excluded [1 3], got %v", res.Excluded)
	}
	for _, l := range res.Mapped.Index() {
		if slices.Contains(res.Excluded, l) {
			t.Errorf("label %d is both mapped and excluded", l)
		}
	}
}

func TestRowsAreMappedOrExcluded(t *testing.T) {
	for _, h := range []RowHandler{Exclude(), Warn(), Catch()} {
		t.Run(string(h.Mode), func(t *testing.T) {
			src := numbers(1, 20, 3, 40, 2)
			m := New(Scalar("n", "word", translate, Handle(h))).Suppress()
			res, err := m.Map(context.Background(), src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Mapped.Len()+len(res.Excluded) != src.Len() {
				t.Errorf("mapped %d + excluded %d != %d", res.Mapped.Len(), len(res.Excluded), src.Len())
			}
		})
	}
}

func TestRaiseAborts(t *testing.T) {
	m := New(Scalar("n", "word", translate))
	res, err := m.Map(context.Background(), numbers(1, 20, 3))
	if err == nil || res != nil {
		t.Fatalf("expected abort, got %v %v", res, err)
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Details["row"] != 1 || appErr.Details["field"] != "n" {
		t.Errorf("expected row and field details, got %v", err)
	}
}

func TestCatchFailsAtEndUnlessSuppressed(t *testing.T) {
	maps := []FieldMap{
		Scalar("n", "word", translate, Handle(Catch())),
		Copy("n", "copy"),
	}
	res, err := New(maps...).Map(context.Background(), numbers(1, 20))
	if !apperrors.HasCode(err, apperrors.ErrCodeUncaughtMapping) {
		t.Fatalf("expected uncaught mapping error, got %v", err)
	}
	if res == nil || res.Mapped.Value(1, "copy") != int64(20) {
		t.Fatal("all maps should run before the mapper fails")
	}

	res, err = New(maps...).Configure(config.MapperConfig{SuppressCaught: true}).Map(context.Background(), numbers(1, 20))
	if err != nil {
		t.Fatalf("suppressed mapper should not fail: %v", err)
	}
	if len(res.Recorded) != 1 || res.Recorded[0].Mode != ModeCatch || res.Recorded[0].Index != 1 {
		t.Errorf("unexpected recorded errors %v", res.Recorded)
	}
}

func TestRecode(t *testing.T) {
	fallback := Recode(func(in any, err error) (any, error) {
		return fmt.Sprintf("?%v", in), nil
	})
	res, err := New(Scalar("n", "word", translate, Handle(fallback))).Map(context.Background(), numbers(2, 9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Mapped.Column("word"); !slices.Equal(got, []any{"DOS", "?9"}) {
		t.Fatalf("unexpected column %v", got)
	}
	if len(res.Recorded) != 1 || res.Recorded[0].Mode != ModeRecode {
		t.Errorf("recode should still record the error, got %v", res.Recorded)
	}

	failing := Recode(func(any, error) (any, error) { return nil, errors.New("no fallback") })
	if _, err := New(Scalar("n", "word", translate, Handle(failing))).Map(context.Background(), numbers(9)); err == nil {
		t.Error("a failing recode should abort")
	}
}

func TestCardinalities(t *testing.T) {
	src := table.MustFromRows([]string{"first", "last", "full"}, [][]any{
		{"ada", "lovelace", "grace hopper"},
		{"alan", "turing", "edsger dijkstra"},
	})
	var consumed []any
	m := New(
		Copy("first", "given"),
		Scalar("last", "upper", func(v any) (any, error) { return strings.ToUpper(v.(string)), nil }),
		Combine([]string{"first", "last"}, "name", func(r Row) (any, error) {
			return r["first"].(string) + " " + r["last"].(string), nil
		}),
		Split([]string{"full"}, []string{"f", "l"}, func(r Row) (map[string]any, error) {
			parts := strings.SplitN(r["full"].(string), " ", 2)
			return map[string]any{"f": parts[0], "l": parts[1]}, nil
		}),
		Consume("first", func(v any) error { consumed = append(consumed, v); return nil }),
		Construct("row", func(i int) (any, error) { return i * 10, nil }),
	)

	res, err := m.Map(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"given", "upper", "name", "f", "l", "row"}; !slices.Equal(res.Mapped.Columns(), want) {
		t.Fatalf("columns should follow declaration order, got %v", res.Mapped.Columns())
	}
	row := res.Mapped.Row(1)
	if row["given"] != "alan" || row["upper"] != "TURING" || row["name"] != "alan turing" ||
		row["f"] != "edsger" || row["l"] != "dijkstra" || row["row"] != 10 {
		t.Errorf("unexpected row %v", row)
	}
	if !slices.Equal(consumed, []any{"ada", "alan"}) {
		t.Errorf("consumer saw %v", consumed)
	}
}

func TestOneErrorPerRowPerMap(t *testing.T) {
	src := table.MustFromRows([]string{"a", "b"}, [][]any{{"x", "y"}})
	bad := func(Row) (map[string]any, error) { return nil, errors.New("bad row") }
	res, err := New(Split([]string{"a", "b"}, []string{"c", "d"}, bad, Handle(Warn()))).Map(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Recorded) != 1 {
		t.Fatalf("expected one error, got %d", len(res.Recorded))
	}
	if res.Recorded[0].TypeName != "errorString" || res.Recorded[0].Message != "bad row" {
		t.Errorf("unexpected recorded error %+v", res.Recorded[0])
	}
	if !slices.Equal(res.Recorded[0].Fields, []string{"a", "b"}) {
		t.Errorf("unexpected fields %v", res.Recorded[0].Fields)
	}
}

func TestMissingSourceColumns(t *testing.T) {
	_, err := New(Copy("nope", "x")).Map(context.Background(), numbers(1))
	if !apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFromSchema(t *testing.T) {
	s := schema.MustNew(
		schema.Integer("id", schema.Required()),
		schema.Decimal("price", 5, 2),
	)
	src := table.MustFromRows([]string{"id", "price"}, [][]any{
		{"1", "1.25"},
		{"", "2.00"},
		{"3", "123456.5"},
		{"x", "1"},
		{"5", ""},
	})
	res, err := NewFromSchema(s).Map(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Mapped.Index(), []int{0, 4}) {
		t.Fatalf("expected rows [0 4] to survive, got %v", res.Mapped.Index())
	}
	if res.Mapped.Value(0, "id") != int64(1) || res.Mapped.Value(1, "price") != nil {
		t.Errorf("unexpected mapped rows %v", res.Mapped.Rows())
	}
	if !slices.Equal(res.Excluded, []int{1, 2, 3}) {
		t.Errorf("unexpected excluded %v", res.Excluded)
	}

	types := map[int]string{}
	for _, rec := range res.Recorded {
		types[rec.Index] = rec.TypeName
	}
	if types[1] != "RequiredValueError" || types[2] != "DecimalCoercionError" || types[3] != "CoercionError" {
		t.Errorf("unexpected error types %v", types)
	}
}

func TestRowErrorMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	ctx := context.Background()
	m := New(Scalar("n", "word", translate, Handle(Warn()))).WithMetrics(metrics)
	if _, err := m.Map(ctx, numbers(1, 20, 40)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "flow.mapper.row_errors" {
				continue
			}
			for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("expected 2 row errors recorded, got %d", total)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Exclude "); err != nil || m != ModeExclude {
		t.Errorf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("ignore"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

package schema

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/kbukum/flowkit/errors"
)

func TestDecimalPrecisionEnforcement(t *testing.T) {
	ok := Decimal("pi", 5, 5)
	v, err := ok.Coerce("3.14159")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d, isDec := v.(decimal.Decimal); !isDec || !d.Equal(decimal.RequireFromString("3.14159")) {
		t.Fatalf("expected decimal 3.14159, got %#v", v)
	}

	strict := Decimal("pi", 5, 4)
	_, err = strict.Coerce("3.14159")
	if !apperrors.HasCode(err, apperrors.ErrCodeDecimalCoercion) {
		t.Fatalf("expected decimal coercion error, got %v", err)
	}
	if !apperrors.IsCoercion(err) {
		t.Fatal("decimal coercion error should count as a coercion error")
	}
}

func TestDecimalOptions(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		input   any
		want    string
		wantErr bool
	}{
		{"truncate rounds half even down", Decimal("d", 5, 2, TruncateDecimal()), "1.125", "1.12", false},
		{"truncate rounds half even up", Decimal("d", 5, 2, TruncateDecimal()), "1.135", "1.14", false},
		{"too many integer digits", Decimal("d", 3, 2), "1234.5", "", true},
		{"enforcement disabled", Decimal("d", 1, 1, NoEnforceDecimal()), "1234.567", "1234.567", false},
		{"from int", Decimal("d", 5, 0), 42, "42", false},
		{"from float", Decimal("d", 5, 2), 2.5, "2.5", false},
		{"garbage", Decimal("d", 5, 2), "abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.field.Coerce(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := v.(decimal.Decimal); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDecimalNaNPropagates(t *testing.T) {
	v, err := Decimal("d", 5, 2).Coerce(math.NaN())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f, ok := v.(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("expected NaN unchanged, got %#v", v)
	}
}

func TestBlankValues(t *testing.T) {
	if !IsBlank(nil) || !IsBlank("") || !IsBlank(math.NaN()) {
		t.Fatal("nil, empty string and NaN are blank")
	}
	if IsBlank(false) || IsBlank(0) || IsBlank(0.0) {
		t.Fatal("false and zero are not blank")
	}

	if v, _ := String("s").Coerce(nil); v != "" {
		t.Errorf("string null sentinel should be empty string, got %#v", v)
	}
	if v, _ := Integer("i").Coerce(""); v != nil {
		t.Errorf("integer null sentinel should be nil, got %#v", v)
	}
	if v, _ := Float("f").Coerce(math.NaN()); v != nil {
		t.Errorf("float NaN should coerce to nil, got %#v", v)
	}
	if v, _ := Integer("i", WithNull(int64(-1))).Coerce(nil); v != int64(-1) {
		t.Errorf("expected custom null sentinel, got %#v", v)
	}
	if v, _ := Boolean("b").Coerce(false); v != false {
		t.Errorf("false must coerce to false, got %#v", v)
	}
	if v, _ := Integer("i").Coerce(0); v != int64(0) {
		t.Errorf("zero must coerce to zero, got %#v", v)
	}
}

func TestStringCoerce(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{"abc", "abc"},
		{42, "42"},
		{int64(7), "7"},
		{true, "true"},
		{1.5, "1.5"},
		{decimal.RequireFromString("1.50"), "1.5"},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
	}
	f := String("s")
	for _, tt := range tests {
		v, err := f.Coerce(tt.input)
		if err != nil {
			t.Fatalf("Coerce(%#v): %v", tt.input, err)
		}
		if v != tt.want {
			t.Errorf("Coerce(%#v) = %#v, want %q", tt.input, v, tt.want)
		}
	}
}

func TestIntegerCoerce(t *testing.T) {
	plain := Integer("i")
	lenient := Integer("i", CoerceFloat())

	if v, err := plain.Coerce("42"); err != nil || v != int64(42) {
		t.Fatalf("expected 42, got %v (%v)", v, err)
	}
	if v, err := plain.Coerce(" 007 "); err != nil || v != int64(7) {
		t.Fatalf("expected 7 from padded decimal string, got %v (%v)", v, err)
	}
	if _, err := plain.Coerce("3.7"); !apperrors.HasCode(err, apperrors.ErrCodeCoercion) {
		t.Fatalf("expected coercion error for fractional string, got %v", err)
	}
	if v, err := lenient.Coerce("3.7"); err != nil || v != int64(3) {
		t.Fatalf("expected truncation to 3, got %v (%v)", v, err)
	}
	if v, err := lenient.Coerce(-2.9); err != nil || v != int64(-2) {
		t.Fatalf("expected truncation to -2, got %v (%v)", v, err)
	}
	if _, err := plain.Coerce("twelve"); err == nil {
		t.Fatal("expected error for non-numeric string")
	}

	if _, err := plain.Coerce("3.0"); !apperrors.HasCode(err, apperrors.ErrCodeCoercion) {
		t.Fatalf("expected coercion error for float string, got %v", err)
	}
	if v, err := lenient.Coerce("3.0"); err != nil || v != int64(3) {
		t.Fatalf("expected 3 from float string, got %v (%v)", v, err)
	}

	outOfRange := []any{
		"9223372036854775808",
		"-9223372036854775809",
		9.3e18,
		-1e30,
		decimal.RequireFromString("1e30"),
		decimal.RequireFromString("-9223372036854775809"),
	}
	for _, v := range outOfRange {
		for _, f := range []Field{plain, lenient} {
			if got, err := f.Coerce(v); !apperrors.HasCode(err, apperrors.ErrCodeCoercion) {
				t.Errorf("Coerce(%v) = %v, %v; want coercion error", v, got, err)
			}
		}
	}
	if _, err := lenient.Coerce("1e30"); !apperrors.HasCode(err, apperrors.ErrCodeCoercion) {
		t.Errorf("expected coercion error for 1e30, got %v", err)
	}
	if v, err := plain.Coerce("-9223372036854775808"); err != nil || v != int64(math.MinInt64) {
		t.Errorf("expected min int64, got %v (%v)", v, err)
	}
	if v, err := plain.Coerce(decimal.NewFromInt(math.MaxInt64)); err != nil || v != int64(math.MaxInt64) {
		t.Errorf("expected max int64, got %v (%v)", v, err)
	}

	_, err := plain.Coerce("twelve")
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["value"] != "twelve" || appErr.Details["kind"] != "integer" || appErr.Details["field"] != "i" {
		t.Errorf("expected value, kind and field details, got %v", appErr.Details)
	}
}

func TestFloatCoerce(t *testing.T) {
	f := Float("f")
	if v, err := f.Coerce("2.5"); err != nil || v != 2.5 {
		t.Fatalf("expected 2.5, got %v (%v)", v, err)
	}
	if v, err := f.Coerce(3); err != nil || v != 3.0 {
		t.Fatalf("expected 3.0, got %v (%v)", v, err)
	}
	if _, err := f.Coerce("x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDateCoerce(t *testing.T) {
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	if v, err := Date("d").Coerce("2024-02-29"); err != nil || !v.(time.Time).Equal(want) {
		t.Fatalf("expected %v, got %v (%v)", want, v, err)
	}
	if v, err := Date("d", WithFormat("%d/%m/%Y")).Coerce("29/02/2024"); err != nil || !v.(time.Time).Equal(want) {
		t.Fatalf("expected strftime parse, got %v (%v)", v, err)
	}
	if v, err := Date("d", WithFormat("01/02/2006")).Coerce("02/29/2024"); err != nil || !v.(time.Time).Equal(want) {
		t.Fatalf("expected Go layout parse, got %v (%v)", v, err)
	}
	if _, err := Date("d").Coerce("29/02/2024"); err == nil {
		t.Fatal("expected mismatched format to fail")
	}
	if v, err := Date("d", InferFormat()).Coerce("February 29, 2024"); err != nil || !v.(time.Time).Equal(want) {
		t.Fatalf("expected inferred parse, got %v (%v)", v, err)
	}

	withClock := time.Date(2024, 2, 29, 13, 45, 0, 0, time.UTC)
	if v, err := Date("d").Coerce(withClock); err != nil || !v.(time.Time).Equal(want) {
		t.Fatalf("expected date portion, got %v (%v)", v, err)
	}
}

func TestDateTimeCoerce(t *testing.T) {
	f := DateTime("ts")
	want := time.Date(2024, 2, 29, 13, 45, 10, 0, time.UTC)

	for _, input := range []string{"2024-02-29 13:45:10", "2024-02-29T13:45:10Z", "2024-02-29T13:45:10"} {
		v, err := f.Coerce(input)
		if err != nil {
			t.Fatalf("Coerce(%q): %v", input, err)
		}
		if !v.(time.Time).Equal(want) {
			t.Errorf("Coerce(%q) = %v, want %v", input, v, want)
		}
	}

	date := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if v, err := f.Coerce(date); err != nil || !v.(time.Time).Equal(date) {
		t.Fatalf("expected midnight datetime from date, got %v (%v)", v, err)
	}
	if v, err := f.Coerce("2024-02-29"); err != nil || !v.(time.Time).Equal(date) {
		t.Fatalf("expected midnight datetime from date string, got %v (%v)", v, err)
	}
	if _, err := DateTime("ts", WithFormat("%Y%m%d%H%M")).Coerce("2024-02-29 13:45"); err == nil {
		t.Fatal("expected mismatched format to fail")
	}
}

func TestBooleanCoerce(t *testing.T) {
	f := Boolean("b")
	for _, in := range []any{"t", "TRUE", "Yes", "on", "1", 1, true} {
		if v, err := f.Coerce(in); err != nil || v != true {
			t.Errorf("Coerce(%#v) = %v, %v; want true", in, v, err)
		}
	}
	for _, in := range []any{"f", "False", "NO", "off", "0", 0, false} {
		if v, err := f.Coerce(in); err != nil || v != false {
			t.Errorf("Coerce(%#v) = %v, %v; want false", in, v, err)
		}
	}
	if _, err := f.Coerce("maybe"); !apperrors.IsCoercion(err) {
		t.Errorf("expected coercion error, got %v", err)
	}

	custom := Boolean("b", Truthy("si"), Falsey("non"), UnknownTruthiness(false))
	if v, _ := custom.Coerce("SI"); v != true {
		t.Errorf("expected custom truthy, got %v", v)
	}
	if v, _ := custom.Coerce("yes"); v != false {
		t.Errorf("expected unknown truthiness fallback, got %v", v)
	}
}

func TestJSONCoerce(t *testing.T) {
	f := JSON("payload")
	v, err := f.Coerce(`{"a": [1, 2]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || len(m["a"].([]any)) != 2 {
		t.Fatalf("expected parsed object, got %#v", v)
	}

	native := map[string]any{"k": 1}
	if out, _ := f.Coerce(native); out.(map[string]any)["k"] != 1 {
		t.Fatalf("expected non-strings returned as-is, got %#v", out)
	}
	if _, err := f.Coerce("{broken"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCoerceIdempotent(t *testing.T) {
	cases := []struct {
		field Field
		input any
	}{
		{String("s"), 12},
		{Integer("i", CoerceFloat()), "4.9"},
		{Float("f"), "1.25"},
		{Date("d", WithFormat("%d.%m.%Y")), "01.02.2024"},
		{DateTime("dt"), "2024-01-02 03:04:05"},
		{Boolean("b"), "yes"},
		{Decimal("x", 6, 2, TruncateDecimal()), "12.345"},
		{JSON("j"), `[1, "a"]`},
		{Object("o"), struct{ A int }{1}},
	}
	for _, c := range cases {
		once, err := c.field.Coerce(c.input)
		if err != nil {
			t.Fatalf("%s: first coerce failed: %v", c.field.Kind(), err)
		}
		twice, err := c.field.Coerce(once)
		if err != nil {
			t.Fatalf("%s: second coerce failed: %v", c.field.Kind(), err)
		}
		if !valuesEqual(once, twice) {
			t.Errorf("%s: coerce not idempotent: %#v then %#v", c.field.Kind(), once, twice)
		}
	}
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		return x.Equal(b.(time.Time))
	case decimal.Decimal:
		return x.Equal(b.(decimal.Decimal))
	case []any:
		y := b.([]any)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

func TestStrftimeFormats(t *testing.T) {
	tests := []struct {
		format string
		input  string
		want   time.Time
	}{
		{"%Y-%m-%d", "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"%d/%m/%y %H:%M:%S", "29/02/24 13:45:10", time.Date(2024, 2, 29, 13, 45, 10, 0, time.UTC)},
		{"%b %d, %Y", "Feb 29, 2024", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"%Y%m%d", "20240229", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			v, err := DateTime("ts", WithFormat(tt.format)).Coerce(tt.input)
			if err != nil {
				t.Fatalf("Coerce(%q): %v", tt.input, err)
			}
			if !v.(time.Time).Equal(tt.want) {
				t.Errorf("Coerce(%q) = %v, want %v", tt.input, v, tt.want)
			}
		})
	}

	if !IsStrftime("%Y") || IsStrftime("2006-01-02") {
		t.Error("unexpected IsStrftime result")
	}
	if _, err := Date("d", WithFormat("%d/%m/%Y")).Coerce("2024-02-29"); !apperrors.HasCode(err, apperrors.ErrCodeCoercion) {
		t.Errorf("expected coercion error for mismatched input, got %v", err)
	}
}

func TestInferredDatesAreMemoized(t *testing.T) {
	f := DateTime("ts", InferFormat())
	first, err := f.Coerce("February 28, 2023")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := inferCache.Get("February 28, 2023"); !ok {
		t.Fatal("expected inferred value to be cached")
	}
	second, err := f.Coerce("February 28, 2023")
	if err != nil || !second.(time.Time).Equal(first.(time.Time)) {
		t.Fatalf("expected cached parse %v, got %v (%v)", first, second, err)
	}
}

func TestFieldAccessors(t *testing.T) {
	f := Decimal("amount", 10, 2, Required())
	if f.Kind() != KindDecimal || f.Precision() != 10 || f.Scale() != 2 || !f.Required() {
		t.Fatalf("unexpected accessors: %+v", f)
	}
	if !f.EnforcesDecimal() || f.TruncatesDecimal() {
		t.Fatal("unexpected decimal defaults")
	}

	g := f.With(NoEnforceDecimal())
	if g.EnforcesDecimal() || !f.EnforcesDecimal() {
		t.Fatal("With must copy metadata")
	}
	if (Field{Name: "x", Meta: Metadata{MetaType: "mystery"}}).Kind() != KindObject {
		t.Fatal("unknown tags fall back to object")
	}
}

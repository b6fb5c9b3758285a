package schema

import (
	"maps"

	"github.com/spf13/cast"
)

// Metadata keys understood by Field.
const (
	MetaType              = "ftype"
	MetaNull              = "null"
	MetaRequired          = "required"
	MetaFormat            = "format"
	MetaInferFormat       = "infer_format"
	MetaCoerceFloat       = "coerce_float"
	MetaPrecision         = "precision"
	MetaScale             = "scale"
	MetaEnforceDecimal    = "enforce_decimal"
	MetaTruncateDecimal   = "truncate_decimal"
	MetaTruthy            = "truthy"
	MetaFalsey            = "falsey"
	MetaUnknownTruthiness = "unknown_truthiness"
)

// Default truth value sets for Boolean fields.
var (
	DefaultTruthy = []string{"t", "true", "y", "yes", "on", "1"}
	DefaultFalsey = []string{"f", "false", "n", "no", "off", "0"}
)

// Metadata holds a field's options. Unknown keys are kept and round-tripped.
type Metadata map[string]any

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	return maps.Clone(m)
}

// Field is a typed column descriptor.
type Field struct {
	Name string
	Meta Metadata
}

// Option sets field metadata.
type Option func(Metadata)

// WithFormat sets the parse layout of a Date or DateTime field. Go layouts
// and strftime directives (%Y-%m-%d) are both accepted.
func WithFormat(format string) Option {
	return func(m Metadata) { m[MetaFormat] = format }
}

// InferFormat makes Date and DateTime fields parse strings permissively.
func InferFormat() Option {
	return func(m Metadata) { m[MetaInferFormat] = true }
}

// CoerceFloat lets an Integer field truncate fractional inputs.
func CoerceFloat() Option {
	return func(m Metadata) { m[MetaCoerceFloat] = true }
}

// Required marks the field non-nullable.
func Required() Option {
	return func(m Metadata) { m[MetaRequired] = true }
}

// WithNull overrides the null sentinel.
func WithNull(v any) Option {
	return func(m Metadata) { m[MetaNull] = v }
}

// TruncateDecimal rounds half-even to the field's scale before enforcement.
func TruncateDecimal() Option {
	return func(m Metadata) { m[MetaTruncateDecimal] = true }
}

// NoEnforceDecimal disables precision and scale checks.
func NoEnforceDecimal() Option {
	return func(m Metadata) { m[MetaEnforceDecimal] = false }
}

// Truthy replaces the strings a Boolean field reads as true.
func Truthy(values ...string) Option {
	return func(m Metadata) { m[MetaTruthy] = values }
}

// Falsey replaces the strings a Boolean field reads as false.
func Falsey(values ...string) Option {
	return func(m Metadata) { m[MetaFalsey] = values }
}

// UnknownTruthiness is returned by a Boolean field for unrecognized input
// instead of failing.
func UnknownTruthiness(v any) Option {
	return func(m Metadata) { m[MetaUnknownTruthiness] = v }
}

// WithMeta sets an arbitrary metadata key.
func WithMeta(key string, value any) Option {
	return func(m Metadata) { m[key] = value }
}

// NewField builds a field of the given kind.
func NewField(name string, kind Kind, opts ...Option) Field {
	meta := Metadata{MetaType: string(kind)}
	for _, opt := range opts {
		opt(meta)
	}
	return Field{Name: name, Meta: meta}
}

func String(name string, opts ...Option) Field   { return NewField(name, KindString, opts...) }
func Integer(name string, opts ...Option) Field  { return NewField(name, KindInteger, opts...) }
func Float(name string, opts ...Option) Field    { return NewField(name, KindFloat, opts...) }
func Date(name string, opts ...Option) Field     { return NewField(name, KindDate, opts...) }
func DateTime(name string, opts ...Option) Field { return NewField(name, KindDateTime, opts...) }
func Boolean(name string, opts ...Option) Field  { return NewField(name, KindBoolean, opts...) }
func JSON(name string, opts ...Option) Field     { return NewField(name, KindJSON, opts...) }
func Object(name string, opts ...Option) Field   { return NewField(name, KindObject, opts...) }

// Decimal builds a decimal field with the given precision and scale.
func Decimal(name string, precision, scale int, opts ...Option) Field {
	return NewField(name, KindDecimal, append([]Option{
		WithMeta(MetaPrecision, precision),
		WithMeta(MetaScale, scale),
	}, opts...)...)
}

// With returns a copy of f with opts applied.
func (f Field) With(opts ...Option) Field {
	meta := f.Meta.Clone()
	for _, opt := range opts {
		opt(meta)
	}
	return Field{Name: f.Name, Meta: meta}
}

// Rename returns a copy of f under a new name.
func (f Field) Rename(name string) Field {
	return Field{Name: name, Meta: f.Meta.Clone()}
}

// Kind returns the field's variant; fields without a known tag are objects.
func (f Field) Kind() Kind {
	k, err := ParseKind(cast.ToString(f.Meta[MetaType]))
	if err != nil {
		return KindObject
	}
	return k
}

// Null returns the value blank inputs coerce to.
func (f Field) Null() any {
	if v, ok := f.Meta[MetaNull]; ok {
		return v
	}
	if f.Kind() == KindString {
		return ""
	}
	return nil
}

// IsNull reports whether v equals the field's null sentinel or is blank.
func (f Field) IsNull(v any) bool {
	if IsBlank(v) {
		return true
	}
	null := f.Null()
	if null == nil {
		return false
	}
	s, ok := v.(string)
	ns, nok := null.(string)
	return ok && nok && s == ns
}

func (f Field) Required() bool         { return cast.ToBool(f.Meta[MetaRequired]) }
func (f Field) Format() string         { return cast.ToString(f.Meta[MetaFormat]) }
func (f Field) InfersFormat() bool     { return cast.ToBool(f.Meta[MetaInferFormat]) }
func (f Field) CoercesFloat() bool     { return cast.ToBool(f.Meta[MetaCoerceFloat]) }
func (f Field) Precision() int         { return cast.ToInt(f.Meta[MetaPrecision]) }
func (f Field) Scale() int             { return cast.ToInt(f.Meta[MetaScale]) }
func (f Field) TruncatesDecimal() bool { return cast.ToBool(f.Meta[MetaTruncateDecimal]) }

// EnforcesDecimal reports whether precision and scale are checked (default true).
func (f Field) EnforcesDecimal() bool {
	v, ok := f.Meta[MetaEnforceDecimal]
	if !ok {
		return true
	}
	return cast.ToBool(v)
}

// TruthySet returns the strings read as true.
func (f Field) TruthySet() []string {
	if v, ok := f.Meta[MetaTruthy]; ok {
		return cast.ToStringSlice(v)
	}
	return DefaultTruthy
}

// FalseySet returns the strings read as false.
func (f Field) FalseySet() []string {
	if v, ok := f.Meta[MetaFalsey]; ok {
		return cast.ToStringSlice(v)
	}
	return DefaultFalsey
}

// UnknownTruthiness returns the fallback for unrecognized booleans, if set.
func (f Field) UnknownTruthiness() (any, bool) {
	v, ok := f.Meta[MetaUnknownTruthiness]
	return v, ok
}

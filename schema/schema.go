package schema

import (
	"fmt"
	"reflect"

	apperrors "github.com/kbukum/flowkit/errors"
)

// Schema is an ordered, immutable mapping of field name to Field.
// A nil *Schema behaves as the empty schema.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema; duplicate names are rejected.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, apperrors.Configuration("schema field without a name")
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, apperrors.Configuration(fmt.Sprintf("duplicate schema field %q", f.Name)).
				WithDetail("field", f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, Field{Name: f.Name, Meta: f.Meta.Clone()})
	}
	return s, nil
}

// MustNew is New that panics on error, for package-level declarations.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Empty returns a schema without fields.
func Empty() *Schema {
	return MustNew()
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// IsEmpty reports whether the schema has no fields.
func (s *Schema) IsEmpty() bool { return s.Len() == 0 }

// Has reports whether name is a field.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[name]
	return ok
}

// Lookup returns the named field.
func (s *Schema) Lookup(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].Rename(name), true
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	names := make([]string, 0, s.Len())
	if s == nil {
		return names
	}
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// Fields returns copies of the fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, s.Len())
	if s == nil {
		return out
	}
	for _, f := range s.fields {
		out = append(out, f.Rename(f.Name))
	}
	return out
}

// Required returns the names of non-nullable fields.
func (s *Schema) Required() []string {
	var names []string
	if s == nil {
		return names
	}
	for _, f := range s.fields {
		if f.Required() {
			names = append(names, f.Name)
		}
	}
	return names
}

// Missing returns the names of this schema's fields absent from other.
func (s *Schema) Missing(other *Schema) []string {
	var missing []string
	if s == nil {
		return missing
	}
	for _, f := range s.fields {
		if !other.Has(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Merge returns a new schema with this schema's keys followed by the keys of
// other not present here. Shared keys take a shallow right-wins merge of
// their metadata.
func (s *Schema) Merge(other *Schema) *Schema {
	fields := s.Fields()
	merged := &Schema{index: make(map[string]int, len(fields)+other.Len())}
	for _, f := range fields {
		merged.index[f.Name] = len(merged.fields)
		merged.fields = append(merged.fields, f)
	}
	for _, f := range other.Fields() {
		if i, ok := merged.index[f.Name]; ok {
			meta := merged.fields[i].Meta
			for k, v := range f.Meta {
				meta[k] = v
			}
			continue
		}
		merged.index[f.Name] = len(merged.fields)
		merged.fields = append(merged.fields, f)
	}
	return merged
}

// Select returns a schema restricted to names, in the given order. Unknown
// names are skipped.
func (s *Schema) Select(names ...string) *Schema {
	var fields []Field
	for _, name := range names {
		if f, ok := s.Lookup(name); ok {
			fields = append(fields, f)
		}
	}
	return MustNew(fields...)
}

// Equal reports whether both schemas hold the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	a, b := s.Fields(), other.Fields()
	for i := range a {
		if a[i].Name != b[i].Name || !reflect.DeepEqual(a[i].Meta, b[i].Meta) {
			return false
		}
	}
	return true
}

// Coerce coerces value through the named field. Values for unknown fields
// pass through unchanged.
func (s *Schema) Coerce(name string, value any) (any, error) {
	f, ok := s.Lookup(name)
	if !ok {
		return value, nil
	}
	return f.Coerce(value)
}

// String renders the schema as "name:kind" pairs.
func (s *Schema) String() string {
	out := "{"
	for i, f := range s.Fields() {
		if i > 0 {
			out += ", "
		}
		out += f.Name + ":" + string(f.Kind())
	}
	return out + "}"
}

package mapper

import (
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
)

// FromSchema returns one exclude-mode coercion map per field, followed by an
// exclude-mode null guard for each required field.
func FromSchema(s *schema.Schema) []FieldMap {
	var maps []FieldMap
	for _, f := range s.Fields() {
		maps = append(maps, Scalar(f.Name, f.Name, f.Coerce, Handle(Exclude())))
	}
	for _, f := range s.Fields() {
		if !f.Required() {
			continue
		}
		name := f.Name
		maps = append(maps, Consume(name, func(v any) error {
			if schema.IsBlank(v) {
				return apperrors.RequiredValue(name)
			}
			return nil
		}, Handle(Exclude())))
	}
	return maps
}

// NewFromSchema creates a mapper enforcing s.
func NewFromSchema(s *schema.Schema) *Mapper {
	return New(FromSchema(s)...)
}

package schema

import (
	"fmt"
	"strings"
)

// Kind is the variant tag of a Field.
type Kind string

// Field kinds.
const (
	KindObject   Kind = "object"
	KindString   Kind = "string"
	KindInteger  Kind = "integer"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
	KindFloat    Kind = "float"
	KindDecimal  Kind = "decimal"
	KindBoolean  Kind = "boolean"
	KindJSON     Kind = "json"
)

var kinds = []Kind{
	KindObject, KindString, KindInteger, KindDate, KindDateTime,
	KindFloat, KindDecimal, KindBoolean, KindJSON,
}

// Kinds returns every known kind in tag order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind resolves a variant tag, case-insensitively.
func ParseKind(tag string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(tag)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", tag)
}

package scaffold

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/table"
)

// CaseKeys produces the surrogate ids of one case. Ids share a tag unique
// to the case, so any row can be traced back to the case that produced it.
type CaseKeys struct {
	Tag string
}

// KeyGenerator returns the keys for the case at the given position.
type KeyGenerator func(position int) CaseKeys

// UUIDKeys tags every case with a fresh random id.
func UUIDKeys(int) CaseKeys {
	return CaseKeys{Tag: uuid.NewString()}
}

// ID returns the i-th surrogate id.
func (k CaseKeys) ID(i int) string {
	return fmt.Sprintf("%s-%d", k.Tag, i)
}

// IDs returns the first n surrogate ids.
func (k CaseKeys) IDs(n int) []any {
	ids := make([]any, n)
	for i := range ids {
		ids[i] = k.ID(i)
	}
	return ids
}

// Owns reports whether v is one of this case's ids.
func (k CaseKeys) Owns(v any) bool {
	if v == nil || k.Tag == "" {
		return false
	}
	return strings.HasPrefix(table.FormatValue(v), k.Tag+"-")
}

// Collector slices merged outputs back to single cases.
type Collector struct {
	keys map[string]string
}

// NewCollector creates a collector for the given subject to key field mapping.
func NewCollector(keys map[string]string) *Collector {
	return &Collector{keys: keys}
}

// Collect returns the rows of t that belong to the case. Subjects without
// a key field, or tables lacking it, are returned whole.
func (c *Collector) Collect(subject string, t *table.Table, k CaseKeys) *table.Table {
	field, ok := c.keys[subject]
	if !ok || !t.Has(field) {
		return t
	}
	return t.Filter(func(_ int, row map[string]any) bool { return k.Owns(row[field]) })
}

package table

import (
	"fmt"
	"slices"

	"github.com/kbukum/flowkit/schema"
)

// Table is an ordered set of equal-length columns with row index labels.
// A nil *Table is empty.
type Table struct {
	columns []string
	data    map[string][]any
	index   []int
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{data: make(map[string][]any, len(columns))}
	for _, c := range columns {
		if _, dup := t.data[c]; dup {
			continue
		}
		t.columns = append(t.columns, c)
		t.data[c] = []any{}
	}
	return t
}

// Empty creates an empty table carrying the schema's columns.
func Empty(s *schema.Schema) *Table {
	return New(s.Names()...)
}

// FromRows builds a table from positional rows. Labels are 0..n-1.
func FromRows(columns []string, rows [][]any) (*Table, error) {
	t := New(columns...)
	if len(t.columns) != len(columns) {
		return nil, fmt.Errorf("table: duplicate column in %v", columns)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("table: row %d has %d values, expected %d", i, len(row), len(columns))
		}
		for j, c := range columns {
			t.data[c] = append(t.data[c], row[j])
		}
		t.index = append(t.index, i)
	}
	return t, nil
}

// MustFromRows is FromRows that panics on error.
func MustFromRows(columns []string, rows [][]any) *Table {
	t, err := FromRows(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from row maps; columns are given explicitly so
// order is stable. Missing keys become nil.
func FromRecords(columns []string, records []map[string]any) *Table {
	t := New(columns...)
	for _, r := range records {
		t.AppendRow(r)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.index)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.columns)
}

// Has reports whether the table has the column.
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	_, ok := t.data[column]
	return ok
}

// Column returns a copy of a column's values, or nil when absent.
func (t *Table) Column(column string) []any {
	if !t.Has(column) {
		return nil
	}
	return slices.Clone(t.data[column])
}

// Value returns the value at row position pos. Absent columns read as nil.
func (t *Table) Value(pos int, column string) any {
	if !t.Has(column) {
		return nil
	}
	return t.data[column][pos]
}

// Row returns the row at position pos as a map.
func (t *Table) Row(pos int) map[string]any {
	row := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		row[c] = t.data[c][pos]
	}
	return row
}

// Rows returns every row as a map, in order.
func (t *Table) Rows() []map[string]any {
	rows := make([]map[string]any, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Values returns the row at pos as a slice in column order.
func (t *Table) Values(pos int) []any {
	out := make([]any, len(t.columns))
	for j, c := range t.columns {
		out[j] = t.data[c][pos]
	}
	return out
}

// Index returns the row labels.
func (t *Table) Index() []int {
	if t == nil {
		return nil
	}
	return slices.Clone(t.index)
}

// Label returns the label of the row at position pos.
func (t *Table) Label(pos int) int { return t.index[pos] }

// Position returns the position of the first row labelled label.
func (t *Table) Position(label int) (int, bool) {
	if t == nil {
		return 0, false
	}
	pos := slices.Index(t.index, label)
	return pos, pos >= 0
}

// AppendRow appends a row labelled one past the largest label.
func (t *Table) AppendRow(values map[string]any) {
	label := 0
	if len(t.index) > 0 {
		label = slices.Max(t.index) + 1
	}
	t.AppendLabelled(label, values)
}

// AppendLabelled appends a row with an explicit label. Keys that are not
// columns add a column, back-filled with nil.
func (t *Table) AppendLabelled(label int, values map[string]any) {
	if t.data == nil {
		t.data = make(map[string][]any)
	}
	for _, c := range sortedKeys(values) {
		if _, ok := t.data[c]; !ok {
			t.columns = append(t.columns, c)
			t.data[c] = make([]any, len(t.index))
		}
	}
	for _, c := range t.columns {
		t.data[c] = append(t.data[c], values[c])
	}
	t.index = append(t.index, label)
}

// SetColumn replaces or appends a column. The value count must match Len.
func (t *Table) SetColumn(column string, values []any) error {
	if len(values) != t.Len() {
		return fmt.Errorf("table: column %q has %d values, expected %d", column, len(values), t.Len())
	}
	if t.data == nil {
		t.data = make(map[string][]any)
	}
	if _, ok := t.data[column]; !ok {
		t.columns = append(t.columns, column)
	}
	t.data[column] = slices.Clone(values)
	return nil
}

// Set writes a single cell.
func (t *Table) Set(pos int, column string, value any) {
	t.data[column][pos] = value
}

// Take returns the rows at the given positions, keeping their labels.
func (t *Table) Take(positions []int) *Table {
	out := New(t.Columns()...)
	for _, p := range positions {
		for _, c := range t.columns {
			out.data[c] = append(out.data[c], t.data[c][p])
		}
		out.index = append(out.index, t.index[p])
	}
	return out
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(pos int, row map[string]any) bool) *Table {
	var positions []int
	for i := 0; i < t.Len(); i++ {
		if keep(i, t.Row(i)) {
			positions = append(positions, i)
		}
	}
	return t.Take(positions)
}

// DropIndex removes the rows carrying any of the given labels.
func (t *Table) DropIndex(labels ...int) *Table {
	drop := make(map[int]bool, len(labels))
	for _, l := range labels {
		drop[l] = true
	}
	return t.Filter(func(pos int, _ map[string]any) bool { return !drop[t.index[pos]] })
}

// KeepIndex keeps only the rows carrying one of the given labels.
func (t *Table) KeepIndex(labels ...int) *Table {
	keep := make(map[int]bool, len(labels))
	for _, l := range labels {
		keep[l] = true
	}
	return t.Filter(func(pos int, _ map[string]any) bool { return keep[t.index[pos]] })
}

// Reindex returns a copy labelled 0..n-1.
func (t *Table) Reindex() *Table {
	out := t.Clone()
	for i := range out.index {
		out.index[i] = i
	}
	return out
}

// Select returns the named columns in the given order. Absent columns are
// filled with nil.
func (t *Table) Select(columns ...string) *Table {
	out := New(columns...)
	out.index = t.Index()
	for _, c := range out.columns {
		if t.Has(c) {
			out.data[c] = slices.Clone(t.data[c])
		} else {
			out.data[c] = make([]any, t.Len())
		}
	}
	return out
}

// Drop returns a copy without the named columns.
func (t *Table) Drop(columns ...string) *Table {
	var keep []string
	for _, c := range t.Columns() {
		if !slices.Contains(columns, c) {
			keep = append(keep, c)
		}
	}
	return t.Select(keep...)
}

// Rename returns a copy with columns renamed per mapping.
func (t *Table) Rename(mapping map[string]string) *Table {
	out := &Table{data: make(map[string][]any, len(t.columns)), index: t.Index()}
	for _, c := range t.columns {
		name := c
		if to, ok := mapping[c]; ok {
			name = to
		}
		out.columns = append(out.columns, name)
		out.data[name] = slices.Clone(t.data[c])
	}
	return out
}

// Clone returns a deep copy of the table structure. Cell values are copied
// by assignment.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		columns: slices.Clone(t.columns),
		data:    make(map[string][]any, len(t.data)),
		index:   slices.Clone(t.index),
	}
	for c, v := range t.data {
		out.data[c] = slices.Clone(v)
	}
	if out.index == nil {
		out.index = []int{}
	}
	return out
}

// Concat stacks tables. Columns are the union in first-seen order; cells
// for columns a table lacks are nil. Labels are kept as-is.
func Concat(tables ...*Table) *Table {
	var columns []string
	for _, t := range tables {
		for _, c := range t.Columns() {
			if !slices.Contains(columns, c) {
				columns = append(columns, c)
			}
		}
	}
	out := New(columns...)
	for _, t := range tables {
		for _, c := range columns {
			if t.Has(c) {
				out.data[c] = append(out.data[c], t.data[c]...)
			} else {
				out.data[c] = append(out.data[c], make([]any, t.Len())...)
			}
		}
		out.index = append(out.index, t.Index()...)
	}
	return out
}

// Equal reports whether both tables have the same columns and row values,
// compared with ValuesEqual. Labels are ignored.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() || !slices.Equal(t.Columns(), other.Columns()) {
		return false
	}
	for _, c := range t.Columns() {
		for i := 0; i < t.Len(); i++ {
			if !ValuesEqual(t.data[c][i], other.data[c][i]) {
				return false
			}
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

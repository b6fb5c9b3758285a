package mapper

import "github.com/kbukum/flowkit/table"

// Row is the named input of a multi-source map.
type Row map[string]any

type cardinality int

const (
	copyMap cardinality = iota
	scalarMap
	combineMap
	splitMap
	consumeMap
	constructMap
)

func (c cardinality) String() string {
	return [...]string{"copy", "scalar", "combine", "split", "consume", "construct"}[c]
}

// FieldMap is one transform from source columns to target columns.
type FieldMap struct {
	Sources []string
	Targets []string
	Handler RowHandler

	kind      cardinality
	scalar    func(any) (any, error)
	combine   func(Row) (any, error)
	split     func(Row) (map[string]any, error)
	consume   func(any) error
	construct func(index int) (any, error)
}

// MapOption configures a FieldMap.
type MapOption func(*FieldMap)

// Handle sets the map's row handler. The default is Raise.
func Handle(h RowHandler) MapOption {
	return func(m *FieldMap) { m.Handler = h }
}

func build(m FieldMap, opts []MapOption) FieldMap {
	m.Handler = Raise()
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Copy copies src to tgt unchanged.
func Copy(src, tgt string, opts ...MapOption) FieldMap {
	return build(FieldMap{Sources: []string{src}, Targets: []string{tgt}, kind: copyMap}, opts)
}

// Scalar applies fn to each value of src.
func Scalar(src, tgt string, fn func(any) (any, error), opts ...MapOption) FieldMap {
	return build(FieldMap{Sources: []string{src}, Targets: []string{tgt}, kind: scalarMap, scalar: fn}, opts)
}

// Combine reduces several source columns to one target column.
func Combine(srcs []string, tgt string, fn func(Row) (any, error), opts ...MapOption) FieldMap {
	return build(FieldMap{Sources: srcs, Targets: []string{tgt}, kind: combineMap, combine: fn}, opts)
}

// Split produces several target columns. fn returns one value per target;
// targets it omits are null.
func Split(srcs, tgts []string, fn func(Row) (map[string]any, error), opts ...MapOption) FieldMap {
	return build(FieldMap{Sources: srcs, Targets: tgts, kind: splitMap, split: fn}, opts)
}

// Consume calls fn for each value of src and produces no column.
func Consume(src string, fn func(any) error, opts ...MapOption) FieldMap {
	return build(FieldMap{Sources: []string{src}, kind: consumeMap, consume: fn}, opts)
}

// Construct builds tgt from each row's index label alone.
func Construct(tgt string, fn func(index int) (any, error), opts ...MapOption) FieldMap {
	return build(FieldMap{Targets: []string{tgt}, kind: constructMap, construct: fn}, opts)
}

// input returns what the transform reads for row pos: the single source
// value, or a Row for multi-source maps.
func (m FieldMap) input(src *table.Table, pos int) any {
	switch m.kind {
	case copyMap, scalarMap, consumeMap:
		return src.Value(pos, m.Sources[0])
	case constructMap:
		return src.Label(pos)
	}
	row := make(Row, len(m.Sources))
	for _, c := range m.Sources {
		row[c] = src.Value(pos, c)
	}
	return row
}

// apply runs the transform and returns one value per target.
func (m FieldMap) apply(in any) ([]any, error) {
	switch m.kind {
	case copyMap:
		return []any{in}, nil
	case scalarMap:
		v, err := m.scalar(in)
		return []any{v}, err
	case combineMap:
		v, err := m.combine(in.(Row))
		return []any{v}, err
	case splitMap:
		out, err := m.split(in.(Row))
		if err != nil {
			return nil, err
		}
		return m.spread(out), nil
	case consumeMap:
		return nil, m.consume(in)
	case constructMap:
		v, err := m.construct(in.(int))
		return []any{v}, err
	}
	return nil, nil
}

// spread lays a recoded or split value out over the targets. A map assigns
// per target; any other value fills every target.
func (m FieldMap) spread(v any) []any {
	out := make([]any, len(m.Targets))
	if byName, ok := v.(map[string]any); ok {
		for i, t := range m.Targets {
			out[i] = byName[t]
		}
		return out
	}
	for i := range out {
		out[i] = v
	}
	return out
}

// fields names the columns an error on this map concerns.
func (m FieldMap) fields() []string {
	if len(m.Sources) > 0 {
		return m.Sources
	}
	return m.Targets
}

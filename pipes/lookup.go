package pipes

import (
	"context"
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/mapper"
	"github.com/kbukum/flowkit/pipe"
	"github.com/kbukum/flowkit/table"
)

// MissingHandler decides what happens to main rows without a lookup match.
type MissingHandler string

const (
	// MissingExclude drops unmatched rows from "main" and reports them on "errors".
	MissingExclude MissingHandler = "exclude"
	// MissingIgnore keeps unmatched rows, filling lookup columns with Fillna.
	MissingIgnore MissingHandler = "ignore"
	// MissingRaise fails the flow on the first unmatched row.
	MissingRaise MissingHandler = "raise"
)

// ParseMissingHandler parses a handler name.
func ParseMissingHandler(s string) (MissingHandler, error) {
	switch h := MissingHandler(strings.ToLower(strings.TrimSpace(s))); h {
	case MissingExclude, MissingIgnore, MissingRaise:
		return h, nil
	}
	return "", apperrors.Configuration(fmt.Sprintf("unknown missing handler %q", s))
}

// Lookup left-joins source "lookup" onto source "main". When the lookup
// holds several rows for a key the first one wins.
type Lookup struct {
	*pipe.Pipe
	// On lists the key columns of "main".
	On []string
	// LookupOn lists the matching key columns of "lookup". Defaults to On.
	LookupOn []string
	// Fields lists the lookup columns to bring over. Defaults to every
	// lookup column that is neither a key nor already in "main".
	Fields  []string
	Missing MissingHandler
	Fillna  any

	log *logger.Logger
}

// LookupOption configures a Lookup.
type LookupOption func(*Lookup)

// LookupKeys sets the key columns of the lookup source.
func LookupKeys(cols ...string) LookupOption {
	return func(l *Lookup) { l.LookupOn = cols }
}

// LookupFields restricts the columns brought over from the lookup.
func LookupFields(cols ...string) LookupOption {
	return func(l *Lookup) { l.Fields = cols }
}

// OnMissing sets the missing-key handler.
func OnMissing(h MissingHandler) LookupOption {
	return func(l *Lookup) { l.Missing = h }
}

// Fillna sets the value used for lookup columns of unmatched rows.
func Fillna(v any) LookupOption {
	return func(l *Lookup) { l.Fillna = v }
}

// NewLookup creates a lookup joining on the given main key columns.
// Unmatched rows are excluded unless configured otherwise.
func NewLookup(name string, on []string, opts ...LookupOption) *Lookup {
	l := &Lookup{
		Pipe:    pipe.New(name),
		On:      on,
		Missing: MissingExclude,
		log:     logger.Get("lookup"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.MustAddSource(Main, nil)
	l.MustAddSource(LookupPort, nil)
	l.MustAddTarget(Main, nil)
	l.MustAddTarget(Errors, nil)
	return l
}

func (l *Lookup) rightKeys() []string {
	if len(l.LookupOn) > 0 {
		return l.LookupOn
	}
	return l.On
}

func (l *Lookup) fields(main, lookup *table.Table) []string {
	if len(l.Fields) > 0 {
		return l.Fields
	}
	keys := l.rightKeys()
	var out []string
	for _, c := range lookup.Columns() {
		if !slices.Contains(keys, c) && !main.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (l *Lookup) validate(main, lookup *table.Table) error {
	right := l.rightKeys()
	if len(l.On) == 0 || len(right) != len(l.On) {
		return apperrors.Configuration("lookup keys must be non-empty and pair up").
			WithDetail(logger.FieldPipe, l.Name())
	}
	var missing []string
	for _, c := range l.On {
		if !main.Has(c) {
			missing = append(missing, Main+"."+c)
		}
	}
	for _, c := range right {
		if !lookup.Has(c) {
			missing = append(missing, LookupPort+"."+c)
		}
	}
	if len(missing) > 0 {
		return apperrors.Configuration("lookup is missing key columns: "+strings.Join(missing, ", ")).
			WithDetail(logger.FieldPipe, l.Name())
	}
	return nil
}

// key renders a row key. Rows with a null key part never match.
func key(t *table.Table, pos int, cols []string) (string, []any, bool) {
	parts := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, c := range cols {
		v := t.Value(pos, c)
		if v == nil {
			return "", nil, false
		}
		values[i] = v
		parts[i] = table.FormatValue(v)
	}
	return strings.Join(parts, "\x1f"), values, true
}

// Flow performs the join.
func (l *Lookup) Flow(ctx context.Context) error {
	main, err := l.Source(Main).ToTable(ctx)
	if err != nil {
		return err
	}
	lookup, err := l.Source(LookupPort).ToTable(ctx)
	if err != nil {
		return err
	}
	if err := l.validate(main, lookup); err != nil {
		return err
	}

	index := make(map[string]int, lookup.Len())
	for pos := 0; pos < lookup.Len(); pos++ {
		if k, _, ok := key(lookup, pos, l.rightKeys()); ok {
			if _, seen := index[k]; !seen {
				index[k] = pos
			}
		}
	}

	fields := l.fields(main, lookup)
	out := table.New(append(main.Columns(), fields...)...)
	var recorded []mapper.RecordedError
	for pos := 0; pos < main.Len(); pos++ {
		row := main.Row(pos)
		k, values, ok := key(main, pos, l.On)
		match, found := index[k]
		if ok && found {
			for _, f := range fields {
				row[f] = lookup.Value(match, f)
			}
			out.AppendLabelled(main.Label(pos), row)
			continue
		}

		missErr := apperrors.MissingKey(l.Name(), values).WithDetail(logger.FieldRow, main.Label(pos))
		switch l.Missing {
		case MissingRaise:
			return missErr
		case MissingIgnore:
			for _, f := range fields {
				row[f] = l.Fillna
			}
			out.AppendLabelled(main.Label(pos), row)
		default:
			recorded = append(recorded, mapper.RecordedError{
				Mode:     mapper.ModeExclude,
				Index:    main.Label(pos),
				TypeName: apperrors.TypeName(missErr),
				Message:  missErr.Message,
				Fields:   l.On,
				Err:      missErr,
			})
		}
	}

	if len(recorded) > 0 {
		l.log.WithPipe(l.Name()).Debug("Lookup excluded rows", logger.Fields(logger.FieldCount, len(recorded)))
	}
	if err := l.Target(Main).FromTable(ctx, out); err != nil {
		return err
	}
	return l.Target(Errors).FromTable(ctx, mapper.ErrorsTable(recorded, main))
}

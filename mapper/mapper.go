package mapper

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/flowkit/config"
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/table"
)

// Columns of the errors table, ahead of the joined source columns.
const (
	ColMode     = "mode"
	ColTypeName = "type_name"
	ColMessage  = "message"
	ColFields   = "fields"
)

// ErrorColumns lists the fixed errors table columns in order.
var ErrorColumns = []string{ColMode, ColTypeName, ColMessage, ColFields}

// Mapper applies field maps to a source table.
type Mapper struct {
	Maps []FieldMap
	// RaiseErrors fails Map when catch-mode errors remain. Defaults to true.
	RaiseErrors bool
	// Metrics, when set, receives row error counts per mode.
	Metrics *observability.Metrics

	log *logger.Logger
}

// Result is the outcome of a Map call.
type Result struct {
	// Mapped holds the target columns for surviving rows, labelled by their
	// source index.
	Mapped *table.Table
	// Errors holds one row per recorded error, labelled by source index and
	// joined with the source columns.
	Errors   *table.Table
	Recorded []RecordedError
	// Excluded lists the source labels dropped by exclude-mode errors.
	Excluded []int
}

// New creates a mapper that raises on leftover caught errors.
func New(maps ...FieldMap) *Mapper {
	return &Mapper{Maps: maps, RaiseErrors: true, log: logger.Get("mapper")}
}

// Suppress stops leftover catch-mode errors from failing Map.
func (m *Mapper) Suppress() *Mapper {
	m.RaiseErrors = false
	return m
}

// Configure applies mapper settings from a flow configuration.
func (m *Mapper) Configure(cfg config.MapperConfig) *Mapper {
	m.RaiseErrors = !cfg.SuppressCaught
	return m
}

// WithMetrics reports row error counts to metrics.
func (m *Mapper) WithMetrics(metrics *observability.Metrics) *Mapper {
	m.Metrics = metrics
	return m
}

// Targets returns the target columns in declaration order.
func (m *Mapper) Targets() []string {
	var cols []string
	for _, fm := range m.Maps {
		for _, t := range fm.Targets {
			if !slices.Contains(cols, t) {
				cols = append(cols, t)
			}
		}
	}
	return cols
}

// Map runs every field map over src. A raise-mode failure returns that error
// and no result. When RaiseErrors is set and catch-mode errors were recorded,
// Map returns the complete result together with an uncaught mapping error.
func (m *Mapper) Map(ctx context.Context, src *table.Table) (*Result, error) {
	if missing := m.missingSources(src); len(missing) > 0 {
		return nil, apperrors.Configuration(
			fmt.Sprintf("mapper source is missing columns: %s", strings.Join(missing, ", "))).
			WithDetail("fields", missing)
	}
	log := m.log
	if log == nil {
		log = logger.Get("mapper")
	}

	n := src.Len()
	targets := m.Targets()
	outputs := make(map[string][]any, len(targets))
	for _, t := range targets {
		outputs[t] = make([]any, n)
	}
	excluded := make([]bool, n)
	var recorded []RecordedError
	counts := make(map[Mode]int)

	for _, fm := range m.Maps {
		for pos := 0; pos < n; pos++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			in := fm.input(src, pos)
			values, err := fm.apply(in)
			if err == nil {
				for i, t := range fm.Targets {
					outputs[t][pos] = values[i]
				}
				continue
			}

			label := src.Label(pos)
			if fm.Handler.Mode == ModeRaise || fm.Handler.Mode == "" {
				return nil, annotate(err, label, fm.fields())
			}

			rec := RecordedError{
				Mode:     fm.Handler.Mode,
				Index:    label,
				TypeName: apperrors.TypeName(err),
				Message:  message(err),
				Fields:   fm.fields(),
				Err:      err,
			}
			recorded = append(recorded, rec)
			counts[rec.Mode]++

			var substitute []any
			switch fm.Handler.Mode {
			case ModeRecode:
				if fm.Handler.Recode == nil {
					return nil, apperrors.Configuration("recode handler has no recode function")
				}
				v, rerr := fm.Handler.Recode(in, err)
				if rerr != nil {
					return nil, annotate(rerr, label, fm.fields())
				}
				substitute = fm.spread(v)
			case ModeWarn:
				log.Warn("Row error", logger.Fields(
					logger.FieldRow, label,
					logger.FieldField, strings.Join(rec.Fields, ","),
					logger.FieldMode, string(rec.Mode),
					logger.FieldError, rec.Message,
				))
			case ModeExclude:
				excluded[pos] = true
			}
			for i, t := range fm.Targets {
				var v any
				if substitute != nil {
					v = substitute[i]
				}
				outputs[t][pos] = v
			}
		}
	}

	res := &Result{Recorded: recorded}
	var keep []int
	for pos := 0; pos < n; pos++ {
		if excluded[pos] {
			res.Excluded = append(res.Excluded, src.Label(pos))
			continue
		}
		keep = append(keep, pos)
	}
	res.Mapped = mappedTable(targets, outputs, src, keep)
	res.Errors = ErrorsTable(recorded, src)

	if m.Metrics != nil {
		for mode, c := range counts {
			m.Metrics.RecordRowErrors(ctx, string(mode), c)
		}
	}
	if m.RaiseErrors && counts[ModeCatch] > 0 {
		return res, apperrors.UncaughtMapping(counts[ModeCatch])
	}
	return res, nil
}

func (m *Mapper) missingSources(src *table.Table) []string {
	var missing []string
	for _, fm := range m.Maps {
		for _, c := range fm.Sources {
			if !src.Has(c) && !slices.Contains(missing, c) {
				missing = append(missing, c)
			}
		}
	}
	return missing
}

func mappedTable(targets []string, outputs map[string][]any, src *table.Table, keep []int) *table.Table {
	out := table.New(targets...)
	for _, pos := range keep {
		row := make(map[string]any, len(targets))
		for _, t := range targets {
			row[t] = outputs[t][pos]
		}
		out.AppendLabelled(src.Label(pos), row)
	}
	return out
}

// SourcePrefix is prepended to source columns whose names clash with the
// errors table columns.
const SourcePrefix = "source_"

// ErrorsTable builds the errors table for recorded failures of src rows.
// Source columns follow ErrorColumns; a source column named like one of them
// is kept under SourcePrefix + name.
func ErrorsTable(recorded []RecordedError, src *table.Table) *table.Table {
	srcCols := src.Columns()
	taken := make(map[string]bool, len(ErrorColumns)+len(srcCols))
	for _, c := range ErrorColumns {
		taken[c] = true
	}
	for _, c := range srcCols {
		if !slices.Contains(ErrorColumns, c) {
			taken[c] = true
		}
	}

	cols := slices.Clone(ErrorColumns)
	names := make([]string, len(srcCols))
	for i, c := range srcCols {
		name := c
		if slices.Contains(ErrorColumns, c) {
			name = SourcePrefix + c
			for taken[name] {
				name = SourcePrefix + name
			}
			taken[name] = true
		}
		names[i] = name
		cols = append(cols, name)
	}

	out := table.New(cols...)
	for _, rec := range recorded {
		pos, _ := src.Position(rec.Index)
		row := make(map[string]any, len(cols))
		for i, c := range srcCols {
			row[names[i]] = src.Value(pos, c)
		}
		row[ColMode] = string(rec.Mode)
		row[ColTypeName] = rec.TypeName
		row[ColMessage] = rec.Message
		row[ColFields] = strings.Join(rec.Fields, ",")
		out.AppendLabelled(rec.Index, row)
	}
	return out
}

func message(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// annotate tags an error with the failing row and fields.
func annotate(err error, label int, fields []string) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.
			WithDetail(logger.FieldRow, label).
			WithDetail(logger.FieldField, strings.Join(fields, ","))
	}
	return apperrors.Internal(err).
		WithDetail(logger.FieldRow, label).
		WithDetail(logger.FieldField, strings.Join(fields, ","))
}

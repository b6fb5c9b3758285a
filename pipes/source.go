package pipes

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/mapper"
	"github.com/kbukum/flowkit/pipe"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// Extractor brings external data into a graph. Extract fetches the raw
// payload; Parse turns it into a table.
type Extractor interface {
	Extract(ctx context.Context) (any, error)
	Parse(ctx context.Context, raw any) (*table.Table, error)
}

// ExtractorFuncs adapts a pair of functions to Extractor.
type ExtractorFuncs struct {
	ExtractFunc func(ctx context.Context) (any, error)
	ParseFunc   func(ctx context.Context, raw any) (*table.Table, error)
}

func (e ExtractorFuncs) Extract(ctx context.Context) (any, error) {
	if e.ExtractFunc == nil {
		return nil, nil
	}
	return e.ExtractFunc(ctx)
}

func (e ExtractorFuncs) Parse(ctx context.Context, raw any) (*table.Table, error) {
	if e.ParseFunc == nil {
		t, ok := raw.(*table.Table)
		if !ok {
			return nil, fmt.Errorf("pipes: cannot parse %T without a parse function", raw)
		}
		return t, nil
	}
	return e.ParseFunc(ctx, raw)
}

// Source is a pipe without inputs. Parsed rows are coerced to the schema of
// target "main"; rows failing coercion go to target "errors".
type Source struct {
	*pipe.Pipe
	Extractor Extractor

	log *logger.Logger
}

// NewSource creates a source pipe. A nil or empty schema passes parsed rows
// through unchanged.
func NewSource(name string, ex Extractor, s *schema.Schema) *Source {
	src := &Source{Pipe: pipe.New(name), Extractor: ex, log: logger.Get("source")}
	src.MustAddTarget(Main, s)
	src.MustAddTarget(Errors, nil)
	return src
}

// Flow extracts, parses and enforces.
func (s *Source) Flow(ctx context.Context) error {
	raw, err := s.Extractor.Extract(ctx)
	if err != nil {
		return err
	}
	parsed, err := s.Extractor.Parse(ctx, raw)
	if err != nil {
		return err
	}

	main, errs := parsed, mapper.ErrorsTable(nil, parsed)
	if sch := s.Target(Main).Schema(); sch.Len() > 0 {
		res, err := mapper.NewFromSchema(sch).Map(ctx, parsed)
		if err != nil {
			return err
		}
		main, errs = res.Mapped, res.Errors
	}

	s.log.WithPipe(s.Name()).Debug("Source extracted", logger.Fields(
		logger.FieldCount, main.Len(),
		"errors", errs.Len(),
	))
	if err := s.Target(Main).FromTable(ctx, main); err != nil {
		return err
	}
	return s.Target(Errors).FromTable(ctx, errs)
}

type literal struct {
	text string
}

func (l literal) Extract(context.Context) (any, error) { return l.text, nil }

func (l literal) Parse(_ context.Context, raw any) (*table.Table, error) {
	return table.ParseLiteral(raw.(string), nil)
}

// NewLiteral creates a source emitting a tabular literal. Cells are parsed
// as strings and then coerced to s, so bad cells land on "errors".
func NewLiteral(name, text string, s *schema.Schema) *Source {
	return NewSource(name, literal{text: text}, s)
}

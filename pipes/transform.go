package pipes

import (
	"context"

	"github.com/kbukum/flowkit/mapper"
	"github.com/kbukum/flowkit/pipe"
	"github.com/kbukum/flowkit/schema"
)

// Transform runs a mapper over source "main". Mapped rows go to target
// "main" and recorded row failures to target "errors".
type Transform struct {
	*pipe.Pipe
	Mapper *mapper.Mapper
}

// NewTransform creates a transform. The target schema, when given, is the
// declared shape of the mapped output.
func NewTransform(name string, m *mapper.Mapper, target *schema.Schema) *Transform {
	t := &Transform{Pipe: pipe.New(name), Mapper: m}
	t.MustAddSource(Main, nil)
	t.MustAddTarget(Main, target)
	t.MustAddTarget(Errors, nil)
	return t
}

// NewEnforce creates a transform that coerces every row to s. Rows failing
// coercion are excluded from "main" and reported on "errors".
func NewEnforce(name string, s *schema.Schema) *Transform {
	return NewTransform(name, mapper.NewFromSchema(s), s)
}

// Flow maps the input. When the mapper reports uncaught errors the outputs
// are still written before the error is returned.
func (t *Transform) Flow(ctx context.Context) error {
	in, err := t.Source(Main).ToTable(ctx)
	if err != nil {
		return err
	}
	res, err := t.Mapper.Map(ctx, in)
	if res == nil {
		return err
	}
	if werr := t.Target(Main).FromTable(ctx, res.Mapped); werr != nil {
		return werr
	}
	if werr := t.Target(Errors).FromTable(ctx, res.Errors); werr != nil {
		return werr
	}
	return err
}

package pipes

import (
	"context"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/pipe"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// Loader hands graph output to an external system. Encode prepares the
// payload; Load delivers it and reports what happened as a table.
type Loader interface {
	Encode(ctx context.Context, t *table.Table) (any, error)
	Load(ctx context.Context, encoded any) (*table.Table, error)
}

// LoaderFuncs adapts a pair of functions to Loader. A nil EncodeFunc passes
// the table through.
type LoaderFuncs struct {
	EncodeFunc func(ctx context.Context, t *table.Table) (any, error)
	LoadFunc   func(ctx context.Context, encoded any) (*table.Table, error)
}

func (l LoaderFuncs) Encode(ctx context.Context, t *table.Table) (any, error) {
	if l.EncodeFunc == nil {
		return t, nil
	}
	return l.EncodeFunc(ctx, t)
}

func (l LoaderFuncs) Load(ctx context.Context, encoded any) (*table.Table, error) {
	if l.LoadFunc == nil {
		return nil, nil
	}
	return l.LoadFunc(ctx, encoded)
}

// Target is a pipe without outputs besides the loader response.
type Target struct {
	*pipe.Pipe
	Loader Loader

	log *logger.Logger
}

// NewTarget creates a target pipe whose source "main" requires s.
func NewTarget(name string, l Loader, s *schema.Schema) *Target {
	t := &Target{Pipe: pipe.New(name), Loader: l, log: logger.Get("target")}
	t.MustAddSource(Main, s)
	t.MustAddTarget(LoadResponse, nil)
	return t
}

// Flow encodes and loads source "main".
func (t *Target) Flow(ctx context.Context) error {
	in, err := t.Source(Main).ToTable(ctx)
	if err != nil {
		return err
	}
	encoded, err := t.Loader.Encode(ctx, in)
	if err != nil {
		return err
	}
	resp, err := t.Loader.Load(ctx, encoded)
	if err != nil {
		return err
	}
	if resp == nil {
		resp = table.New()
	}
	t.log.WithPipe(t.Name()).Debug("Target loaded", logger.Fields(logger.FieldCount, in.Len()))
	return t.Target(LoadResponse).FromTable(ctx, resp)
}

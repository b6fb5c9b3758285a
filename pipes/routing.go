package pipes

import (
	"context"

	"github.com/kbukum/flowkit/pipe"
	"github.com/kbukum/flowkit/table"
)

// Fork copies source "main" to every named target.
type Fork struct {
	*pipe.Pipe
}

// NewFork creates a fork with the given targets.
func NewFork(name string, targets ...string) *Fork {
	f := &Fork{Pipe: pipe.New(name)}
	f.MustAddSource(Main, nil)
	for _, t := range targets {
		f.MustAddTarget(t, nil)
	}
	return f
}

// Flow writes an independent copy of the input to each target.
func (f *Fork) Flow(ctx context.Context) error {
	in, err := f.Source(Main).ToTable(ctx)
	if err != nil {
		return err
	}
	for _, t := range f.Targets().All() {
		if err := t.FromTable(ctx, in.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Concat stacks every named source into target "main".
type Concat struct {
	*pipe.Pipe
	// KeepIndex keeps the upstream row labels instead of relabelling 0..n-1.
	KeepIndex bool
}

// NewConcat creates a concat reading the given sources in order.
func NewConcat(name string, sources ...string) *Concat {
	c := &Concat{Pipe: pipe.New(name)}
	for _, s := range sources {
		c.MustAddSource(s, nil)
	}
	c.MustAddTarget(Main, nil)
	return c
}

// Flow concatenates the sources in declaration order.
func (c *Concat) Flow(ctx context.Context) error {
	parts := make([]*table.Table, 0, c.Sources().Len())
	for _, s := range c.Sources().All() {
		t, err := s.ToTable(ctx)
		if err != nil {
			return err
		}
		parts = append(parts, t)
	}
	out := table.Concat(parts...)
	if !c.KeepIndex {
		out = out.Reindex()
	}
	return c.Target(Main).FromTable(ctx, out)
}

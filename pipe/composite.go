package pipe

import (
	"context"

	"github.com/kbukum/flowkit/dag"
)

// Composite is a pipe whose Flow evaluates its children.
type Composite struct {
	*Pipe
	Scheduler *Scheduler

	last *dag.Result
}

// NewComposite creates a composite using the default scheduler.
func NewComposite(name string) *Composite {
	return &Composite{Pipe: New(name)}
}

// WithScheduler replaces the scheduler and returns the composite.
func (c *Composite) WithScheduler(s *Scheduler) *Composite {
	c.Scheduler = s
	return c
}

// Flow runs the child graph.
func (c *Composite) Flow(ctx context.Context) error {
	s := c.Scheduler
	if s == nil {
		s = DefaultScheduler()
	}
	res, err := s.Run(ctx, c.Pipe)
	c.last = res
	return err
}

// LastResult returns the node results of the most recent Flow, or nil.
func (c *Composite) LastResult() *dag.Result { return c.last }

// Func adapts a function into a leaf pipe, for small pipes and tests.
type Func struct {
	*Pipe
	fn func(ctx context.Context, p *Pipe) error
}

// NewFunc creates a leaf pipe whose Flow calls fn.
func NewFunc(name string, fn func(ctx context.Context, p *Pipe) error) *Func {
	return &Func{Pipe: New(name), fn: fn}
}

func (f *Func) Flow(ctx context.Context) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, f.Pipe)
}

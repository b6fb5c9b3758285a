package scaffold

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/multierr"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/pipe"
	"github.com/kbukum/flowkit/table"
)

// Runner executes the pipe under test once.
type Runner func(ctx context.Context) error

// Scenario runs a set of cases against one pipe.
type Scenario struct {
	Name string

	pipe   pipe.Flower
	runner Runner
	keys   map[string]string
	gen    KeyGenerator
	cases  []*Case
	log    *logger.Logger
}

// Option configures a Scenario.
type Option func(*Scenario)

// WithKey declares the key field of a source or target. The same field
// applies to a source and a target sharing a name.
func WithKey(subject, field string) Option {
	return func(s *Scenario) { s.keys[subject] = field }
}

// WithRunner replaces the default runner, which calls the pipe's Flow.
func WithRunner(fn Runner) Option {
	return func(s *Scenario) { s.runner = fn }
}

// WithKeyGenerator replaces the default UUID-tagged keys.
func WithKeyGenerator(gen KeyGenerator) Option {
	return func(s *Scenario) { s.gen = gen }
}

// NewScenario creates a scenario for p.
func NewScenario(name string, p pipe.Flower, opts ...Option) *Scenario {
	s := &Scenario{
		Name: name,
		pipe: p,
		keys: make(map[string]string),
		gen:  UUIDKeys,
		log:  logger.Get("scaffold"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = p.Flow
	}
	return s
}

// Pipe returns the pipe under test.
func (s *Scenario) Pipe() *pipe.Pipe { return s.pipe.Self() }

// Case adds a case and returns it for When/Then chaining.
func (s *Scenario) Case(name string) *Case {
	c := &Case{Name: name}
	s.cases = append(s.cases, c)
	return c
}

// Cases returns the cases in declaration order.
func (s *Scenario) Cases() []*Case { return s.cases }

// Key returns the key field declared for subject.
func (s *Scenario) Key(subject string) (string, bool) {
	f, ok := s.keys[subject]
	return f, ok
}

// CaseReport is the outcome of one case.
type CaseReport struct {
	Name string
	Keys CaseKeys
	Err  error
}

// Report is the outcome of a scenario run.
type Report struct {
	Scenario string
	Cases    []CaseReport
}

// Failed returns the failing cases.
func (r *Report) Failed() []CaseReport {
	var out []CaseReport
	for _, c := range r.Cases {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// Err combines every case failure, prefixed by the case name.
func (r *Report) Err() error {
	var err error
	for _, c := range r.Failed() {
		err = multierr.Append(err, fmt.Errorf("%s: %w", c.Name, c.Err))
	}
	return err
}

// Run installs every case's inputs, runs the pipe once and checks every
// case against its slice of the outputs. Setup and runner failures return
// a nil report; case failures return the report with their combined error.
func (s *Scenario) Run(ctx context.Context) (*Report, error) {
	p := s.pipe.Self()
	log := s.log.WithPipe(p.Name())

	inputs := make([]*Inputs, len(s.cases))
	merged := make(map[string][]*table.Table)
	var setupErr error
	for i, c := range s.cases {
		in := &Inputs{scenario: s, keys: s.gen(i), tables: make(map[string]*table.Table)}
		for _, cond := range c.conditions {
			if err := cond(in); err != nil {
				setupErr = multierr.Append(setupErr, fmt.Errorf("%s: %w", c.Name, err))
				break
			}
		}
		inputs[i] = in
		for _, name := range in.order {
			merged[name] = append(merged[name], in.tables[name])
		}
	}
	if setupErr != nil {
		return nil, setupErr
	}

	for _, name := range p.Sources().Names() {
		parts, ok := merged[name]
		if !ok {
			continue
		}
		if err := p.Source(name).FromTable(ctx, table.Concat(parts...).Reindex()); err != nil {
			return nil, err
		}
	}

	log.Debug("Running scenario", logger.Fields("scenario", s.Name, logger.FieldCount, len(s.cases)))
	if err := s.runner(ctx); err != nil {
		return nil, err
	}

	outputs := make(map[string]*table.Table, p.Targets().Len())
	for _, t := range p.Targets().All() {
		tbl, err := t.ToTable(ctx)
		if err != nil {
			return nil, err
		}
		outputs[t.Name()] = tbl
	}

	collector := NewCollector(s.keys)
	report := &Report{Scenario: s.Name}
	for i, c := range s.cases {
		out := &Outcome{inputs: inputs[i], targets: make(map[string]*table.Table, len(outputs)), whole: outputs}
		for name, tbl := range outputs {
			out.targets[name] = collector.Collect(name, tbl, inputs[i].keys)
		}
		var caseErr error
		for _, exp := range c.expectations {
			caseErr = multierr.Append(caseErr, exp(out))
		}
		report.Cases = append(report.Cases, CaseReport{Name: c.Name, Keys: inputs[i].keys, Err: caseErr})
	}

	if err := report.Err(); err != nil {
		log.Debug("Scenario failed", logger.Fields("scenario", s.Name, logger.FieldCount, len(report.Failed())))
		return report, err
	}
	return report, nil
}

// Test runs the scenario and reports every case as a subtest.
func (s *Scenario) Test(t *testing.T) {
	t.Helper()
	report, err := s.Run(context.Background())
	if report == nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}
	for _, c := range report.Cases {
		t.Run(c.Name, func(t *testing.T) {
			if c.Err != nil {
				for _, e := range multierr.Errors(c.Err) {
					t.Error(e)
				}
			}
		})
	}
}

// Case is one when/then pair of a scenario.
type Case struct {
	Name string

	conditions   []Condition
	expectations []Expectation
}

// When appends conditions, applied in order.
func (c *Case) When(conditions ...Condition) *Case {
	c.conditions = append(c.conditions, conditions...)
	return c
}

// Then appends expectations.
func (c *Case) Then(expectations ...Expectation) *Case {
	c.expectations = append(c.expectations, expectations...)
	return c
}

// Inputs holds the tables a case installs on the pipe's sources.
type Inputs struct {
	scenario *Scenario
	keys     CaseKeys
	tables   map[string]*table.Table
	order    []string
}

// Keys returns the case's surrogate ids.
func (in *Inputs) Keys() CaseKeys { return in.keys }

// Table returns the case's table for a source, if one was installed.
func (in *Inputs) Table(source string) (*table.Table, bool) {
	t, ok := in.tables[source]
	return t, ok
}

// Set installs t as the case's table for source.
func (in *Inputs) Set(source string, t *table.Table) error {
	if !in.scenario.Pipe().Sources().Has(source) {
		return apperrors.NotFound("source", source).WithDetail("pipe", in.scenario.Pipe().Name())
	}
	if _, ok := in.tables[source]; !ok {
		in.order = append(in.order, source)
	}
	in.tables[source] = t
	return nil
}

// Outcome is one case's view of the run.
type Outcome struct {
	inputs  *Inputs
	targets map[string]*table.Table
	whole   map[string]*table.Table
}

// Keys returns the case's surrogate ids.
func (o *Outcome) Keys() CaseKeys { return o.inputs.keys }

// Source returns what the case installed on a source.
func (o *Outcome) Source(name string) (*table.Table, error) {
	t, ok := o.inputs.tables[name]
	if !ok {
		return nil, apperrors.NotFound("case source", name)
	}
	return t, nil
}

// Target returns the case's slice of a target.
func (o *Outcome) Target(name string) (*table.Table, error) {
	t, ok := o.targets[name]
	if !ok {
		return nil, apperrors.NotFound("target", name)
	}
	return t, nil
}

// Whole returns a target as produced by the run, across all cases.
func (o *Outcome) Whole(name string) (*table.Table, error) {
	t, ok := o.whole[name]
	if !ok {
		return nil, apperrors.NotFound("target", name)
	}
	return t, nil
}

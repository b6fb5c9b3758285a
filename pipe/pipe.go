package pipe

import (
	"context"
	"slices"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/subject"
	"github.com/kbukum/flowkit/validation"
)

// SelfName refers to the enclosing pipe inside its own graph.
const SelfName = "self"

// Port directions.
const (
	DirectionSource = "source"
	DirectionTarget = "target"
)

// Flower is a pipe with behavior.
type Flower interface {
	Self() *Pipe
	Flow(ctx context.Context) error
}

// Pipe holds the shape of a unit of work: ports, children and connections.
type Pipe struct {
	name    string
	parent  *Pipe
	factory subject.Factory

	sources *subject.Ports
	targets *subject.Ports

	childOrder  []string
	children    map[string]Flower
	connections []*Connection
}

// New creates a pipe with no ports. Subjects default to the Tabular variant.
func New(name string) *Pipe {
	return &Pipe{
		name:     name,
		factory:  subject.TabularFactory(),
		sources:  subject.NewPorts(DirectionSource),
		targets:  subject.NewPorts(DirectionTarget),
		children: make(map[string]Flower),
	}
}

// Self returns p; embedding *Pipe gives concrete pipes the Flower accessor.
func (p *Pipe) Self() *Pipe { return p }

// Name returns the pipe name.
func (p *Pipe) Name() string { return p.name }

// Parent returns the pipe p was added to, or nil.
func (p *Pipe) Parent() *Pipe { return p.parent }

// SetSubjectFactory changes the variant used for ports declared afterwards.
func (p *Pipe) SetSubjectFactory(f subject.Factory) { p.factory = f }

// PortOption configures a port declaration.
type PortOption func(*portConfig)

type portConfig struct {
	factory subject.Factory
}

// As selects the subject variant of one port.
func As(f subject.Factory) PortOption {
	return func(c *portConfig) { c.factory = f }
}

// AddSource declares an input subject.
func (p *Pipe) AddSource(name string, s *schema.Schema, opts ...PortOption) (subject.Subject, error) {
	return p.addPort(p.sources, name, s, opts)
}

// AddTarget declares an output subject.
func (p *Pipe) AddTarget(name string, s *schema.Schema, opts ...PortOption) (subject.Subject, error) {
	return p.addPort(p.targets, name, s, opts)
}

// MustAddSource is AddSource that panics on error, for use in constructors.
func (p *Pipe) MustAddSource(name string, s *schema.Schema, opts ...PortOption) subject.Subject {
	sub, err := p.AddSource(name, s, opts...)
	if err != nil {
		panic(err)
	}
	return sub
}

// MustAddTarget is AddTarget that panics on error, for use in constructors.
func (p *Pipe) MustAddTarget(name string, s *schema.Schema, opts ...PortOption) subject.Subject {
	sub, err := p.AddTarget(name, s, opts...)
	if err != nil {
		panic(err)
	}
	return sub
}

func (p *Pipe) addPort(ports *subject.Ports, name string, s *schema.Schema, opts []PortOption) (subject.Subject, error) {
	if err := validation.New().Required("port", name).Identifier("port", name).Validate(); err != nil {
		return nil, err.WithDetail("pipe", p.name)
	}
	cfg := portConfig{factory: p.factory}
	for _, opt := range opts {
		opt(&cfg)
	}
	if ports.Has(name) {
		return nil, apperrors.PortExists(p.name, ports.Direction(), name)
	}
	sub := cfg.factory(name, p.name, s)
	if err := ports.Add(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Source returns the named source, or nil.
func (p *Pipe) Source(name string) subject.Subject {
	s, _ := p.sources.Get(name)
	return s
}

// Target returns the named target, or nil.
func (p *Pipe) Target(name string) subject.Subject {
	s, _ := p.targets.Get(name)
	return s
}

// Sources returns the source ports.
func (p *Pipe) Sources() *subject.Ports { return p.sources }

// Targets returns the target ports.
func (p *Pipe) Targets() *subject.Ports { return p.targets }

// AddChild adds child under name, reparenting and renaming it.
func (p *Pipe) AddChild(name string, child Flower) error {
	if name == SelfName {
		return apperrors.Configuration("child name \"self\" is reserved").WithDetail("pipe", p.name)
	}
	if err := validation.New().Required("child", name).Identifier("child", name).Validate(); err != nil {
		return err.WithDetail("pipe", p.name)
	}
	if _, ok := p.children[name]; ok {
		return apperrors.Configuration("child " + name + " already exists").WithDetail("pipe", p.name)
	}
	p.adopt(name, child)
	p.childOrder = append(p.childOrder, name)
	p.children[name] = child
	return nil
}

// MustAddChild is AddChild that panics on error.
func (p *Pipe) MustAddChild(name string, child Flower) {
	if err := p.AddChild(name, child); err != nil {
		panic(err)
	}
}

// ReplaceChild swaps the child registered under name, keeping its position
// and connections.
func (p *Pipe) ReplaceChild(name string, child Flower) error {
	if _, ok := p.children[name]; !ok {
		return apperrors.NotFound("child", name).WithDetail("pipe", p.name)
	}
	p.adopt(name, child)
	p.children[name] = child
	return nil
}

func (p *Pipe) adopt(name string, child Flower) {
	c := child.Self()
	c.parent = p
	c.name = name
	c.sources.SetOwner(name)
	c.targets.SetOwner(name)
}

// Child returns the named child. SelfName is not a child.
func (p *Pipe) Child(name string) (Flower, bool) {
	c, ok := p.children[name]
	return c, ok
}

// Children returns child names in declaration order.
func (p *Pipe) Children() []string { return slices.Clone(p.childOrder) }

// resolve returns the pipe a connection endpoint names.
func (p *Pipe) resolve(name string) (*Pipe, bool) {
	if name == SelfName {
		return p, true
	}
	c, ok := p.children[name]
	if !ok {
		return nil, false
	}
	return c.Self(), true
}

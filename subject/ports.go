package subject

import (
	"slices"

	apperrors "github.com/kbukum/flowkit/errors"
)

// Ports is an ordered, name-unique collection of subjects for one direction
// of a pipe.
type Ports struct {
	direction string
	order     []string
	items     map[string]Subject
}

// NewPorts creates an empty collection; direction is "source" or "target".
func NewPorts(direction string) *Ports {
	return &Ports{direction: direction, items: make(map[string]Subject)}
}

// Direction returns the collection's direction.
func (p *Ports) Direction() string { return p.direction }

// Add appends s, failing when its name is taken.
func (p *Ports) Add(s Subject) error {
	if _, ok := p.items[s.Name()]; ok {
		return apperrors.PortExists(s.Owner(), p.direction, s.Name())
	}
	p.order = append(p.order, s.Name())
	p.items[s.Name()] = s
	return nil
}

// Replace swaps the subject registered under s.Name(), keeping its position.
func (p *Ports) Replace(s Subject) error {
	if _, ok := p.items[s.Name()]; !ok {
		return apperrors.NotFound(p.direction, s.Name())
	}
	p.items[s.Name()] = s
	return nil
}

// Get returns the named subject.
func (p *Ports) Get(name string) (Subject, bool) {
	s, ok := p.items[name]
	return s, ok
}

// Has reports whether name is declared.
func (p *Ports) Has(name string) bool {
	_, ok := p.items[name]
	return ok
}

// Names returns port names in declaration order.
func (p *Ports) Names() []string { return slices.Clone(p.order) }

// All returns subjects in declaration order.
func (p *Ports) All() []Subject {
	out := make([]Subject, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, p.items[n])
	}
	return out
}

// Len returns the number of ports.
func (p *Ports) Len() int { return len(p.order) }

// SetOwner rebinds every subject to owner.
func (p *Ports) SetOwner(owner string) {
	for _, s := range p.items {
		s.SetOwner(owner)
	}
}

package pipe

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/validation"
)

// Definition is a YAML-declared composite pipe.
//
//	name: etl
//	sources:
//	  - name: main
//	    schema: {id: integer}
//	children:
//	  - name: clean
//	    component: enforce_people
//	connections:
//	  - from: self.main
//	    to: clean.main
type Definition struct {
	Name        string          `yaml:"name" validate:"required"`
	Sources     []PortDef       `yaml:"sources,omitempty" validate:"dive"`
	Targets     []PortDef       `yaml:"targets,omitempty" validate:"dive"`
	Children    []ChildDef      `yaml:"children" validate:"dive"`
	Connections []ConnectionDef `yaml:"connections" validate:"dive"`
}

// PortDef declares a port of the composite itself.
type PortDef struct {
	Name   string         `yaml:"name" validate:"required"`
	Schema *schema.Schema `yaml:"schema,omitempty"`
}

// ChildDef declares a child built from a registered component.
type ChildDef struct {
	Name      string `yaml:"name" validate:"required"`
	Component string `yaml:"component" validate:"required"`
}

// ConnectionDef declares a connection between "pipe.port" endpoints.
type ConnectionDef struct {
	From  string `yaml:"from" validate:"required"`
	To    string `yaml:"to" validate:"required"`
	Group string `yaml:"group,omitempty"`
}

// Constructor builds a fresh pipe instance.
type Constructor func() Flower

// Registry maps component names to constructors.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Constructor)}
}

// Register adds a constructor under name, replacing any previous entry.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = c
}

// Get retrieves a constructor by name.
func (r *Registry) Get(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[name]
	return c, ok
}

// List returns sorted component names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDefinition decodes and validates a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, apperrors.Configuration("invalid pipe definition").WithCause(err)
	}
	if err := validation.Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinition reads a YAML definition from path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipe: reading %s: %w", path, err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("pipe: parsing %s: %w", path, err)
	}
	return def, nil
}

// Build instantiates a definition. The returned composite is validated.
func Build(def *Definition, reg *Registry) (*Composite, error) {
	c := NewComposite(def.Name)
	for _, pd := range def.Sources {
		if _, err := c.AddSource(pd.Name, pd.Schema); err != nil {
			return nil, err
		}
	}
	for _, pd := range def.Targets {
		if _, err := c.AddTarget(pd.Name, pd.Schema); err != nil {
			return nil, err
		}
	}
	for _, cd := range def.Children {
		ctor, ok := reg.Get(cd.Component)
		if !ok {
			return nil, apperrors.NotFound("component", cd.Component).WithDetail("pipe", def.Name)
		}
		if err := c.AddChild(cd.Name, ctor()); err != nil {
			return nil, err
		}
	}
	for _, cd := range def.Connections {
		from, err := ParseEndpoint(cd.From)
		if err != nil {
			return nil, err
		}
		to, err := ParseEndpoint(cd.To)
		if err != nil {
			return nil, err
		}
		c.Connect(from.Pipe, from.Port).Group(cd.Group).To(to.Pipe, to.Port)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

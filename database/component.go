package database

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/component"
	apperrors "github.com/kbukum/flowkit/errors"
)

// Component manages an engine's lifecycle inside a component registry.
// The registry holds one engine reference between Start and Stop; subjects
// built from Engine retain their own.
type Component struct {
	name string
	cfg  Config

	mu     sync.RWMutex
	engine *Engine
}

var _ component.Component = (*Component)(nil)

// NewComponent creates an engine component. The engine opens on Start.
func NewComponent(name string, cfg Config) *Component {
	return &Component{name: name, cfg: cfg}
}

// Name returns the registration name.
func (c *Component) Name() string { return c.name }

// Start opens the engine.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		return nil
	}
	engine, err := Open(ctx, c.cfg)
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

// Stop drops the registry's engine reference.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return nil
	}
	err := c.engine.Release()
	c.engine = nil
	return err
}

// Health pings the engine.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	engine := c.engine
	c.mu.RUnlock()

	h := component.Health{Name: c.name}
	switch {
	case engine == nil || engine.Closed():
		h.Status = component.StatusStopped
	default:
		if err := engine.DB().PingContext(ctx); err != nil {
			h.Status = component.StatusUnhealthy
			h.Message = err.Error()
		} else {
			h.Status = component.StatusHealthy
		}
	}
	return h
}

// Engine returns the running engine.
func (c *Component) Engine() (*Engine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.engine == nil {
		return nil, apperrors.Configuration("database component " + c.name + " is not started")
	}
	return c.engine, nil
}

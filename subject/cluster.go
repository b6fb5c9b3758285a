package subject

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// Session is a handle on a distributed compute session holding named frames.
type Session interface {
	ID() string
	Has(frame string) bool
	Load(ctx context.Context, frame string) (*table.Table, error)
	Store(ctx context.Context, frame string, t *table.Table) error
}

// MemorySession is a process-local Session.
type MemorySession struct {
	id     string
	mu     sync.RWMutex
	frames map[string]*table.Table
}

// NewMemorySession creates an empty session with a random id.
func NewMemorySession() *MemorySession {
	return &MemorySession{id: uuid.NewString(), frames: make(map[string]*table.Table)}
}

func (m *MemorySession) ID() string { return m.id }

func (m *MemorySession) Has(frame string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.frames[frame]
	return ok
}

func (m *MemorySession) Load(_ context.Context, frame string) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.frames[frame]
	if !ok {
		return nil, apperrors.NotFound("frame", frame).WithDetail("session", m.id)
	}
	return t, nil
}

func (m *MemorySession) Store(_ context.Context, frame string, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[frame] = t
	return nil
}

// Cluster holds its payload as a frame in a Session.
type Cluster struct {
	base

	mu      sync.RWMutex
	session Session
	frame   string
}

// NewCluster creates a cluster subject. Its frame defaults to "<owner>.<name>"
// until a link adopts another.
func NewCluster(name, owner string, s *schema.Schema, session Session) *Cluster {
	return &Cluster{base: newBase(name, owner, s), session: session}
}

// ClusterFactory creates Cluster subjects on session.
func ClusterFactory(session Session) Factory {
	return func(name, owner string, s *schema.Schema) Subject {
		return NewCluster(name, owner, s, session)
	}
}

func (c *Cluster) Variant() Variant { return VariantCluster }

// Session returns the session currently held.
func (c *Cluster) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Frame returns the frame name.
func (c *Cluster) Frame() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame == "" {
		return Ref(c)
	}
	return c.frame
}

func (c *Cluster) HasPayload() bool {
	s := c.Session()
	return s != nil && s.Has(c.Frame())
}

func (c *Cluster) ToTable(ctx context.Context) (*table.Table, error) {
	if !c.HasPayload() {
		return c.emptyTable(), nil
	}
	return c.Session().Load(ctx, c.Frame())
}

func (c *Cluster) FromTable(ctx context.Context, t *table.Table) error {
	return c.Session().Store(ctx, c.Frame(), t)
}

// LinkFrom adopts another Cluster subject's session and frame. Other variants
// are materialized into this subject's frame.
func (c *Cluster) LinkFrom(ctx context.Context, other Subject) error {
	if err := c.checkLink(other); err != nil {
		return err
	}

	if up, ok := other.(*Cluster); ok {
		session, frame := up.Session(), up.Frame()
		c.mu.Lock()
		c.session, c.frame = session, frame
		c.mu.Unlock()
		logger.Get("subject").Debug("Cluster subject linked", logger.Fields(
			logger.FieldSubject, Ref(c), "from", Ref(other), "frame", frame,
		))
		return nil
	}

	t, err := c.materialize(ctx, other)
	if err != nil {
		return err
	}
	return c.FromTable(ctx, t)
}

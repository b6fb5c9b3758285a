package subject

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// Tabular holds an in-memory table. Links share the upstream table unless
// the subject is isolated.
type Tabular struct {
	base
	isolated bool

	mu      sync.RWMutex
	payload *table.Table
}

// TabularOption configures a Tabular subject.
type TabularOption func(*Tabular)

// Isolated makes LinkFrom clone the upstream payload instead of sharing it.
func Isolated() TabularOption {
	return func(t *Tabular) { t.isolated = true }
}

// NewTabular creates an in-memory subject.
func NewTabular(name, owner string, s *schema.Schema, opts ...TabularOption) *Tabular {
	t := &Tabular{base: newBase(name, owner, s)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TabularFactory creates Tabular subjects; it is the default variant.
func TabularFactory(opts ...TabularOption) Factory {
	return func(name, owner string, s *schema.Schema) Subject {
		return NewTabular(name, owner, s, opts...)
	}
}

func (t *Tabular) Variant() Variant { return VariantTabular }

// Payload returns the current table, possibly nil.
func (t *Tabular) Payload() *table.Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.payload
}

// SetPayload replaces the table.
func (t *Tabular) SetPayload(p *table.Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payload = p
}

func (t *Tabular) HasPayload() bool { return t.Payload() != nil }

// ToTable returns the payload itself, or an empty table with the schema's
// columns when none is set.
func (t *Tabular) ToTable(context.Context) (*table.Table, error) {
	if p := t.Payload(); p != nil {
		return p, nil
	}
	return t.emptyTable(), nil
}

func (t *Tabular) FromTable(_ context.Context, p *table.Table) error {
	t.SetPayload(p)
	return nil
}

func (t *Tabular) LinkFrom(ctx context.Context, other Subject) error {
	if err := t.checkLink(other); err != nil {
		return err
	}

	var p *table.Table
	if up, ok := other.(*Tabular); ok {
		p = up.Payload()
		if p == nil {
			p = t.emptyTable()
		} else if t.isolated {
			p = p.Clone()
		}
	} else {
		var err error
		if p, err = t.materialize(ctx, other); err != nil {
			return err
		}
	}
	t.SetPayload(p)

	logger.Get("subject").Debug("Subject linked", logger.Fields(
		logger.FieldSubject, Ref(t), "from", Ref(other), "rows", p.Len(),
	))
	return nil
}

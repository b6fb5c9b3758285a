package subject

import (
	"context"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// Variant names the payload representation of a subject.
type Variant string

const (
	VariantTabular Variant = "tabular"
	VariantSQL     Variant = "sql"
	VariantCluster Variant = "cluster"
)

// Subject is a port holding a tabular payload.
type Subject interface {
	Name() string
	Owner() string
	// SetOwner rebinds the subject when its pipe is renamed.
	SetOwner(owner string)
	Schema() *schema.Schema
	Variant() Variant
	HasPayload() bool
	ToTable(ctx context.Context) (*table.Table, error)
	FromTable(ctx context.Context, t *table.Table) error
	// LinkFrom adopts the payload of other.
	LinkFrom(ctx context.Context, other Subject) error
}

// Factory creates a subject for a port declaration.
type Factory func(name, owner string, s *schema.Schema) Subject

// Ref renders "owner.name".
func Ref(s Subject) string { return s.Owner() + "." + s.Name() }

type base struct {
	name   string
	owner  string
	schema *schema.Schema
}

func newBase(name, owner string, s *schema.Schema) base {
	if s == nil {
		s = schema.Empty()
	}
	return base{name: name, owner: owner, schema: s}
}

func (b *base) Name() string             { return b.name }
func (b *base) Owner() string            { return b.owner }
func (b *base) SetOwner(owner string)    { b.owner = owner }
func (b *base) Schema() *schema.Schema   { return b.schema }
func (b *base) emptyTable() *table.Table { return table.Empty(b.schema) }

// checkLink fails when other declares a schema that does not cover this
// subject's required fields.
func (b *base) checkLink(other Subject) error {
	theirs := other.Schema()
	if theirs.IsEmpty() {
		return nil
	}
	var missing []string
	for _, name := range b.schema.Required() {
		if !theirs.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.MissingFields(b.name, missing).
		WithDetail("pipe", b.owner).
		WithDetail("from", Ref(other))
}

// materialize reads other as a table, substituting an empty table with this
// subject's columns when other holds nothing.
func (b *base) materialize(ctx context.Context, other Subject) (*table.Table, error) {
	if !other.HasPayload() {
		return b.emptyTable(), nil
	}
	return other.ToTable(ctx)
}

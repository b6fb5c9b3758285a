package subject

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/database"
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// SQL stores its payload in a database table. The subject holds one
// reference on its engine.
type SQL struct {
	base

	mu     sync.Mutex
	engine *database.Engine
	table  string
}

// NewSQL creates a SQL subject over engine and table, retaining the engine.
// An empty table name defaults to "<owner>_<name>". A nil engine leaves the
// subject without payload until it is linked to an open SQL subject.
func NewSQL(name, owner string, s *schema.Schema, engine *database.Engine, tableName string) *SQL {
	if tableName == "" {
		tableName = owner + "_" + name
	}
	if engine != nil {
		engine = engine.Retain()
	}
	return &SQL{
		base:   newBase(name, owner, s),
		engine: engine,
		table:  tableName,
	}
}

// SQLFactory creates SQL subjects on engine. With an empty tableName each
// subject gets its own "<owner>_<name>" table.
func SQLFactory(engine *database.Engine, tableName string) Factory {
	return func(name, owner string, s *schema.Schema) Subject {
		return NewSQL(name, owner, s, engine, tableName)
	}
}

func (q *SQL) Variant() Variant { return VariantSQL }

// Engine returns the engine currently held.
func (q *SQL) Engine() *database.Engine {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.engine
}

// Table returns the table identifier.
func (q *SQL) Table() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.table
}

func (q *SQL) HasPayload() bool {
	eng, name := q.Engine(), q.Table()
	return eng != nil && !eng.Closed() && eng.TableExists(context.Background(), name)
}

func (q *SQL) ToTable(ctx context.Context) (*table.Table, error) {
	if !q.HasPayload() {
		return q.emptyTable(), nil
	}
	return q.Engine().ReadTable(ctx, q.Table(), q.schema)
}

func (q *SQL) FromTable(ctx context.Context, t *table.Table) error {
	eng := q.Engine()
	if eng == nil || eng.Closed() {
		return apperrors.Configuration("sql subject " + Ref(q) + " has no open engine")
	}
	return eng.WriteTable(ctx, q.Table(), t, q.schema)
}

// LinkFrom adopts another SQL subject's engine and table, releasing the
// engine held before. Other variants are materialized into this subject's
// table.
func (q *SQL) LinkFrom(ctx context.Context, other Subject) error {
	if err := q.checkLink(other); err != nil {
		return err
	}

	if up, ok := other.(*SQL); ok {
		eng, name := up.Engine(), up.Table()
		if eng == nil || eng.Closed() {
			return apperrors.Configuration("sql subject " + Ref(up) + " has no open engine").
				WithDetail(logger.FieldSubject, Ref(q))
		}
		q.mu.Lock()
		old := q.engine
		q.engine = eng.Retain()
		q.table = name
		q.mu.Unlock()
		if old != nil {
			if err := old.Release(); err != nil {
				return err
			}
		}
		logger.Get("subject").Debug("SQL subject linked", logger.Fields(
			logger.FieldSubject, Ref(q), "from", Ref(other), "table", name,
		))
		return nil
	}

	t, err := q.materialize(ctx, other)
	if err != nil {
		return err
	}
	return q.FromTable(ctx, t)
}

// Close releases the engine reference.
func (q *SQL) Close() error {
	q.mu.Lock()
	eng := q.engine
	q.engine = nil
	q.mu.Unlock()
	if eng == nil {
		return nil
	}
	return eng.Release()
}

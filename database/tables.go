package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// RowColumn stores each row's index label so reads restore it.
const RowColumn = "_flowkit_row"

// WriteTable replaces name with the contents of t. Column types come from s;
// columns s does not name are stored as text.
func (e *Engine) WriteTable(ctx context.Context, name string, t *table.Table, s *schema.Schema) error {
	d := e.dialect
	cols := t.Columns()

	defs := []string{d.Quote(RowColumn) + " BIGINT"}
	quoted := []string{d.Quote(RowColumn)}
	marks := []string{d.Placeholder(1)}
	for i, c := range cols {
		kind := schema.KindString
		if f, ok := s.Lookup(c); ok {
			kind = f.Kind()
		}
		defs = append(defs, d.Quote(c)+" "+d.ColumnType(kind))
		quoted = append(quoted, d.Quote(c))
		marks = append(marks, d.Placeholder(i+2))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(name), strings.Join(defs, ", "))
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	err := e.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.Quote(name)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for pos := 0; pos < t.Len(); pos++ {
			args := []any{int64(t.Label(pos))}
			for _, c := range cols {
				v, err := encodeValue(t.Value(pos, c), s, c)
				if err != nil {
					return err
				}
				args = append(args, v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return FromDatabase(err, e.Driver(), name)
	}
	e.log.Debug("Table written", map[string]interface{}{"table": name, "rows": t.Len()})
	return nil
}

// ReadTable loads name in label order, coercing known columns through s.
func (e *Engine) ReadTable(ctx context.Context, name string, s *schema.Schema) (*table.Table, error) {
	d := e.dialect
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", d.Quote(name), d.Quote(RowColumn))
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, FromDatabase(err, e.Driver(), name)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, FromDatabase(err, e.Driver(), name)
	}
	var dataCols []string
	for _, c := range cols {
		if c != RowColumn {
			dataCols = append(dataCols, c)
		}
	}

	out := table.New(dataCols...)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, FromDatabase(err, e.Driver(), name)
		}

		label := 0
		row := make(map[string]any, len(dataCols))
		for j, c := range cols {
			v := values[j]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			if c == RowColumn {
				label = toLabel(v)
				continue
			}
			coerced, err := s.Coerce(c, v)
			if err != nil {
				return nil, err
			}
			row[c] = coerced
		}
		out.AppendLabelled(label, row)
	}
	if err := rows.Err(); err != nil {
		return nil, FromDatabase(err, e.Driver(), name)
	}
	return out, nil
}

// TableExists reports whether name can be selected from.
func (e *Engine) TableExists(ctx context.Context, name string) bool {
	rows, err := e.db.QueryContext(ctx, "SELECT 1 FROM "+e.dialect.Quote(name)+" WHERE 1 = 0")
	if err != nil {
		return false
	}
	_ = rows.Close()
	return true
}

// DropTable removes name if present.
func (e *Engine) DropTable(ctx context.Context, name string) error {
	if _, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+e.dialect.Quote(name)); err != nil {
		return FromDatabase(err, e.Driver(), name)
	}
	return nil
}

func encodeValue(v any, s *schema.Schema, column string) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, known := s.Lookup(column)
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String(), nil
	case map[string]any, []any:
		b, err := json.Marshal(x)
		return string(b), err
	}
	if known && f.Kind() == schema.KindJSON {
		b, err := json.Marshal(v)
		return string(b), err
	}
	if !known {
		return table.FormatValue(v), nil
	}
	return v, nil
}

func toLabel(v any) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int32:
		return int(x)
	case int:
		return x
	case string:
		var n int
		_, _ = fmt.Sscan(x, &n)
		return n
	}
	return 0
}

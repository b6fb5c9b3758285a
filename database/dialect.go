package database

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowkit/schema"
)

// Dialect captures the per-driver SQL differences the engine relies on.
type Dialect struct {
	driver string
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) Dialect { return Dialect{driver: driver} }

// Quote quotes an identifier.
func (d Dialect) Quote(ident string) string {
	if d.driver == "mysql" {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	switch d.driver {
	case "postgres", "pgx":
		return fmt.Sprintf("$%d", n)
	default:
		return "?"
	}
}

// ColumnType maps a field kind to a column type. Decimals and JSON are
// stored as text and restored through field coercion on read.
func (d Dialect) ColumnType(kind schema.Kind) string {
	switch kind {
	case schema.KindInteger:
		return "BIGINT"
	case schema.KindFloat:
		return "DOUBLE PRECISION"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindDate:
		return "DATE"
	case schema.KindDateTime:
		if d.driver == "mysql" {
			return "DATETIME(6)"
		}
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

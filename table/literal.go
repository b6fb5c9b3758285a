package table

import (
	"fmt"
	"strings"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
)

const separatorChars = "-| \t"

// ParseLiteral parses a pipe-delimited literal into a table. The first
// non-blank line is the header and the second must be a separator made of
// dashes and pipes. Cells are coerced through the matching schema field;
// columns the schema does not name stay strings. Blank cells become the
// field's null.
func ParseLiteral(text string, s *schema.Schema) (*Table, error) {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, raw)
	}
	if len(lines) == 0 {
		return New(), nil
	}

	header := splitRow(lines[0])
	if len(lines) < 2 {
		return nil, apperrors.InvalidHeaderSeparator("")
	}
	if sep := strings.TrimSpace(lines[1]); strings.Trim(sep, separatorChars) != "" || !strings.Contains(sep, "-") {
		return nil, apperrors.InvalidHeaderSeparator(sep)
	}

	t := New(header...)
	if len(t.columns) != len(header) {
		return nil, apperrors.Configuration(fmt.Sprintf("duplicate column in literal header %v", header))
	}
	for n, line := range lines[2:] {
		cells := splitRow(line)
		if len(cells) > len(header) {
			return nil, apperrors.Configuration(
				fmt.Sprintf("literal row %d has %d cells, header has %d", n, len(cells), len(header)))
		}
		row := make(map[string]any, len(header))
		for j, col := range header {
			cell := ""
			if j < len(cells) {
				cell = cells[j]
			}
			v, err := parseCell(s, col, cell)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		t.AppendLabelled(n, row)
	}
	return t, nil
}

// MustParseLiteral is ParseLiteral that panics on error. Intended for
// fixtures.
func MustParseLiteral(text string, s *schema.Schema) *Table {
	t, err := ParseLiteral(text, s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseCell(s *schema.Schema, column, cell string) (any, error) {
	f, ok := s.Lookup(column)
	if !ok {
		if cell == "" {
			return nil, nil
		}
		return cell, nil
	}
	if cell == "" {
		return f.Null(), nil
	}
	return f.Coerce(cell)
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

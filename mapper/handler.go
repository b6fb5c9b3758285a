package mapper

import (
	"fmt"
	"strings"
)

// Mode is a row error policy.
type Mode string

const (
	// ModeRaise aborts the mapper on the first error.
	ModeRaise Mode = "raise"
	// ModeCatch records the error and nulls the output. Remaining caught
	// errors fail the mapper at the end unless it is suppressed.
	ModeCatch Mode = "catch"
	// ModeRecode records the error and substitutes the recode result.
	ModeRecode Mode = "recode"
	// ModeWarn records and logs the error and nulls the output.
	ModeWarn Mode = "warn"
	// ModeExclude records the error and drops the row from the output.
	ModeExclude Mode = "exclude"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRaise, ModeCatch, ModeRecode, ModeWarn, ModeExclude:
		return m, nil
	}
	return "", fmt.Errorf("unknown row handler mode %q", s)
}

// RecodeFunc produces a substitute output for a failed row. It receives the
// map's input (the source value, or a Row for multi-source maps) and the
// error. An error from RecodeFunc aborts the mapper.
type RecodeFunc func(input any, err error) (any, error)

// RowHandler is the error policy of one field map.
type RowHandler struct {
	Mode   Mode
	Recode RecodeFunc
}

func Raise() RowHandler   { return RowHandler{Mode: ModeRaise} }
func Catch() RowHandler   { return RowHandler{Mode: ModeCatch} }
func Warn() RowHandler    { return RowHandler{Mode: ModeWarn} }
func Exclude() RowHandler { return RowHandler{Mode: ModeExclude} }

// Recode returns a handler substituting fn's result for failed rows.
func Recode(fn RecodeFunc) RowHandler {
	return RowHandler{Mode: ModeRecode, Recode: fn}
}

// RecordedError is one row failure kept by a non-raising handler.
type RecordedError struct {
	Mode     Mode
	Index    int
	TypeName string
	Message  string
	Fields   []string
	Err      error `json:"-"`
}

func (e RecordedError) String() string {
	return fmt.Sprintf("[%s] row %d %s: %s", e.Mode, e.Index, e.TypeName, e.Message)
}

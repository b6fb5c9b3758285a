package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldPipe      = "pipe"
	FieldSubject   = "subject"
	FieldNode      = "node"
	FieldRow       = "row"
	FieldField     = "field"
	FieldMode      = "mode"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("linked", logger.Fields("from", "a.main", "to", "b.main"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a node or pipe that failed.
func ErrorFields(node string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldNode:  node,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed node.
func DurationFields(node string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldNode:     node,
		FieldDuration: d.Milliseconds(),
	}
}

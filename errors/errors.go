package errors

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
)

// AppError is the unified flowkit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context (pipe, subject, row, field, value).
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Taxonomy constructors ---

// Coercion creates an error for a value that a field of the given kind could not convert.
func Coercion(kind string, value any, cause error) *AppError {
	msg := fmt.Sprintf("cannot coerce %#v to %s", value, kind)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &AppError{
		Code: ErrCodeCoercion, Message: msg, Cause: cause,
		Details: map[string]any{"kind": kind, "value": value},
	}
}

// DecimalCoercion creates an error for a decimal violating precision or scale.
func DecimalCoercion(value any, reason string) *AppError {
	return &AppError{
		Code: ErrCodeDecimalCoercion, Message: fmt.Sprintf("decimal %v: %s", value, reason),
		Details: map[string]any{"kind": "decimal", "value": value},
	}
}

// RequiredValue creates an error for a null in a required field.
func RequiredValue(field string) *AppError {
	return &AppError{
		Code: ErrCodeRequiredValue, Message: fmt.Sprintf("field %q requires a value", field),
		Details: map[string]any{"field": field},
	}
}

// MissingFields creates an error for a subject link whose source lacks columns.
func MissingFields(subject string, fields []string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingFields,
		Message: fmt.Sprintf("subject %q is missing fields: %s", subject, strings.Join(fields, ", ")),
		Details: map[string]any{"subject": subject, "fields": fields},
	}
}

// DagValidation creates an error for an invalid pipe graph.
func DagValidation(pipe, message string) *AppError {
	return &AppError{
		Code: ErrCodeDagValidation, Message: fmt.Sprintf("pipe %q: %s", pipe, message),
		Details: map[string]any{"pipe": pipe},
	}
}

// UncaughtMapping creates an error for a mapper that finished with caught errors.
func UncaughtMapping(count int) *AppError {
	return &AppError{
		Code:    ErrCodeUncaughtMapping,
		Message: fmt.Sprintf("mapper finished with %d caught error(s) and no policy to absorb them", count),
		Details: map[string]any{"count": count},
	}
}

// InvalidHeaderSeparator creates an error for a malformed tabular literal separator row.
func InvalidHeaderSeparator(line string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidHeaderSeparator,
		Message: fmt.Sprintf("invalid header separator %q: only '-', '|' and whitespace are allowed", line),
		Details: map[string]any{"line": line},
	}
}

// MissingKey creates an error for a lookup key with no matching row.
func MissingKey(pipe string, key []any) *AppError {
	return &AppError{
		Code:    ErrCodeMissingKey,
		Message: fmt.Sprintf("no lookup row for key %v", key),
		Details: map[string]any{"pipe": pipe, "key": key},
	}
}

// PortExists creates an error for a port declared twice on the same pipe.
func PortExists(pipe, direction, name string) *AppError {
	return &AppError{
		Code:    ErrCodePortExists,
		Message: fmt.Sprintf("pipe %q already declares %s %q", pipe, direction, name),
		Details: map[string]any{"pipe": pipe, "subject": name, "direction": direction},
	}
}

// NotFound creates an error for a named resource that does not exist.
func NotFound(resource, name string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, name),
		Details: map[string]any{"resource": resource, "name": name},
	}
}

// Configuration creates an error for invalid configuration.
func Configuration(message string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: message}
}

// ConnectionFailed creates an error for a storage engine that could not be reached.
func ConnectionFailed(driver string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("unable to connect using driver %s", driver),
		Retryable: true, Cause: cause,
		Details: map[string]any{"driver": driver},
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsCoercion reports whether err is a coercion failure of any kind.
func IsCoercion(err error) bool {
	return HasCode(err, ErrCodeCoercion) || HasCode(err, ErrCodeDecimalCoercion)
}

// TypeName returns the taxonomy name of err, or its Go type name when it is
// not part of the taxonomy.
func TypeName(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		if name, ok := typeNames[appErr.Code]; ok {
			return name
		}
		return string(appErr.Code)
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

// Is delegates to the standard library so callers only import one errors package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As delegates to the standard library so callers only import one errors package.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join delegates to the standard library.
func Join(errs ...error) error { return stderrors.Join(errs...) }

package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Field-level errors
const (
	// ErrCodeCoercion indicates a value could not be converted by a Field.
	ErrCodeCoercion ErrorCode = "COERCION_ERROR"
	// ErrCodeDecimalCoercion indicates a decimal exceeded its precision or scale.
	ErrCodeDecimalCoercion ErrorCode = "DECIMAL_COERCION_ERROR"
	// ErrCodeRequiredValue indicates a null was found in a required field.
	ErrCodeRequiredValue ErrorCode = "REQUIRED_VALUE"
)

// Subject and graph errors
const (
	// ErrCodeMissingFields indicates a subject link needs columns the source lacks.
	ErrCodeMissingFields ErrorCode = "MISSING_FIELDS"
	// ErrCodeDagValidation indicates the pipe graph is structurally invalid.
	ErrCodeDagValidation ErrorCode = "DAG_VALIDATION"
	// ErrCodePortExists indicates a source or target was declared twice.
	ErrCodePortExists ErrorCode = "PORT_EXISTS"
	// ErrCodeNotFound indicates a named pipe, port or component does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Mapping and fixture errors
const (
	// ErrCodeUncaughtMapping indicates a mapper finished with caught errors and no policy to absorb them.
	ErrCodeUncaughtMapping ErrorCode = "UNCAUGHT_MAPPING"
	// ErrCodeInvalidHeaderSeparator indicates a malformed tabular literal.
	ErrCodeInvalidHeaderSeparator ErrorCode = "INVALID_HEADER_SEPARATOR"
	// ErrCodeMissingKey indicates a lookup found no row for a key.
	ErrCodeMissingKey ErrorCode = "MISSING_KEY"
)

// Infrastructure errors
const (
	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeConnectionFailed indicates a failed connection to a storage engine.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
}

// typeNames maps codes to the taxonomy names reported in mapper error tables.
var typeNames = map[ErrorCode]string{
	ErrCodeCoercion:               "CoercionError",
	ErrCodeDecimalCoercion:        "DecimalCoercionError",
	ErrCodeRequiredValue:          "RequiredValueError",
	ErrCodeMissingFields:          "MissingFieldsError",
	ErrCodeDagValidation:          "DagValidationError",
	ErrCodeUncaughtMapping:        "UncaughtMappingError",
	ErrCodeInvalidHeaderSeparator: "InvalidHeaderSeparatorError",
	ErrCodeMissingKey:             "MissingKeyError",
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

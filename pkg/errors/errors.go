package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Parameter errors
	ErrInvalidK                = errors.New("invalid k: must be a positive integer")
	ErrInvalidSuppressionLevel = errors.New("invalid suppression level: must be between 0 and 100")
	ErrInvalidThreshold        = errors.New("invalid closeness threshold")
	ErrNoQuasiIdentifiers      = errors.New("no quasi-identifiers specified")
	ErrUnknownClosenessKind    = errors.New("unknown closeness kind")

	// Dataset errors
	ErrEmptyDataset      = errors.New("dataset is empty")
	ErrColumnNotFound    = errors.New("column not found")
	ErrRaggedRows        = errors.New("rows have inconsistent lengths")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrColumnLength      = errors.New("column length does not match dataset")
	ErrMissingHierarchy  = errors.New("no hierarchy defined for attribute")

	// Hierarchy errors
	ErrLevelExceeded       = errors.New("generalization level exceeds hierarchy depth")
	ErrValueNotInHierarchy = errors.New("value not present in hierarchy")
	ErrRaggedHierarchy     = errors.New("hierarchy levels have inconsistent lengths")

	// Anonymization errors
	ErrInfeasible = errors.New("privacy target cannot be met with the given hierarchies and suppression budget")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeParameter ErrorType = "parameter"
	ErrorTypeDataset   ErrorType = "dataset"
	ErrorTypeHierarchy ErrorType = "hierarchy"
	ErrorTypePrivacy   ErrorType = "privacy"
	ErrorTypeInternal  ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// NewParameterError creates a parameter validation error
func NewParameterError(code, message string) *AppError {
	return NewAppError(ErrorTypeParameter, code, message)
}

// NewDatasetError creates a dataset error
func NewDatasetError(code, message string) *AppError {
	return NewAppError(ErrorTypeDataset, code, message)
}

// NewHierarchyError creates a hierarchy error
func NewHierarchyError(code, message string) *AppError {
	return NewAppError(ErrorTypeHierarchy, code, message)
}

// NewPrivacyError creates a privacy error
func NewPrivacyError(code, message string) *AppError {
	return NewAppError(ErrorTypePrivacy, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// getDefaultHTTPStatus returns the default HTTP status for an error type
func getDefaultHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeParameter, ErrorTypeDataset, ErrorTypeHierarchy:
		return 400
	case ErrorTypePrivacy:
		return 422
	case ErrorTypeInternal:
		return 500
	default:
		return 500
	}
}

// ErrorResponse represents an error response for APIs
type ErrorResponse struct {
	Error     *AppError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
}

// Error codes for different error scenarios
const (
	// Parameter error codes
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidK         = "INVALID_K"
	CodeInvalidSuppLevel = "INVALID_SUPPRESSION_LEVEL"
	CodeInvalidThreshold = "INVALID_THRESHOLD"
	CodeMissingField     = "MISSING_FIELD"

	// Dataset error codes
	CodeEmptyDataset   = "EMPTY_DATASET"
	CodeColumnNotFound = "COLUMN_NOT_FOUND"
	CodeRaggedRows     = "RAGGED_ROWS"

	// Hierarchy error codes
	CodeLevelExceeded    = "LEVEL_EXCEEDED"
	CodeUnmappedValue    = "UNMAPPED_VALUE"
	CodeMissingHierarchy = "MISSING_HIERARCHY"

	// Privacy error codes
	CodeInfeasible = "INFEASIBLE"

	// Internal error codes
	CodeInternalError = "INTERNAL_ERROR"
)

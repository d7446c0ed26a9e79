package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// Error types for different categories of failures
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeNotImplemented    ErrorType = "not_implemented"
	ErrorTypeShapeMismatch     ErrorType = "shape_mismatch"
	ErrorTypeDimensionMismatch ErrorType = "dimension_mismatch"
	ErrorTypeComputation       ErrorType = "computation"
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeStorage           ErrorType = "storage"
)

// Sentinel causes. Errors built by the constructors below wrap one of these,
// so callers match with errors.Is regardless of operation and context.
var (
	ErrNotImplemented    = stderrors.New("not implemented")
	ErrShapeMismatch     = stderrors.New("shape mismatch")
	ErrDimensionMismatch = stderrors.New("dimension mismatch")
)

// StructuredError provides rich error context
type StructuredError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Stack     []uintptr
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new structured error
func New(errType ErrorType, operation, message string) *StructuredError {
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, operation, message string) *StructuredError {
	if err == nil {
		return nil
	}

	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     err,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// WithContext adds context information to an error
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, this function and the constructor
	return pcs[:n]
}

// TypeOf returns the ErrorType of the first StructuredError in err's chain,
// or "" when there is none.
func TypeOf(err error) ErrorType {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ""
}

// NewNotImplementedError reports an abstract operation invoked without an override.
func NewNotImplementedError(operation string) *StructuredError {
	return Wrap(ErrNotImplemented, ErrorTypeNotImplemented, operation, "method must be overridden")
}

// NewShapeMismatchError reports a feature whose extracted shape disagrees with
// the shape it declared for the same input.
func NewShapeMismatchError(operation string, declared, actual fmt.Stringer) *StructuredError {
	return Wrap(ErrShapeMismatch, ErrorTypeShapeMismatch, operation,
		fmt.Sprintf("declared %s, extracted %s", declared, actual)).
		WithContext("declared", declared.String()).
		WithContext("actual", actual.String())
}

// NewDimensionMismatchError reports two representations that cannot be compared.
func NewDimensionMismatchError(operation string, left, right fmt.Stringer) *StructuredError {
	return Wrap(ErrDimensionMismatch, ErrorTypeDimensionMismatch, operation,
		fmt.Sprintf("cannot compare %s with %s", left, right)).
		WithContext("left", left.String()).
		WithContext("right", right.String())
}

// NewValidationError creates a validation error
func NewValidationError(operation, message string) *StructuredError {
	return New(ErrorTypeValidation, operation, message)
}

// NewComputationError creates a computation error
func NewComputationError(operation, message string) *StructuredError {
	return New(ErrorTypeComputation, operation, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string) *StructuredError {
	return New(ErrorTypeConfiguration, operation, message)
}

// WrapComputationError wraps an error as a computation error
func WrapComputationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeComputation, operation, message)
}

// WrapStorageError wraps an error as a storage error
func WrapStorageError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeStorage, operation, message)
}

// Package errors provides structured error handling for Quasar
package errors

import (
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/quasar/pkg/strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal invariant violations
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeClassifyMismatch represents a value that does not fit a candidate type.
	// This is expected control flow during inference, never a hard failure.
	ErrorTypeClassifyMismatch ErrorType = "classify_mismatch"
	// ErrorTypeTypeMismatch represents a strict-mode build hitting a value that
	// does not fit the column's already-fixed type
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeDictionaryOverflow represents a dictionary exceeding its cardinality cap
	ErrorTypeDictionaryOverflow ErrorType = "dictionary_overflow"
	// ErrorTypeSchemaConflict represents duplicate column names or mismatched
	// row counts during dataset assembly
	ErrorTypeSchemaConflict ErrorType = "schema_conflict"
	// ErrorTypeUnsupportedWidening represents a widening the type lattice cannot
	// express. The lattice is total, so this always indicates an internal bug.
	ErrorTypeUnsupportedWidening ErrorType = "unsupported_widening"
)

// ErrClassifyMismatch is the sentinel returned when a raw value does not parse
// under a candidate type. It carries no stack and allocates nothing: inference
// compares against it millions of times on the hot path.
var ErrClassifyMismatch = errors.New("value does not match candidate type")

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a previously attached detail value, or nil
func (e *Error) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsRecoverable returns true if the error has a defined fallback: a dictionary
// overflow widens to plain text rather than failing the operation.
func IsRecoverable(err error) bool {
	return IsType(err, ErrorTypeDictionaryOverflow)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// SyntaxError indicates source text that does not parse
	SyntaxError ErrorCode = "SYNTAX_ERROR"
	// StructuralError indicates a parsed unit with an invalid top-level shape
	// (not exactly one function definition, or a disallowed declaration)
	StructuralError ErrorCode = "STRUCTURAL_ERROR"
	// NotFound indicates a missing hash, language, or mapping
	NotFound ErrorCode = "NOT_FOUND"
	// AmbiguousMapping indicates multiple mapping variants with none selected
	AmbiguousMapping ErrorCode = "AMBIGUOUS_MAPPING"
	// SchemaError indicates a stored record that is unreadable or incomplete
	SchemaError ErrorCode = "SCHEMA_ERROR"
	// ValidationError indicates a structurally incomplete stored function
	ValidationError ErrorCode = "VALIDATION_ERROR"
	// ExecutionError indicates a failure while running a resolved function
	ExecutionError ErrorCode = "EXECUTION_ERROR"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// PoolError represents a pool error with a stable code, message, and cause
type PoolError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // underlying error (not exported to JSON)
}

// New creates a new PoolError
func New(code ErrorCode, message string, cause error) *PoolError {
	return &PoolError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new PoolError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PoolError {
	return &PoolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *PoolError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PoolError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *PoolError) WithDetails(details interface{}) *PoolError {
	e.Details = details
	return e
}

// CodeOf returns the ErrorCode of err if it is (or wraps) a PoolError,
// or InternalError otherwise.
func CodeOf(err error) ErrorCode {
	var pe *PoolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	var le *List
	if errors.As(err, &le) {
		return le.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// List collects several independent violations so callers can report
// every problem found, not just the first. Schema and validation checks
// must enumerate all failures rather than stop at the first one.
type List struct {
	Code ErrorCode
	Errs []error
}

// NewList creates an empty List for the given code
func NewList(code ErrorCode) *List {
	return &List{Code: code}
}

// Add appends a violation; nil errors are ignored
func (l *List) Add(err error) {
	if err != nil {
		l.Errs = append(l.Errs, err)
	}
}

// Addf appends a formatted violation
func (l *List) Addf(format string, args ...interface{}) {
	l.Errs = append(l.Errs, fmt.Errorf(format, args...))
}

// Empty reports whether no violations were recorded
func (l *List) Empty() bool {
	return len(l.Errs) == 0
}

// Err returns the list as an error, or nil when empty
func (l *List) Err() error {
	if l.Empty() {
		return nil
	}
	return l
}

// Error implements the error interface, listing every violation
func (l *List) Error() string {
	if len(l.Errs) == 1 {
		return fmt.Sprintf("[%s] %v", l.Code, l.Errs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %d problems:", l.Code, len(l.Errs))
	for _, err := range l.Errs {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Messages returns every violation as a string slice
func (l *List) Messages() []string {
	out := make([]string, 0, len(l.Errs))
	for _, err := range l.Errs {
		out = append(out, err.Error())
	}
	return out
}

package errors

import "fmt"

// ClassifiedError represents a structured error with category and severity.
type ClassifiedError struct {
	category Category
	severity Severity
	message  string
	cause    error
}

// New creates a ClassifiedError with the given category and message.
// Severity defaults to SeverityError.
func New(category Category, message string) *ClassifiedError {
	return &ClassifiedError{category: category, severity: SeverityError, message: message}
}

// Newf creates a ClassifiedError with a formatted message.
func Newf(category Category, format string, args ...any) *ClassifiedError {
	return New(category, fmt.Sprintf(format, args...))
}

// Wrap creates a ClassifiedError wrapping an existing cause.
func Wrap(err error, category Category, message string) *ClassifiedError {
	return &ClassifiedError{category: category, severity: SeverityError, message: message, cause: err}
}

// Fatal marks the error as fatal and returns it for chaining.
func (e *ClassifiedError) Fatal() *ClassifiedError {
	e.severity = SeverityFatal
	return e
}

// Warning marks the error as a warning and returns it for chaining.
func (e *ClassifiedError) Warning() *ClassifiedError {
	e.severity = SeverityWarning
	return e
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Category returns the error category.
func (e *ClassifiedError) Category() Category { return e.category }

// Severity returns the error severity.
func (e *ClassifiedError) Severity() Severity { return e.severity }

// Message returns the error message without category decoration.
func (e *ClassifiedError) Message() string { return e.message }

// IsFatal checks if the error is fatal (should stop the pipeline).
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// Is implements error comparison for Go 1.13+ error handling.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// AsClassified attempts to convert an error to a ClassifiedError.
func AsClassified(err error) (*ClassifiedError, bool) {
	classified, ok := err.(*ClassifiedError)
	return classified, ok
}

// HasCategory checks if the error is a ClassifiedError of the given category.
func HasCategory(err error, category Category) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.category == category
	}
	return false
}

// IsFatal checks if the error is a ClassifiedError marked fatal.
func IsFatal(err error) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.IsFatal()
	}
	return false
}

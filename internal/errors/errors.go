package errors

import (
	"fmt"
)

// SagasuError is the structured error type for sagasu.
// It provides rich context for error handling, logging, and user presentation.
type SagasuError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Tokenizer, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SagasuError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SagasuError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SagasuError.
func (e *SagasuError) Is(target error) bool {
	if t, ok := target.(*SagasuError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SagasuError) WithDetail(key, value string) *SagasuError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SagasuError) WithSuggestion(suggestion string) *SagasuError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SagasuError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SagasuError {
	return &SagasuError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SagasuError from an existing error.
// The error's message becomes the SagasuError message.
func Wrap(code string, err error) *SagasuError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SagasuError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *SagasuError {
	return New(ErrCodeFileNotFound, message, cause)
}

// TokenizerError creates a tokenizer-subprocess error.
// Tokenizer errors are typically retryable.
func TokenizerError(message string, cause error) *SagasuError {
	return New(ErrCodeTokenizerUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SagasuError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SagasuError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a SagasuError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SagasuError); ok {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SagasuError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SagasuError.
// Returns empty string if not a SagasuError.
func GetCode(err error) string {
	if se, ok := err.(*SagasuError); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SagasuError.
// Returns empty string if not a SagasuError.
func GetCategory(err error) Category {
	if se, ok := err.(*SagasuError); ok {
		return se.Category
	}
	return ""
}

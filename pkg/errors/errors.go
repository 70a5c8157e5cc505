// Package errors provides typed errors for the context chunker
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error
	ErrConfig ErrorType = iota
	// ErrInput indicates an unreadable or unparseable payload
	ErrInput
	// ErrValidation indicates a value failed validation
	ErrValidation
	// ErrTokenizer indicates the exact tokenizer failed
	ErrTokenizer
	// ErrInternal indicates a logic defect during packing
	ErrInternal
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitInternal = 2
)

// CICDError is the base error type for all toolkit errors
type CICDError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *CICDError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *CICDError) Unwrap() error {
	return e.Cause
}

// MarshalJSON renders the error as the structured object written to the
// diagnostic stream on fatal failures.
func (e *CICDError) MarshalJSON() ([]byte, error) {
	body := struct {
		Type    string                 `json:"type"`
		Message string                 `json:"message"`
		Cause   string                 `json:"cause,omitempty"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Type:    errorTypeString(e.Type),
		Message: e.Message,
		Context: e.Context,
	}
	if e.Cause != nil {
		body.Cause = e.Cause.Error()
	}
	return json.Marshal(body)
}

// New creates a new CICDError
func New(errType ErrorType, message string, cause error) *CICDError {
	return &CICDError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *CICDError) WithContext(key string, value interface{}) *CICDError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var cicdErr *CICDError
	if err == nil {
		return false
	}
	if errors.As(err, &cicdErr) {
		return cicdErr.Type == errType
	}
	return false
}

// IsFatal reports whether the error must abort the invocation.
// Config and tokenizer problems are recovered locally and never fatal.
func IsFatal(err error) bool {
	var cicdErr *CICDError
	if !errors.As(err, &cicdErr) {
		return err != nil
	}

	switch cicdErr.Type {
	case ErrConfig, ErrTokenizer:
		return false
	default:
		return true
	}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsType(err, ErrInternal) {
		return ExitInternal
	}
	return ExitFailure
}

// Envelope wraps err in the {"error": {...}} object emitted on fatal failure.
// Errors that are not CICDErrors are reported as internal.
func Envelope(err error) map[string]*CICDError {
	var cicdErr *CICDError
	if !errors.As(err, &cicdErr) {
		cicdErr = InternalError("unexpected error", err)
	}
	return map[string]*CICDError{"error": cicdErr}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrInput:
		return "INPUT"
	case ErrValidation:
		return "VALIDATION"
	case ErrTokenizer:
		return "TOKENIZER"
	case ErrInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *CICDError {
	return New(ErrConfig, message, cause)
}

// InputError creates an input error
func InputError(message string, cause error) *CICDError {
	return New(ErrInput, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *CICDError {
	return New(ErrValidation, message, cause)
}

// TokenizerError creates a tokenizer error
func TokenizerError(message string, cause error) *CICDError {
	return New(ErrTokenizer, message, cause)
}

// InternalError creates an internal error
func InternalError(message string, cause error) *CICDError {
	return New(ErrInternal, message, cause)
}

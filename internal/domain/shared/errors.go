package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a domain error for an input that fails validation.
// Validation failures abort the operation with no partial state change.
func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewTransportError wraps a failed external call. The wrapped message is kept
// generic; in-memory aggregate state is left untouched by callers.
func NewTransportError(message string) *DomainError {
	return &DomainError{
		Code:    CodeTransport,
		Message: message,
	}
}

// Error codes shared across the domain
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeTransport  = "TRANSPORT_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// IsValidationError reports whether err is a validation domain error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == CodeValidation
	}
	return false
}

// IsTransportError reports whether err is a transport domain error
func IsTransportError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == CodeTransport
	}
	return false
}

package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeInvoiceHeld is used when an invoice is already on another draft payment
	ErrCodeInvoiceHeld = "ERR_INVOICE_HELD"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeAllocationsStale is used when a finalize attempt raced invoice changes
	ErrCodeAllocationsStale = "ERR_ALLOCATIONS_STALE"
	// ErrCodeExceedsAmountDue is used when an allocation exceeds the open balance
	ErrCodeExceedsAmountDue = "ERR_EXCEEDS_AMOUNT_DUE"
	// ErrCodeNotEligible is used when an invoice cannot take a payment
	ErrCodeNotEligible = "ERR_NOT_ELIGIBLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvoiceHeld:         http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
	ErrCodeAllocationsStale: http.StatusConflict,
	ErrCodeExceedsAmountDue: http.StatusUnprocessableEntity,
	ErrCodeNotEligible:      http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized HTTP
// error codes
var DomainErrorCodeMapping = map[string]string{
	// Lookup failures
	"NOT_FOUND":             ErrCodeNotFound,
	"LINE_NOT_FOUND":        ErrCodeNotFound,
	"APPLICATION_NOT_FOUND": ErrCodeNotFound,

	// Concurrency
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"ALLOCATIONS_STALE":    ErrCodeAllocationsStale,

	// Malformed or missing input
	"INVALID_INVOICE_NUMBER": ErrCodeInvalidInput,
	"INVALID_PAYMENT_NUMBER": ErrCodeInvalidInput,
	"INVALID_RECEIPT_NUMBER": ErrCodeInvalidInput,
	"INVALID_SUPPLIER":       ErrCodeInvalidInput,
	"INVALID_CURRENCY":       ErrCodeInvalidInput,
	"INVALID_EXCHANGE_RATE":  ErrCodeInvalidInput,
	"INVALID_INVOICE_DATE":   ErrCodeInvalidInput,
	"INVALID_PAYMENT_DATE":   ErrCodeInvalidInput,
	"INVALID_RECEIPT_DATE":   ErrCodeInvalidInput,
	"INVALID_PAYMENT_TERMS":  ErrCodeInvalidInput,
	"INVALID_PAYMENT_METHOD": ErrCodeInvalidInput,
	"INVALID_APPROVAL_STATUS": ErrCodeInvalidInput,
	"VALIDATION_ERROR":        ErrCodeValidation,
	"BAD_REQUEST":             ErrCodeBadRequest,

	// State machine violations
	"INVALID_STATE":   ErrCodeInvalidState,
	"INVALID_INVOICE": ErrCodeInvalidState,
	"INVALID_PAYMENT": ErrCodeInvalidState,
	"INVALID_RECEIPT": ErrCodeInvalidState,

	// Business rules
	"EMPTY_RECEIPT":         ErrCodeBusinessRule,
	"NO_BILLABLE_LINES":     ErrCodeBusinessRule,
	"LAST_LINE":             ErrCodeBusinessRule,
	"HAS_PAYMENTS":          ErrCodeBusinessRule,
	"NO_APPLICATIONS":       ErrCodeBusinessRule,
	"UNAPPLIED_AMOUNT":      ErrCodeBusinessRule,
	"DUPLICATE_APPLICATION": ErrCodeBusinessRule,
	"CURRENCY_MISMATCH":     ErrCodeBusinessRule,
	"SUPPLIER_MISMATCH":     ErrCodeBusinessRule,
	"TENANT_MISMATCH":       ErrCodeBusinessRule,
	"EXCEEDS_AMOUNT_DUE":    ErrCodeExceedsAmountDue,
	"INVOICE_NOT_ELIGIBLE":  ErrCodeNotEligible,

	"INTERNAL_ERROR": ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

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

// Request error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidRequest is used when request binding validation fails
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Billing rule error codes
const (
	// ErrCodeValidation is used when domain input is malformed
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeReference is used when selected ids cannot be invoiced
	ErrCodeReference = "ERR_REFERENCE"
	// ErrCodeInvalidInvoiceNumber is used for numbers not of the form YYYYSS
	ErrCodeInvalidInvoiceNumber = "ERR_INVALID_INVOICE_NUMBER"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking or number claiming fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeImmutable is used when a published company revision would change
	ErrCodeImmutable = "ERR_IMMUTABLE"
	// ErrCodeCustomerHasBillingHistory is used when deleting an invoiced customer
	ErrCodeCustomerHasBillingHistory = "ERR_CUSTOMER_HAS_BILLING_HISTORY"
	// ErrCodeTaskBilled is used when deleting a billed task without force
	ErrCodeTaskBilled = "ERR_TASK_BILLED"
	// ErrCodeDuplicateRequest is used when an Idempotency-Key was already seen
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	// Domain rule violations -> 422 Unprocessable Entity
	ErrCodeValidation:           http.StatusUnprocessableEntity,
	ErrCodeReference:            http.StatusUnprocessableEntity,
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeInvalidInvoiceNumber: http.StatusBadRequest,

	ErrCodeNotFound:                  http.StatusNotFound,
	ErrCodeAlreadyExists:             http.StatusConflict,
	ErrCodeConflict:                  http.StatusConflict,
	ErrCodeConcurrencyConflict:       http.StatusConflict,
	ErrCodeImmutable:                 http.StatusConflict,
	ErrCodeCustomerHasBillingHistory: http.StatusConflict,
	ErrCodeTaskBilled:                http.StatusConflict,
	ErrCodeDuplicateRequest:          http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                    ErrCodeNotFound,
	"ALREADY_EXISTS":               ErrCodeAlreadyExists,
	"INVALID_INPUT":                ErrCodeValidation,
	"INVALID_STATE":                ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":         ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":             ErrCodeValidation,
	"REFERENCE_ERROR":              ErrCodeReference,
	"IMMUTABILITY_VIOLATION":       ErrCodeImmutable,
	"INVALID_INVOICE_NUMBER":       ErrCodeInvalidInvoiceNumber,
	"CUSTOMER_HAS_BILLING_HISTORY": ErrCodeCustomerHasBillingHistory,
	"TASK_BILLED":                  ErrCodeTaskBilled,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

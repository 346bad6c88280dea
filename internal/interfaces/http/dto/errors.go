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
	// ErrCodeForbidden is used when the caller lacks permission
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
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeSeriesInactive is used when allocating from a deactivated series
	ErrCodeSeriesInactive = "ERR_SERIES_INACTIVE"
	// ErrCodeSettlementLocked is used when mutating a paid settlement
	ErrCodeSettlementLocked = "ERR_SETTLEMENT_LOCKED"
	// ErrCodeEmptySettlement is used when issuing a settlement without records
	ErrCodeEmptySettlement = "ERR_EMPTY_SETTLEMENT"
	// ErrCodeConfigurationMissing is used when the tenant ledger setup is absent
	ErrCodeConfigurationMissing = "ERR_CONFIGURATION_MISSING"
)

// Numbering error codes
const (
	// ErrCodeCorrelationGap is used when a proposed number would leave a gap
	ErrCodeCorrelationGap = "ERR_CORRELATION_GAP"
	// ErrCodeDuplicateNumber is used when a proposed number is already taken
	ErrCodeDuplicateNumber = "ERR_DUPLICATE_NUMBER"
	// ErrCodeAlreadyAssigned is used when a record belongs to another settlement
	ErrCodeAlreadyAssigned = "ERR_ALREADY_ASSIGNED"
	// ErrCodeAllocationConflict is used when allocation retries are exhausted
	ErrCodeAllocationConflict = "ERR_ALLOCATION_CONFLICT"
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

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeSeriesInactive:       http.StatusUnprocessableEntity,
	ErrCodeSettlementLocked:     http.StatusUnprocessableEntity,
	ErrCodeEmptySettlement:      http.StatusUnprocessableEntity,
	ErrCodeConfigurationMissing: http.StatusUnprocessableEntity,

	// Numbering conflicts -> 409 Conflict
	ErrCodeCorrelationGap:     http.StatusConflict,
	ErrCodeDuplicateNumber:    http.StatusConflict,
	ErrCodeAlreadyAssigned:    http.StatusConflict,
	ErrCodeAllocationConflict: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps raw domain error codes to the standardized codes
// carried on the wire
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_STATE":  ErrCodeInvalidState,

	// Field-level validation failures raised by the domain layer
	"INVALID_INPUT":              ErrCodeInvalidInput,
	"INVALID_NAME":               ErrCodeInvalidInput,
	"INVALID_PREFIX":             ErrCodeInvalidInput,
	"INVALID_YEAR":               ErrCodeInvalidInput,
	"INVALID_NUMBER":             ErrCodeInvalidInput,
	"INVALID_DOCUMENT_TYPE":      ErrCodeInvalidInput,
	"INVALID_DOCUMENT":           ErrCodeInvalidInput,
	"INVALID_SERIES":             ErrCodeInvalidInput,
	"INVALID_SETTLEMENT":         ErrCodeInvalidInput,
	"INVALID_OWNER":              ErrCodeInvalidInput,
	"INVALID_PERIOD":             ErrCodeInvalidInput,
	"INVALID_AMOUNT":             ErrCodeInvalidInput,
	"INVALID_RATE":               ErrCodeInvalidInput,
	"INVALID_CATEGORY":           ErrCodeInvalidInput,
	"INVALID_QUANTITY":           ErrCodeInvalidInput,
	"INVALID_CONVERSION_RATE":    ErrCodeInvalidInput,
	"INVALID_COMMISSION_TYPE":    ErrCodeInvalidInput,
	"INVALID_CLEANING_TYPE":      ErrCodeInvalidInput,
	"INVALID_CLEANING_RECIPIENT": ErrCodeInvalidInput,

	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"SERIES_INACTIVE":       ErrCodeSeriesInactive,
	"SETTLEMENT_LOCKED":     ErrCodeSettlementLocked,
	"EMPTY_SETTLEMENT":      ErrCodeEmptySettlement,
	"CONFIGURATION_MISSING": ErrCodeConfigurationMissing,
	"CORRELATION_GAP":       ErrCodeCorrelationGap,
	"DUPLICATE_NUMBER":      ErrCodeDuplicateNumber,
	"ALREADY_ASSIGNED":      ErrCodeAlreadyAssigned,
	"ALLOCATION_CONFLICT":   ErrCodeAllocationConflict,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
}

// NormalizeErrorCode converts a raw domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

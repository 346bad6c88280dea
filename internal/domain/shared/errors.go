package shared

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

// Common domain errors
var (
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists        = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput         = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict  = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState         = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrSeriesInactive       = NewDomainError("SERIES_INACTIVE", "Numbering series is deactivated")
	ErrSettlementLocked     = NewDomainError("SETTLEMENT_LOCKED", "Settlement is paid and can no longer change")
	ErrCorrelationGap       = NewDomainError("CORRELATION_GAP", "Document number would leave a gap in the series")
	ErrDuplicateNumber      = NewDomainError("DUPLICATE_NUMBER", "Document number already issued in this series")
	ErrAlreadyAssigned      = NewDomainError("ALREADY_ASSIGNED", "Record already belongs to another settlement")
	ErrEmptySettlement      = NewDomainError("EMPTY_SETTLEMENT", "Settlement has no reservations or expenses assigned")
	ErrConfigurationMissing = NewDomainError("CONFIGURATION_MISSING", "Tenant ledger configuration not found")
	ErrAllocationConflict   = NewDomainError("ALLOCATION_CONFLICT", "Number allocation failed after repeated conflicts")
)

package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
)

// DocumentType tags a numbering series with the kind of document it produces
type DocumentType string

const (
	DocumentTypeStandard   DocumentType = "STANDARD"    // Regular invoices
	DocumentTypeCreditNote DocumentType = "CREDIT_NOTE" // Corrective documents
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeStandard, DocumentTypeCreditNote:
		return true
	}
	return false
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// DefaultPrefix returns the prefix used when a default series is created lazily
func (t DocumentType) DefaultPrefix() string {
	if t == DocumentTypeCreditNote {
		return "R"
	}
	return "F"
}

// FormatDocumentCode builds the human-readable document code:
// prefix, two-digit year, number zero-padded to four digits.
// Prefix F, year 2026, number 7 -> F260007.
func FormatDocumentCode(prefix string, year, number int) string {
	return fmt.Sprintf("%s%02d%04d", prefix, year%100, number)
}

// Series represents one numbering stream for a document type.
// The counter never decreases; a yearly reset only sets it back to zero
// at the first allocation of a new calendar year.
type Series struct {
	shared.TenantAggregateRoot
	Name               string       `gorm:"type:varchar(100);not null"`
	DocumentType       DocumentType `gorm:"type:varchar(20);not null;index"`
	Prefix             string       `gorm:"type:varchar(10);not null"`
	Year               int          `gorm:"not null"`
	CurrentNumber      int          `gorm:"not null;default:0"`
	ResetYearly        bool         `gorm:"not null;default:true"`
	LastResetYear      int          `gorm:"not null"`
	IsDefault          bool         `gorm:"not null;default:false;index"`
	IsActive           bool         `gorm:"not null;default:true;index"`
	HasIssuedDocuments bool         `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Series) TableName() string {
	return "numbering_series"
}

// NewSeries creates a new numbering series starting at zero
func NewSeries(tenantID uuid.UUID, name string, docType DocumentType, prefix string, year int, resetYearly, isDefault bool) (*Series, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Series name cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Document type is not valid")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, shared.NewDomainError("INVALID_PREFIX", "Series prefix cannot be empty")
	}
	if len(prefix) > 10 {
		return nil, shared.NewDomainError("INVALID_PREFIX", "Series prefix cannot exceed 10 characters")
	}
	if year < 2000 || year > 2200 {
		return nil, shared.NewDomainError("INVALID_YEAR", "Series year is out of range")
	}

	s := &Series{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		DocumentType:        docType,
		Prefix:              prefix,
		Year:                year,
		CurrentNumber:       0,
		ResetYearly:         resetYearly,
		LastResetYear:       year,
		IsDefault:           isDefault,
		IsActive:            true,
	}

	s.AddDomainEvent(NewSeriesCreatedEvent(s))

	return s, nil
}

// NewDefaultSeries creates the lazily-provisioned default series for a document type
func NewDefaultSeries(tenantID uuid.UUID, docType DocumentType, year int) (*Series, error) {
	name := "Invoices"
	if docType == DocumentTypeCreditNote {
		name = "Credit notes"
	}
	return NewSeries(tenantID, name, docType, docType.DefaultPrefix(), year, true, true)
}

// resetPending reports whether a yearly reset would apply at the given time
func (s *Series) resetPending(now time.Time) bool {
	return s.ResetYearly && s.LastResetYear != now.Year()
}

// applyReset sets the counter back to zero for a new calendar year
func (s *Series) applyReset(now time.Time) {
	s.CurrentNumber = 0
	s.Year = now.Year()
	s.LastResetYear = now.Year()
}

// Allocate performs the yearly-reset check and increments the counter by
// exactly one, returning the new number and its formatted code. Callers must
// run this inside a storage transaction holding the series row lock.
func (s *Series) Allocate(now time.Time) (int, string, error) {
	if !s.IsActive {
		return 0, "", shared.ErrSeriesInactive
	}

	if s.resetPending(now) {
		s.applyReset(now)
	}

	s.CurrentNumber++
	s.UpdatedAt = now
	s.IncrementVersion()

	code := FormatDocumentCode(s.Prefix, s.Year, s.CurrentNumber)
	s.AddDomainEvent(NewNumberAllocatedEvent(s.TenantID, s.ID, s.CurrentNumber, code))

	return s.CurrentNumber, code, nil
}

// PeekNext computes what Allocate would currently return without mutating
// the series, applying pending-reset logic read-only.
func (s *Series) PeekNext(now time.Time) (int, string, error) {
	if !s.IsActive {
		return 0, "", shared.ErrSeriesInactive
	}

	year := s.Year
	next := s.CurrentNumber + 1
	if s.resetPending(now) {
		year = now.Year()
		next = 1
	}

	return next, FormatDocumentCode(s.Prefix, year, next), nil
}

// ValidateCorrelation checks a manually proposed number against the gap-free
// ordering invariant. Duplicate detection against issued documents is a
// separate storage-level check.
func (s *Series) ValidateCorrelation(proposed int) error {
	if proposed <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Proposed number must be positive")
	}
	if proposed > s.CurrentNumber+1 {
		return shared.ErrCorrelationGap
	}
	return nil
}

// MarkDocumentIssued records that at least one document exists in this series.
// From this point the prefix and document type are frozen.
func (s *Series) MarkDocumentIssued() {
	if !s.HasIssuedDocuments {
		s.HasIssuedDocuments = true
		s.UpdatedAt = time.Now()
	}
}

// Rename changes the display name of the series
func (s *Series) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Series name cannot be empty")
	}
	s.Name = name
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// ChangePrefix updates the prefix, refused once documents have been issued
func (s *Series) ChangePrefix(prefix string) error {
	if s.HasIssuedDocuments {
		return shared.NewDomainError("INVALID_STATE", "Cannot change prefix of a series with issued documents")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || len(prefix) > 10 {
		return shared.NewDomainError("INVALID_PREFIX", "Series prefix must be 1-10 characters")
	}
	s.Prefix = prefix
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Deactivate disables the series for further allocations. Series are never
// deleted once documents exist against them.
func (s *Series) Deactivate() error {
	if !s.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Series is already inactive")
	}
	s.IsActive = false
	s.IsDefault = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

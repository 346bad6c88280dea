package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/rentalsuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DocumentStatus represents the status of an issued document
type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "DRAFT"  // Reserved but not yet formalized
	DocumentStatusIssued DocumentStatus = "ISSUED" // Formally issued, number is final
	DocumentStatusVoid   DocumentStatus = "VOID"   // Cancelled, number stays burned
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusIssued, DocumentStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the document is in a terminal state
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusVoid
}

// CanVoid returns true if the document can be voided in this status
func (s DocumentStatus) CanVoid() bool {
	return s == DocumentStatusDraft || s == DocumentStatusIssued
}

// IssuedDocument represents an invoice or credit note minted from a series.
// Numbers within a series form a gap-free ascending sequence among all
// non-draft documents; the same (series, number) pair never repeats.
type IssuedDocument struct {
	shared.TenantAggregateRoot
	SeriesID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_document_series_number,priority:1"`
	Number       int             `gorm:"not null;uniqueIndex:idx_document_series_number,priority:2"`
	FullNumber   string          `gorm:"type:varchar(20);not null;index"`
	Status       DocumentStatus  `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PeriodYear   int             `gorm:"not null"`
	PeriodMonth  int             `gorm:"not null"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IssuedAt     *time.Time
	VoidedAt     *time.Time
	SettlementID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (IssuedDocument) TableName() string {
	return "issued_documents"
}

// NewIssuedDocument creates a document already in ISSUED status, carrying a
// number freshly minted by the allocator.
func NewIssuedDocument(
	tenantID uuid.UUID,
	seriesID uuid.UUID,
	number int,
	fullNumber string,
	ownerID uuid.UUID,
	periodYear, periodMonth int,
	total valueobject.Money,
) (*IssuedDocument, error) {
	if seriesID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SERIES", "Series ID cannot be empty")
	}
	if number <= 0 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number must be positive")
	}
	if fullNumber == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Formatted document code is required")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if periodMonth < 1 || periodMonth > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period month must be between 1 and 12")
	}

	now := time.Now()
	doc := &IssuedDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SeriesID:            seriesID,
		Number:              number,
		FullNumber:          fullNumber,
		Status:              DocumentStatusIssued,
		OwnerID:             ownerID,
		PeriodYear:          periodYear,
		PeriodMonth:         periodMonth,
		Total:               total.Amount(),
		IssuedAt:            &now,
	}

	doc.AddDomainEvent(NewDocumentIssuedEvent(doc))

	return doc, nil
}

// LinkSettlement attaches the settlement this document formalizes
func (d *IssuedDocument) LinkSettlement(settlementID uuid.UUID) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot link a voided document")
	}
	if settlementID == uuid.Nil {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Settlement ID cannot be empty")
	}
	d.SettlementID = &settlementID
	d.UpdatedAt = time.Now()
	return nil
}

// Void cancels the document. The number stays burned so the series
// sequence keeps its ordering.
func (d *IssuedDocument) Void() error {
	if !d.Status.CanVoid() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot void document in %s status", d.Status))
	}

	now := time.Now()
	d.Status = DocumentStatusVoid
	d.VoidedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentVoidedEvent(d))

	return nil
}

// GetTotalMoney returns the document total as Money
func (d *IssuedDocument) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(d.Total)
}

// IsVoid returns true if the document has been voided
func (d *IssuedDocument) IsVoid() bool {
	return d.Status == DocumentStatusVoid
}

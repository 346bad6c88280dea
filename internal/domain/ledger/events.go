package ledger

import (
	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SeriesCreatedEvent is raised when a new numbering series is created
type SeriesCreatedEvent struct {
	shared.BaseDomainEvent
	SeriesID     uuid.UUID    `json:"series_id"`
	DocumentType DocumentType `json:"document_type"`
	Prefix       string       `json:"prefix"`
	Year         int          `json:"year"`
	IsDefault    bool         `json:"is_default"`
}

// EventType returns the event type name
func (e *SeriesCreatedEvent) EventType() string {
	return "SeriesCreated"
}

// NewSeriesCreatedEvent creates a new SeriesCreatedEvent
func NewSeriesCreatedEvent(s *Series) *SeriesCreatedEvent {
	return &SeriesCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SeriesCreated", "Series", s.ID, s.TenantID),
		SeriesID:        s.ID,
		DocumentType:    s.DocumentType,
		Prefix:          s.Prefix,
		Year:            s.Year,
		IsDefault:       s.IsDefault,
	}
}

// NumberAllocatedEvent is raised when a series hands out a new number.
// The allocation itself runs inside a storage transaction, so the event is
// built from the allocation result rather than drained from the aggregate.
type NumberAllocatedEvent struct {
	shared.BaseDomainEvent
	SeriesID   uuid.UUID `json:"series_id"`
	Number     int       `json:"number"`
	FullNumber string    `json:"full_number"`
}

// EventType returns the event type name
func (e *NumberAllocatedEvent) EventType() string {
	return "NumberAllocated"
}

// NewNumberAllocatedEvent creates a new NumberAllocatedEvent
func NewNumberAllocatedEvent(tenantID, seriesID uuid.UUID, number int, fullNumber string) *NumberAllocatedEvent {
	return &NumberAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("NumberAllocated", "Series", seriesID, tenantID),
		SeriesID:        seriesID,
		Number:          number,
		FullNumber:      fullNumber,
	}
}

// DocumentIssuedEvent is raised when an invoice or credit note is issued
type DocumentIssuedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID       `json:"document_id"`
	SeriesID   uuid.UUID       `json:"series_id"`
	FullNumber string          `json:"full_number"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	Total      decimal.Decimal `json:"total"`
}

// EventType returns the event type name
func (e *DocumentIssuedEvent) EventType() string {
	return "DocumentIssued"
}

// NewDocumentIssuedEvent creates a new DocumentIssuedEvent
func NewDocumentIssuedEvent(d *IssuedDocument) *DocumentIssuedEvent {
	return &DocumentIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentIssued", "IssuedDocument", d.ID, d.TenantID),
		DocumentID:      d.ID,
		SeriesID:        d.SeriesID,
		FullNumber:      d.FullNumber,
		OwnerID:         d.OwnerID,
		Total:           d.Total,
	}
}

// DocumentVoidedEvent is raised when an issued document is voided
type DocumentVoidedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID `json:"document_id"`
	SeriesID   uuid.UUID `json:"series_id"`
	FullNumber string    `json:"full_number"`
}

// EventType returns the event type name
func (e *DocumentVoidedEvent) EventType() string {
	return "DocumentVoided"
}

// NewDocumentVoidedEvent creates a new DocumentVoidedEvent
func NewDocumentVoidedEvent(d *IssuedDocument) *DocumentVoidedEvent {
	return &DocumentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentVoided", "IssuedDocument", d.ID, d.TenantID),
		DocumentID:      d.ID,
		SeriesID:        d.SeriesID,
		FullNumber:      d.FullNumber,
	}
}

// SettlementCreatedEvent is raised when a draft settlement is created
type SettlementCreatedEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID `json:"settlement_id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
}

// EventType returns the event type name
func (e *SettlementCreatedEvent) EventType() string {
	return "SettlementCreated"
}

// NewSettlementCreatedEvent creates a new SettlementCreatedEvent
func NewSettlementCreatedEvent(s *Settlement) *SettlementCreatedEvent {
	return &SettlementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SettlementCreated", "Settlement", s.ID, s.TenantID),
		SettlementID:    s.ID,
		OwnerID:         s.OwnerID,
		Year:            s.Year,
		Month:           s.Month,
	}
}

// SettlementIssuedEvent is raised when a settlement is formalized
type SettlementIssuedEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	NetAmount    decimal.Decimal `json:"net_amount"`
}

// EventType returns the event type name
func (e *SettlementIssuedEvent) EventType() string {
	return "SettlementIssued"
}

// NewSettlementIssuedEvent creates a new SettlementIssuedEvent
func NewSettlementIssuedEvent(s *Settlement) *SettlementIssuedEvent {
	var invoiceID uuid.UUID
	if s.InvoiceID != nil {
		invoiceID = *s.InvoiceID
	}
	return &SettlementIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SettlementIssued", "Settlement", s.ID, s.TenantID),
		SettlementID:    s.ID,
		OwnerID:         s.OwnerID,
		InvoiceID:       invoiceID,
		NetAmount:       s.NetAmount,
	}
}

// SettlementPaidEvent is raised when payment is confirmed for a settlement
type SettlementPaidEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	NetAmount    decimal.Decimal `json:"net_amount"`
}

// EventType returns the event type name
func (e *SettlementPaidEvent) EventType() string {
	return "SettlementPaid"
}

// NewSettlementPaidEvent creates a new SettlementPaidEvent
func NewSettlementPaidEvent(s *Settlement) *SettlementPaidEvent {
	return &SettlementPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SettlementPaid", "Settlement", s.ID, s.TenantID),
		SettlementID:    s.ID,
		OwnerID:         s.OwnerID,
		NetAmount:       s.NetAmount,
	}
}

// SettlementVoidedEvent is raised when a settlement is cancelled
type SettlementVoidedEvent struct {
	shared.BaseDomainEvent
	SettlementID   uuid.UUID        `json:"settlement_id"`
	OwnerID        uuid.UUID        `json:"owner_id"`
	PreviousStatus SettlementStatus `json:"previous_status"`
}

// EventType returns the event type name
func (e *SettlementVoidedEvent) EventType() string {
	return "SettlementVoided"
}

// NewSettlementVoidedEvent creates a new SettlementVoidedEvent
func NewSettlementVoidedEvent(s *Settlement, previousStatus SettlementStatus) *SettlementVoidedEvent {
	return &SettlementVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SettlementVoided", "Settlement", s.ID, s.TenantID),
		SettlementID:    s.ID,
		OwnerID:         s.OwnerID,
		PreviousStatus:  previousStatus,
	}
}

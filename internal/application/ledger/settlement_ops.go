package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentalsuite/backend/internal/domain/ledger"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/rentalsuite/backend/internal/domain/shared/valueobject"
)

// RecordType distinguishes the two assignable record kinds
type RecordType string

const (
	RecordTypeReservation RecordType = "RESERVATION"
	RecordTypeExpense     RecordType = "EXPENSE"
)

// IsValid checks if the record type is valid
func (t RecordType) IsValid() bool {
	return t == RecordTypeReservation || t == RecordTypeExpense
}

// SettlementResponse represents a settlement in API responses
type SettlementResponse struct {
	ID                 uuid.UUID       `json:"id"`
	OwnerID            uuid.UUID       `json:"owner_id"`
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	Status             string          `json:"status"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalCleaning      decimal.Decimal `json:"total_cleaning"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	TotalCommissionTax decimal.Decimal `json:"total_commission_tax"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	TotalRetention     decimal.Decimal `json:"total_retention"`
	NetAmount          decimal.Decimal `json:"net_amount"`
	InvoiceID          *uuid.UUID      `json:"invoice_id,omitempty"`
	InvoiceNumber      string          `json:"invoice_number,omitempty"`
	IssuedAt           *time.Time      `json:"issued_at,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

// SettlementDetailResponse adds assigned records and the derived
// occupancy metrics to the settlement view
type SettlementDetailResponse struct {
	SettlementResponse
	Metrics      ledger.SettlementMetrics    `json:"metrics"`
	Reservations []ReservationRecordResponse `json:"reservations"`
	Expenses     []ExpenseRecordResponse     `json:"expenses"`
}

// ReservationRecordResponse represents an assigned reservation in responses
type ReservationRecordResponse struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	CheckIn       time.Time       `json:"check_in"`
	CheckOut      time.Time       `json:"check_out"`
	Nights        int             `json:"nights"`
	GrossEarnings decimal.Decimal `json:"gross_earnings"`
	CleaningFee   decimal.Decimal `json:"cleaning_fee"`
	Platform      string          `json:"platform,omitempty"`
}

// ExpenseRecordResponse represents an assigned expense in responses
type ExpenseRecordResponse struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	IncurredOn  time.Time       `json:"incurred_on"`
}

func toSettlementResponse(s *ledger.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:                 s.ID,
		OwnerID:            s.OwnerID,
		Year:               s.Year,
		Month:              s.Month,
		Status:             s.Status.String(),
		TotalIncome:        s.TotalIncome,
		TotalCleaning:      s.TotalCleaning,
		TotalCommission:    s.TotalCommission,
		TotalCommissionTax: s.TotalCommissionTax,
		TotalExpenses:      s.TotalExpenses,
		TotalRetention:     s.TotalRetention,
		NetAmount:          s.NetAmount,
		InvoiceID:          s.InvoiceID,
		IssuedAt:           s.IssuedAt,
		PaidAt:             s.PaidAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		Version:            s.Version,
	}
}

func toReservationResponse(r *ledger.ReservationRecord) ReservationRecordResponse {
	return ReservationRecordResponse{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Nights:        r.Nights,
		GrossEarnings: r.GrossEarnings,
		CleaningFee:   r.CleaningFee,
		Platform:      r.Platform,
	}
}

func toExpenseResponse(e *ledger.ExpenseRecord) ExpenseRecordResponse {
	return ExpenseRecordResponse{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Description: e.Description,
		Category:    e.Category.String(),
		Amount:      e.Amount,
		TaxAmount:   e.TaxAmount,
		IncurredOn:  e.IncurredOn,
	}
}

// CreateSettlementRequest selects the records to settle for one owner
// and period
type CreateSettlementRequest struct {
	OwnerID        uuid.UUID   `json:"owner_id" binding:"required"`
	Year           int         `json:"year" binding:"required"`
	Month          int         `json:"month" binding:"required"`
	ReservationIDs []uuid.UUID `json:"reservation_ids"`
	ExpenseIDs     []uuid.UUID `json:"expense_ids"`
}

// SettlementListFilter defines filtering options for settlement list queries
type SettlementListFilter struct {
	OwnerID  *uuid.UUID `form:"owner_id"`
	Year     *int       `form:"year"`
	Month    *int       `form:"month"`
	Status   string     `form:"status"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

func (f SettlementListFilter) toSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OwnerID != nil {
		filter.Filters["owner_id"] = *f.OwnerID
	}
	if f.Year != nil {
		filter.Filters["year"] = *f.Year
	}
	if f.Month != nil {
		filter.Filters["month"] = *f.Month
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter
}

// CreateSettlement creates a draft settlement, claims the selected records
// and computes the initial totals
func (s *LedgerService) CreateSettlement(ctx context.Context, tenantID uuid.UUID, req CreateSettlementRequest) (*SettlementResponse, error) {
	settlement, err := ledger.NewSettlement(tenantID, req.OwnerID, req.Year, req.Month)
	if err != nil {
		return nil, err
	}

	if err := s.settlementRepo.Save(ctx, settlement); err != nil {
		return nil, err
	}

	for _, id := range req.ReservationIDs {
		if err := s.assignReservation(ctx, tenantID, settlement, id); err != nil {
			s.releaseDraft(ctx, tenantID, settlement)
			return nil, err
		}
	}
	for _, id := range req.ExpenseIDs {
		if err := s.assignExpense(ctx, tenantID, settlement, id); err != nil {
			s.releaseDraft(ctx, tenantID, settlement)
			return nil, err
		}
	}

	if err := s.recompute(ctx, tenantID, settlement); err != nil {
		s.releaseDraft(ctx, tenantID, settlement)
		return nil, err
	}
	s.publishEvents(ctx, settlement)

	return toSettlementResponse(settlement), nil
}

// GetSettlement returns the settlement with its records and derived metrics
func (s *LedgerService) GetSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*SettlementDetailResponse, error) {
	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservationRepo.FindBySettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.FindBySettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}

	detail := &SettlementDetailResponse{
		SettlementResponse: *toSettlementResponse(settlement),
		Metrics:            settlement.Metrics(reservations),
		Reservations:       make([]ReservationRecordResponse, len(reservations)),
		Expenses:           make([]ExpenseRecordResponse, len(expenses)),
	}
	for i := range reservations {
		detail.Reservations[i] = toReservationResponse(&reservations[i])
	}
	for i := range expenses {
		detail.Expenses[i] = toExpenseResponse(&expenses[i])
	}

	if settlement.InvoiceID != nil {
		doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, *settlement.InvoiceID)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			detail.InvoiceNumber = doc.FullNumber
		}
	}

	return detail, nil
}

// ListSettlements lists settlements with owner/period/status filtering
func (s *LedgerService) ListSettlements(ctx context.Context, tenantID uuid.UUID, filter SettlementListFilter) ([]SettlementResponse, int64, error) {
	sharedFilter := filter.toSharedFilter()

	settlements, err := s.settlementRepo.FindAllForTenant(ctx, tenantID, sharedFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.settlementRepo.CountForTenant(ctx, tenantID, sharedFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SettlementResponse, len(settlements))
	for i := range settlements {
		responses[i] = *toSettlementResponse(&settlements[i])
	}
	return responses, total, nil
}

// RecomputeSettlement re-sums the assigned records into the totals
func (s *LedgerService) RecomputeSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*SettlementResponse, error) {
	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}

	if err := s.recompute(ctx, tenantID, settlement); err != nil {
		return nil, err
	}
	return toSettlementResponse(settlement), nil
}

// IssueSettlement formalizes a draft settlement: a fresh invoice number is
// allocated from the default series, an IssuedDocument is minted and linked
// both ways
func (s *LedgerService) IssueSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*SettlementResponse, error) {
	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if !settlement.Status.CanIssue() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only draft settlements can be issued")
	}

	reservations, err := s.reservationRepo.FindBySettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.FindBySettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if len(reservations) == 0 && len(expenses) == 0 {
		return nil, shared.ErrEmptySettlement
	}

	defaultSeries, err := s.GetOrCreateDefaultSeries(ctx, tenantID, ledger.DocumentTypeStandard)
	if err != nil {
		return nil, err
	}

	code, err := s.AllocateNumber(ctx, tenantID, defaultSeries.ID)
	if err != nil {
		return nil, err
	}

	total, err := valueobject.NewMoney(settlement.NetAmount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	doc, err := ledger.NewIssuedDocument(tenantID, code.SeriesID, code.Number, code.FullNumber,
		settlement.OwnerID, settlement.Year, settlement.Month, total)
	if err != nil {
		return nil, err
	}
	if err := doc.LinkSettlement(settlement.ID); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	series, err := s.findSeries(ctx, tenantID, code.SeriesID)
	if err != nil {
		return nil, err
	}
	series.MarkDocumentIssued()
	if err := s.seriesRepo.Save(ctx, series); err != nil {
		return nil, err
	}

	if err := settlement.Issue(doc.ID); err != nil {
		return nil, err
	}
	if err := s.saveSettlement(ctx, settlement); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	s.publishEvents(ctx, settlement)

	return toSettlementResponse(settlement), nil
}

// MarkSettlementPaid records the external payment confirmation. When an
// idempotency key is supplied and a store is configured, replays are
// acknowledged without re-running the transition.
func (s *LedgerService) MarkSettlementPaid(ctx context.Context, tenantID, settlementID uuid.UUID, idempotencyKey string) (*SettlementResponse, error) {
	storeKey := ""
	if idempotencyKey != "" && s.idempotency != nil {
		storeKey = paymentIdempotencyKey(tenantID, settlementID, idempotencyKey)
		processed, err := s.idempotency.IsProcessed(ctx, storeKey)
		if err != nil {
			return nil, err
		}
		if processed {
			settlement, err := s.findSettlement(ctx, tenantID, settlementID)
			if err != nil {
				return nil, err
			}
			return toSettlementResponse(settlement), nil
		}
	}

	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if err := settlement.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.saveSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	// The key is recorded only once the payment is durable, so a rejected
	// attempt can be retried with the same key. Losing the mark after a
	// successful save is harmless: the replay hits the PAID state check.
	if storeKey != "" {
		_, _ = s.idempotency.MarkProcessed(ctx, storeKey, s.idempotencyTTL)
	}
	s.publishEvents(ctx, settlement)

	return toSettlementResponse(settlement), nil
}

// VoidSettlement cancels a settlement before payment, voids its linked
// invoice and releases every record assignment
func (s *LedgerService) VoidSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) error {
	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return err
	}

	if err := settlement.Void(); err != nil {
		return err
	}

	if settlement.InvoiceID != nil {
		doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, *settlement.InvoiceID)
		if err != nil {
			return err
		}
		if doc != nil && !doc.IsVoid() {
			if err := doc.Void(); err != nil {
				return err
			}
			if err := s.documentRepo.Save(ctx, doc); err != nil {
				return err
			}
			s.publishEvents(ctx, doc)
		}
	}

	reservations, err := s.reservationRepo.FindBySettlement(ctx, tenantID, settlementID)
	if err != nil {
		return err
	}
	for i := range reservations {
		reservations[i].UnassignFromSettlement()
		if err := s.reservationRepo.Save(ctx, &reservations[i]); err != nil {
			return err
		}
	}

	expenses, err := s.expenseRepo.FindBySettlement(ctx, tenantID, settlementID)
	if err != nil {
		return err
	}
	for i := range expenses {
		expenses[i].UnassignFromSettlement()
		if err := s.expenseRepo.Save(ctx, &expenses[i]); err != nil {
			return err
		}
	}

	if err := s.saveSettlement(ctx, settlement); err != nil {
		return err
	}
	s.publishEvents(ctx, settlement)
	return nil
}

// AssignRecord claims a reservation or expense for the settlement and
// recomputes the totals
func (s *LedgerService) AssignRecord(ctx context.Context, tenantID, settlementID, recordID uuid.UUID, recordType RecordType) (*SettlementResponse, error) {
	if !recordType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Record type must be RESERVATION or EXPENSE")
	}

	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if err := settlement.EnsureMutable(); err != nil {
		return nil, err
	}

	switch recordType {
	case RecordTypeReservation:
		err = s.assignReservation(ctx, tenantID, settlement, recordID)
	case RecordTypeExpense:
		err = s.assignExpense(ctx, tenantID, settlement, recordID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.recompute(ctx, tenantID, settlement); err != nil {
		return nil, err
	}
	return toSettlementResponse(settlement), nil
}

// UnassignRecord releases a record from the settlement and recomputes
// the totals
func (s *LedgerService) UnassignRecord(ctx context.Context, tenantID, settlementID, recordID uuid.UUID, recordType RecordType) (*SettlementResponse, error) {
	if !recordType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Record type must be RESERVATION or EXPENSE")
	}

	settlement, err := s.findSettlement(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if err := settlement.EnsureMutable(); err != nil {
		return nil, err
	}

	switch recordType {
	case RecordTypeReservation:
		record, err := s.reservationRepo.FindByIDForTenant(ctx, tenantID, recordID)
		if err != nil {
			return nil, err
		}
		if record == nil || record.SettlementID == nil || *record.SettlementID != settlementID {
			return nil, shared.NewDomainError("NOT_FOUND", "Record is not assigned to this settlement")
		}
		record.UnassignFromSettlement()
		if err := s.reservationRepo.Save(ctx, record); err != nil {
			return nil, err
		}
	case RecordTypeExpense:
		record, err := s.expenseRepo.FindByIDForTenant(ctx, tenantID, recordID)
		if err != nil {
			return nil, err
		}
		if record == nil || record.SettlementID == nil || *record.SettlementID != settlementID {
			return nil, shared.NewDomainError("NOT_FOUND", "Record is not assigned to this settlement")
		}
		record.UnassignFromSettlement()
		if err := s.expenseRepo.Save(ctx, record); err != nil {
			return nil, err
		}
	}

	if err := s.recompute(ctx, tenantID, settlement); err != nil {
		return nil, err
	}
	return toSettlementResponse(settlement), nil
}

// ===================== internals =====================

func (s *LedgerService) findSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*ledger.Settlement, error) {
	settlement, err := s.settlementRepo.FindByIDForTenant(ctx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Settlement not found")
	}
	return settlement, nil
}

func (s *LedgerService) assignReservation(ctx context.Context, tenantID uuid.UUID, settlement *ledger.Settlement, recordID uuid.UUID) error {
	record, err := s.reservationRepo.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return shared.NewDomainError("NOT_FOUND", "Reservation record not found")
	}
	if record.OwnerID != settlement.OwnerID {
		return shared.NewDomainError("INVALID_INPUT", "Record belongs to a different owner")
	}
	if err := record.AssignToSettlement(settlement.ID); err != nil {
		return err
	}
	return s.reservationRepo.Save(ctx, record)
}

func (s *LedgerService) assignExpense(ctx context.Context, tenantID uuid.UUID, settlement *ledger.Settlement, recordID uuid.UUID) error {
	record, err := s.expenseRepo.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return shared.NewDomainError("NOT_FOUND", "Expense record not found")
	}
	if record.OwnerID != settlement.OwnerID {
		return shared.NewDomainError("INVALID_INPUT", "Record belongs to a different owner")
	}
	if err := record.AssignToSettlement(settlement.ID); err != nil {
		return err
	}
	return s.expenseRepo.Save(ctx, record)
}

// releaseDraft is the cleanup path of CreateSettlement. When claiming the
// selected records partially fails, the records claimed so far are released
// and the draft is voided so the owner/period slot frees up again. The
// cleanup is best-effort: the original failure is what the caller sees.
func (s *LedgerService) releaseDraft(ctx context.Context, tenantID uuid.UUID, settlement *ledger.Settlement) {
	reservations, err := s.reservationRepo.FindBySettlement(ctx, tenantID, settlement.ID)
	if err == nil {
		for i := range reservations {
			reservations[i].UnassignFromSettlement()
			_ = s.reservationRepo.Save(ctx, &reservations[i])
		}
	}
	expenses, err := s.expenseRepo.FindBySettlement(ctx, tenantID, settlement.ID)
	if err == nil {
		for i := range expenses {
			expenses[i].UnassignFromSettlement()
			_ = s.expenseRepo.Save(ctx, &expenses[i])
		}
	}
	if err := settlement.Void(); err == nil {
		_ = s.saveSettlement(ctx, settlement)
	}
	settlement.ClearDomainEvents()
}

// recompute loads the assigned records, recomputes the totals through the
// split calculator and persists them under the optimistic version check
func (s *LedgerService) recompute(ctx context.Context, tenantID uuid.UUID, settlement *ledger.Settlement) error {
	cfg, err := s.configRepo.FindForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if cfg == nil {
		return shared.ErrConfigurationMissing
	}

	reservations, err := s.reservationRepo.FindBySettlement(ctx, tenantID, settlement.ID)
	if err != nil {
		return err
	}
	expenses, err := s.expenseRepo.FindBySettlement(ctx, tenantID, settlement.ID)
	if err != nil {
		return err
	}

	totals := ledger.ComputeSettlementTotals(reservations, expenses, cfg)
	if err := settlement.ApplyTotals(totals); err != nil {
		return err
	}

	err = s.saveSettlement(ctx, settlement)
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}

	// Lost a race against a concurrent recompute: reload and reapply once
	fresh, err := s.findSettlement(ctx, tenantID, settlement.ID)
	if err != nil {
		return err
	}
	if err := fresh.ApplyTotals(totals); err != nil {
		return err
	}
	if err := s.saveSettlement(ctx, fresh); err != nil {
		return err
	}
	*settlement = *fresh
	return nil
}

// saveSettlement persists under the optimistic version check
func (s *LedgerService) saveSettlement(ctx context.Context, settlement *ledger.Settlement) error {
	return s.settlementRepo.SaveWithLock(ctx, settlement, settlement.Version-1)
}

func paymentIdempotencyKey(tenantID, settlementID uuid.UUID, key string) string {
	return "ledger:pay:" + tenantID.String() + ":" + settlementID.String() + ":" + key
}

package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/rentalsuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SettlementStatus represents the lifecycle state of a settlement
type SettlementStatus string

const (
	SettlementStatusDraft  SettlementStatus = "DRAFT"  // Being assembled, freely mutable
	SettlementStatusIssued SettlementStatus = "ISSUED" // Formalized with an invoice number
	SettlementStatusPaid   SettlementStatus = "PAID"   // Paid out, frozen
	SettlementStatusVoid   SettlementStatus = "VOID"   // Cancelled before payment
)

// IsValid checks if the status is a valid SettlementStatus
func (s SettlementStatus) IsValid() bool {
	switch s {
	case SettlementStatusDraft, SettlementStatusIssued, SettlementStatusPaid, SettlementStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of SettlementStatus
func (s SettlementStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no transition leaves this state
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusPaid || s == SettlementStatusVoid
}

// CanIssue returns true if the settlement can be formalized in this status
func (s SettlementStatus) CanIssue() bool {
	return s == SettlementStatusDraft
}

// CanPay returns true if payment can be confirmed in this status
func (s SettlementStatus) CanPay() bool {
	return s == SettlementStatusIssued
}

// CanVoid returns true if the settlement can be voided in this status
func (s SettlementStatus) CanVoid() bool {
	return s == SettlementStatusDraft || s == SettlementStatusIssued
}

// IsLocked returns true if records and totals are frozen in this status
func (s SettlementStatus) IsLocked() bool {
	return s == SettlementStatusPaid
}

// SettlementTotals is the deterministic sum of a settlement's assigned
// records at one recompute
type SettlementTotals struct {
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalCleaning      decimal.Decimal `json:"total_cleaning"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	TotalCommissionTax decimal.Decimal `json:"total_commission_tax"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	TotalRetention     decimal.Decimal `json:"total_retention"`
	NetAmount          decimal.Decimal `json:"net_amount"`
}

// ComputeSettlementTotals re-sums assigned records through the split
// calculator. Idempotent: the same inputs always yield the same totals.
//
// The fixed monthly fee joins the commission bucket and its VAT joins the
// commission tax bucket. Retention is computed on the commission base and
// tracked for fiscal reporting without reducing the net payout.
func ComputeSettlementTotals(reservations []ReservationRecord, expenses []ExpenseRecord, cfg *LedgerConfig) SettlementTotals {
	splitCfg := cfg.SplitConfig()

	t := SettlementTotals{
		TotalIncome:        decimal.Zero,
		TotalCleaning:      decimal.Zero,
		TotalCommission:    decimal.Zero,
		TotalCommissionTax: decimal.Zero,
		TotalExpenses:      decimal.Zero,
		TotalRetention:     decimal.Zero,
		NetAmount:          decimal.Zero,
	}

	for i := range reservations {
		r := &reservations[i]
		split := ComputeSplit(SplitInput{
			GrossEarnings:      r.GrossEarnings,
			CleaningFee:        r.CleaningFee,
			Nights:             r.Nights,
			CommissionOverride: r.CommissionOverride,
		}, splitCfg)

		t.TotalIncome = t.TotalIncome.Add(r.GrossEarnings)
		t.TotalCleaning = t.TotalCleaning.Add(split.CleaningAmount)
		t.TotalCommission = t.TotalCommission.Add(split.ManagerAmount)
		t.TotalCommissionTax = t.TotalCommissionTax.Add(split.CommissionTax)
	}

	if cfg.MonthlyFee.IsPositive() {
		t.TotalCommission = t.TotalCommission.Add(cfg.MonthlyFee)
		t.TotalCommissionTax = t.TotalCommissionTax.Add(
			cfg.MonthlyFee.Mul(cfg.MonthlyFeeTaxRate).Div(decimal.NewFromInt(100)))
	}

	for i := range expenses {
		t.TotalExpenses = t.TotalExpenses.Add(expenses[i].TotalWithTax())
	}

	t.TotalRetention = t.TotalCommission.Mul(cfg.RetentionRate).Div(decimal.NewFromInt(100))

	t.NetAmount = t.TotalIncome.
		Sub(t.TotalCommission).
		Sub(t.TotalCommissionTax).
		Sub(t.TotalCleaning).
		Sub(t.TotalExpenses)

	return t
}

// SettlementMetrics are presentation derivations computed from assigned
// records at read time, never persisted
type SettlementMetrics struct {
	NightsCovered      int             `json:"nights_covered"`
	DaysInPeriod       int             `json:"days_in_period"`
	OccupancyRate      decimal.Decimal `json:"occupancy_rate"`
	AverageNightlyRate decimal.Decimal `json:"average_nightly_rate"`
}

// Settlement is the periodic statement for one owner and one (year, month)
// period. Totals are always the deterministic sum of the assigned records
// at the last recompute; PAID freezes the settlement and its records.
type Settlement struct {
	shared.TenantAggregateRoot
	OwnerID            uuid.UUID        `gorm:"type:uuid;not null;index:idx_settlement_owner_period,priority:1"`
	Year               int              `gorm:"not null;index:idx_settlement_owner_period,priority:2"`
	Month              int              `gorm:"not null;index:idx_settlement_owner_period,priority:3"`
	Status             SettlementStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	TotalIncome        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCleaning      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCommission    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCommissionTax decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalExpenses      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalRetention     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	NetAmount          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	InvoiceID          *uuid.UUID       `gorm:"type:uuid;index"`
	IssuedAt           *time.Time
	PaidAt             *time.Time
	VoidedAt           *time.Time
}

// TableName returns the table name for GORM
func (Settlement) TableName() string {
	return "settlements"
}

// NewSettlement creates a draft settlement for an owner and period
func NewSettlement(tenantID, ownerID uuid.UUID, year, month int) (*Settlement, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if year < 2000 || year > 2200 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Settlement year is out of range")
	}
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Settlement month must be between 1 and 12")
	}

	s := &Settlement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OwnerID:             ownerID,
		Year:                year,
		Month:               month,
		Status:              SettlementStatusDraft,
		TotalIncome:         decimal.Zero,
		TotalCleaning:       decimal.Zero,
		TotalCommission:     decimal.Zero,
		TotalCommissionTax:  decimal.Zero,
		TotalExpenses:       decimal.Zero,
		TotalRetention:      decimal.Zero,
		NetAmount:           decimal.Zero,
	}

	s.AddDomainEvent(NewSettlementCreatedEvent(s))

	return s, nil
}

// EnsureMutable fails when the settlement no longer accepts record or
// total changes
func (s *Settlement) EnsureMutable() error {
	if s.Status.IsLocked() {
		return shared.ErrSettlementLocked
	}
	if s.Status == SettlementStatusVoid {
		return shared.NewDomainError("INVALID_STATE", "Settlement is void")
	}
	return nil
}

// ApplyTotals stores a fresh recompute result
func (s *Settlement) ApplyTotals(t SettlementTotals) error {
	if err := s.EnsureMutable(); err != nil {
		return err
	}

	s.TotalIncome = t.TotalIncome
	s.TotalCleaning = t.TotalCleaning
	s.TotalCommission = t.TotalCommission
	s.TotalCommissionTax = t.TotalCommissionTax
	s.TotalExpenses = t.TotalExpenses
	s.TotalRetention = t.TotalRetention
	s.NetAmount = t.NetAmount
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Issue formalizes the settlement, linking the invoice minted for it
func (s *Settlement) Issue(invoiceID uuid.UUID) error {
	if !s.Status.CanIssue() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue settlement in %s status", s.Status))
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_DOCUMENT", "Invoice ID cannot be empty")
	}

	now := time.Now()
	s.Status = SettlementStatusIssued
	s.InvoiceID = &invoiceID
	s.IssuedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementIssuedEvent(s))

	return nil
}

// MarkPaid records the external payment confirmation and freezes the
// settlement
func (s *Settlement) MarkPaid() error {
	if !s.Status.CanPay() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark settlement paid in %s status", s.Status))
	}

	now := time.Now()
	s.Status = SettlementStatusPaid
	s.PaidAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementPaidEvent(s))

	return nil
}

// Void cancels the settlement before payment
func (s *Settlement) Void() error {
	if !s.Status.CanVoid() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot void settlement in %s status", s.Status))
	}

	now := time.Now()
	previousStatus := s.Status
	s.Status = SettlementStatusVoid
	s.VoidedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementVoidedEvent(s, previousStatus))

	return nil
}

// AdminReopen is the administrative override that unfreezes a paid
// settlement, moving it back to ISSUED
func (s *Settlement) AdminReopen() error {
	if s.Status != SettlementStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Only paid settlements can be reopened")
	}

	s.Status = SettlementStatusIssued
	s.PaidAt = nil
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Metrics derives occupancy figures from the assigned reservations.
// Read-time only; not ledger facts.
func (s *Settlement) Metrics(reservations []ReservationRecord) SettlementMetrics {
	days := time.Date(s.Year, time.Month(s.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()

	nights := 0
	for i := range reservations {
		nights += reservations[i].Nights
	}

	m := SettlementMetrics{
		NightsCovered:      nights,
		DaysInPeriod:       days,
		OccupancyRate:      decimal.Zero,
		AverageNightlyRate: decimal.Zero,
	}

	if days > 0 {
		m.OccupancyRate = decimal.NewFromInt(int64(nights)).
			Div(decimal.NewFromInt(int64(days))).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	if nights > 0 {
		m.AverageNightlyRate = s.TotalIncome.Div(decimal.NewFromInt(int64(nights))).Round(2)
	}

	return m
}

// GetNetAmountMoney returns the net payout as Money
func (s *Settlement) GetNetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(s.NetAmount)
}

// IsDraft returns true while the settlement is being assembled
func (s *Settlement) IsDraft() bool {
	return s.Status == SettlementStatusDraft
}

// IsPaid returns true once payment has been confirmed
func (s *Settlement) IsPaid() bool {
	return s.Status == SettlementStatusPaid
}

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/rentalsuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies owner expenses
type ExpenseCategory string

const (
	ExpenseCategoryMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseCategorySupplies    ExpenseCategory = "SUPPLIES"
	ExpenseCategoryRepair      ExpenseCategory = "REPAIR"
	ExpenseCategoryCleaning    ExpenseCategory = "CLEANING"
	ExpenseCategoryFurniture   ExpenseCategory = "FURNITURE"
	ExpenseCategoryTaxes       ExpenseCategory = "TAXES"
	ExpenseCategoryInsurance   ExpenseCategory = "INSURANCE"
	ExpenseCategoryOther       ExpenseCategory = "OTHER"
)

// IsValid checks if the expense category is valid
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryMaintenance, ExpenseCategorySupplies, ExpenseCategoryRepair,
		ExpenseCategoryCleaning, ExpenseCategoryFurniture, ExpenseCategoryTaxes,
		ExpenseCategoryInsurance, ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// ReservationRecord is a reservation consumed from the import subsystem.
// The ledger only reads its financial fields and owns the settlement
// assignment; guest and property metadata stay with the importer.
type ReservationRecord struct {
	shared.TenantAggregateRoot
	OwnerID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	ConfirmationCode   string           `gorm:"type:varchar(50)"` // Display only
	Platform           string           `gorm:"type:varchar(50)"` // Display only
	CheckIn            time.Time        `gorm:"not null;index"`
	CheckOut           time.Time        `gorm:"not null"`
	Nights             int              `gorm:"not null"`
	GrossEarnings      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CleaningFee        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionOverride *decimal.Decimal `gorm:"type:decimal(9,4)"` // Per-reservation rate override
	SettlementID       *uuid.UUID       `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ReservationRecord) TableName() string {
	return "reservation_records"
}

// NewReservationRecord creates a reservation record for the ledger to settle
func NewReservationRecord(
	tenantID, ownerID uuid.UUID,
	checkIn, checkOut time.Time,
	grossEarnings, cleaningFee valueobject.Money,
) (*ReservationRecord, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Check-in and check-out dates are required")
	}
	if !checkOut.After(checkIn) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Check-out must be after check-in")
	}
	if cleaningFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Cleaning fee cannot be negative")
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)

	return &ReservationRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OwnerID:             ownerID,
		CheckIn:             checkIn,
		CheckOut:            checkOut,
		Nights:              nights,
		GrossEarnings:       grossEarnings.Amount(),
		CleaningFee:         cleaningFee.Amount(),
	}, nil
}

// IsAssigned returns true if the record belongs to a settlement
func (r *ReservationRecord) IsAssigned() bool {
	return r.SettlementID != nil
}

// AssignToSettlement claims the record for a settlement. Assignment is
// exclusive: a record already belonging to a different settlement is refused.
func (r *ReservationRecord) AssignToSettlement(settlementID uuid.UUID) error {
	if settlementID == uuid.Nil {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Settlement ID cannot be empty")
	}
	if r.SettlementID != nil && *r.SettlementID != settlementID {
		return shared.ErrAlreadyAssigned
	}
	r.SettlementID = &settlementID
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// UnassignFromSettlement releases the record back to the unsettled pool
func (r *ReservationRecord) UnassignFromSettlement() {
	if r.SettlementID == nil {
		return
	}
	r.SettlementID = nil
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// GetGrossEarningsMoney returns gross earnings as Money
func (r *ReservationRecord) GetGrossEarningsMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(r.GrossEarnings)
}

// GetCleaningFeeMoney returns the reservation-level cleaning fee as Money
func (r *ReservationRecord) GetCleaningFeeMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(r.CleaningFee)
}

// ExpenseRecord is an owner expense consumed from the import subsystem
type ExpenseRecord struct {
	shared.TenantAggregateRoot
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description  string          `gorm:"type:varchar(300)"`
	Category     ExpenseCategory `gorm:"type:varchar(30);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IncurredOn   time.Time       `gorm:"not null;index"`
	SettlementID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ExpenseRecord) TableName() string {
	return "expense_records"
}

// NewExpenseRecord creates an expense record for the ledger to settle
func NewExpenseRecord(
	tenantID, ownerID uuid.UUID,
	description string,
	category ExpenseCategory,
	amount, taxAmount valueobject.Money,
	incurredOn time.Time,
) (*ExpenseRecord, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense category is not valid")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount cannot be negative")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense tax amount cannot be negative")
	}
	if incurredOn.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Expense date is required")
	}

	return &ExpenseRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OwnerID:             ownerID,
		Description:         description,
		Category:            category,
		Amount:              amount.Amount(),
		TaxAmount:           taxAmount.Amount(),
		IncurredOn:          incurredOn,
	}, nil
}

// IsAssigned returns true if the record belongs to a settlement
func (e *ExpenseRecord) IsAssigned() bool {
	return e.SettlementID != nil
}

// AssignToSettlement claims the record for a settlement, exclusively
func (e *ExpenseRecord) AssignToSettlement(settlementID uuid.UUID) error {
	if settlementID == uuid.Nil {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Settlement ID cannot be empty")
	}
	if e.SettlementID != nil && *e.SettlementID != settlementID {
		return shared.ErrAlreadyAssigned
	}
	e.SettlementID = &settlementID
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// UnassignFromSettlement releases the record back to the unsettled pool
func (e *ExpenseRecord) UnassignFromSettlement() {
	if e.SettlementID == nil {
		return
	}
	e.SettlementID = nil
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
}

// TotalWithTax returns amount plus tax, the value rolled into settlements
func (e *ExpenseRecord) TotalWithTax() decimal.Decimal {
	return e.Amount.Add(e.TaxAmount)
}

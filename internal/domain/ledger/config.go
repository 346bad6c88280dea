package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CommissionType selects how the manager commission is computed
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "PERCENTAGE"            // Rate applied to net earnings
	CommissionTypeFixed      CommissionType = "FIXED_PER_RESERVATION" // Flat amount per reservation
)

// IsValid checks if the commission type is valid
func (t CommissionType) IsValid() bool {
	return t == CommissionTypePercentage || t == CommissionTypeFixed
}

// CleaningType selects how the cleaning charge is computed
type CleaningType string

const (
	CleaningTypeFixed    CleaningType = "FIXED_PER_RESERVATION" // Flat amount per reservation
	CleaningTypePerNight CleaningType = "PER_NIGHT"             // Amount multiplied by nights
)

// IsValid checks if the cleaning type is valid
func (t CleaningType) IsValid() bool {
	return t == CleaningTypeFixed || t == CleaningTypePerNight
}

// CleaningRecipient selects who receives the cleaning funds
type CleaningRecipient string

const (
	CleaningRecipientManager    CleaningRecipient = "MANAGER"
	CleaningRecipientThirdParty CleaningRecipient = "THIRD_PARTY"
)

// IsValid checks if the cleaning recipient is valid
func (r CleaningRecipient) IsValid() bool {
	return r == CleaningRecipientManager || r == CleaningRecipientThirdParty
}

// Default fiscal rates applied when a tenant config does not override them
var (
	DefaultCommissionTaxRate = decimal.NewFromInt(21)
	DefaultRetentionRate     = decimal.NewFromInt(15)
)

// LedgerConfig is the per-tenant ledger setup: how commissions, cleaning,
// retention and the fixed monthly fee are computed. Exactly one config
// exists per tenant; its absence blocks default-series provisioning.
type LedgerConfig struct {
	shared.TenantAggregateRoot
	CommissionType    CommissionType    `gorm:"type:varchar(30);not null"`
	CommissionRate    decimal.Decimal   `gorm:"type:decimal(9,4);not null"` // Percentage or flat amount per CommissionType
	CommissionTaxRate decimal.Decimal   `gorm:"type:decimal(9,4);not null"`
	CleaningType      CleaningType      `gorm:"type:varchar(30);not null"`
	CleaningValue     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	CleaningRecipient CleaningRecipient `gorm:"type:varchar(20);not null"`
	RetentionRate     decimal.Decimal   `gorm:"type:decimal(9,4);not null"`
	MonthlyFee        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	MonthlyFeeTaxRate decimal.Decimal   `gorm:"type:decimal(9,4);not null"`
}

// TableName returns the table name for GORM
func (LedgerConfig) TableName() string {
	return "ledger_configs"
}

// NewLedgerConfig creates the ledger configuration for a tenant.
// Tax and retention rates default to the Spanish fiscal values when negative
// sentinels are passed; zero is a legitimate explicit value (individuals
// carry no retention).
func NewLedgerConfig(
	tenantID uuid.UUID,
	commissionType CommissionType,
	commissionRate decimal.Decimal,
	cleaningType CleaningType,
	cleaningValue decimal.Decimal,
	cleaningRecipient CleaningRecipient,
) (*LedgerConfig, error) {
	if !commissionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMMISSION_TYPE", "Commission type is not valid")
	}
	if commissionRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Commission rate cannot be negative")
	}
	if commissionType == CommissionTypePercentage && commissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_RATE", "Commission percentage cannot exceed 100")
	}
	if !cleaningType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLEANING_TYPE", "Cleaning type is not valid")
	}
	if cleaningValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Cleaning value cannot be negative")
	}
	if !cleaningRecipient.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLEANING_RECIPIENT", "Cleaning recipient is not valid")
	}

	return &LedgerConfig{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CommissionType:      commissionType,
		CommissionRate:      commissionRate,
		CommissionTaxRate:   DefaultCommissionTaxRate,
		CleaningType:        cleaningType,
		CleaningValue:       cleaningValue,
		CleaningRecipient:   cleaningRecipient,
		RetentionRate:       DefaultRetentionRate,
		MonthlyFee:          decimal.Zero,
		MonthlyFeeTaxRate:   DefaultCommissionTaxRate,
	}, nil
}

// SetCommissionTaxRate overrides the VAT rate applied to commissions
func (c *LedgerConfig) SetCommissionTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Tax rate must be between 0 and 100")
	}
	c.CommissionTaxRate = rate
	c.touch()
	return nil
}

// SetRetentionRate overrides the fiscal retention rate; zero for individuals
func (c *LedgerConfig) SetRetentionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Retention rate must be between 0 and 100")
	}
	c.RetentionRate = rate
	c.touch()
	return nil
}

// SetMonthlyFee sets the fixed management fee added to every settlement
func (c *LedgerConfig) SetMonthlyFee(fee, taxRate decimal.Decimal) error {
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Monthly fee cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Tax rate must be between 0 and 100")
	}
	c.MonthlyFee = fee
	c.MonthlyFeeTaxRate = taxRate
	c.touch()
	return nil
}

// SplitConfig projects the aggregate into the pure calculator's input
func (c *LedgerConfig) SplitConfig() SplitConfig {
	return SplitConfig{
		CommissionType:    c.CommissionType,
		CommissionRate:    c.CommissionRate,
		CommissionTaxRate: c.CommissionTaxRate,
		CleaningType:      c.CleaningType,
		CleaningValue:     c.CleaningValue,
		CleaningRecipient: c.CleaningRecipient,
	}
}

func (c *LedgerConfig) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

package ledger

import (
	"github.com/shopspring/decimal"
)

// SplitConfig is the commission/cleaning configuration the calculator
// consumes. It is a plain value detached from the LedgerConfig aggregate
// so the computation stays pure.
type SplitConfig struct {
	CommissionType    CommissionType
	CommissionRate    decimal.Decimal
	CommissionTaxRate decimal.Decimal
	CleaningType      CleaningType
	CleaningValue     decimal.Decimal
	CleaningRecipient CleaningRecipient
}

// SplitInput carries the reservation-level figures for one split
type SplitInput struct {
	GrossEarnings      decimal.Decimal
	CleaningFee        decimal.Decimal // Reservation-level override, used when positive
	Nights             int
	CommissionOverride *decimal.Decimal // Per-reservation rate override
}

// SplitResult is the three-way division of a reservation's earnings.
// ManagerAmount + OwnerAmount equals GrossEarnings exactly; cleaning is
// carved out as its own bucket and routed per CleaningRecipient.
type SplitResult struct {
	CleaningAmount    decimal.Decimal
	ManagerAmount     decimal.Decimal
	CommissionTax     decimal.Decimal
	OwnerAmount       decimal.Decimal
	CleaningRecipient CleaningRecipient
}

// ComputeSplit computes the manager/owner/cleaning shares for one
// reservation. Deterministic and side-effect free; all amounts stay at
// full precision, rounding happens only at presentation boundaries.
//
// Cleaning is resolved first, then the commission on the net
// (earnings minus cleaning), then the owner share as the remainder of
// gross earnings after commission.
func ComputeSplit(in SplitInput, cfg SplitConfig) SplitResult {
	cleaning := resolveCleaning(in, cfg)

	net := in.GrossEarnings.Sub(cleaning)

	var commission decimal.Decimal
	switch cfg.CommissionType {
	case CommissionTypeFixed:
		commission = cfg.CommissionRate
	default:
		rate := cfg.CommissionRate
		if in.CommissionOverride != nil {
			rate = *in.CommissionOverride
		}
		commission = net.Mul(rate).Div(decimal.NewFromInt(100))
	}

	tax := commission.Mul(cfg.CommissionTaxRate).Div(decimal.NewFromInt(100))

	owner := in.GrossEarnings.Sub(commission)

	return SplitResult{
		CleaningAmount:    cleaning,
		ManagerAmount:     commission,
		CommissionTax:     tax,
		OwnerAmount:       owner,
		CleaningRecipient: cfg.CleaningRecipient,
	}
}

// resolveCleaning picks the reservation-level fee when positive, otherwise
// derives the charge from the tenant configuration
func resolveCleaning(in SplitInput, cfg SplitConfig) decimal.Decimal {
	if in.CleaningFee.IsPositive() {
		return in.CleaningFee
	}
	if cfg.CleaningType == CleaningTypePerNight {
		return cfg.CleaningValue.Mul(decimal.NewFromInt(int64(in.Nights)))
	}
	return cfg.CleaningValue
}
